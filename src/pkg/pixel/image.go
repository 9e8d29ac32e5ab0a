package pixel

import (
	"fmt"
	"math"

	"receipt-imaging/src/pkg/util"
)

const (
	// GrayChannels is the channel count of a single-channel intensity image.
	GrayChannels = 1

	// RGBChannels is the channel count of a color image. Alpha is never
	// carried; receipts are opaque.
	RGBChannels = 3
)

/*
Image is the pixel grid every processing stage operates on. Samples are
stored row-major, interleaved per channel, one byte per sample. Keeping the
representation this dumb lets the enhancement math stay independent of
whatever library decoded or will encode the bytes.
*/
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

/*
New allocates a zeroed image of the given geometry. Dimensions must be
positive and channels must be one of GrayChannels or RGBChannels.
*/
func New(width int, height int, channels int) (*Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("image dimensions must be positive, got %dx%d", width, height)
	}

	if channels != GrayChannels && channels != RGBChannels {
		return nil, fmt.Errorf("unsupported channel count '%d'", channels)
	}

	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

/*
NewFilled allocates an image with every sample set to value.
*/
func NewFilled(width int, height int, channels int, value uint8) (*Image, error) {
	img, newErr := New(width, height, channels)
	if newErr != nil {
		return nil, newErr
	}

	for i := range img.Pix {
		img.Pix[i] = value
	}

	return img, nil
}

/*
Validate reports whether the image is usable by the processing stages: non
nil, positive dimensions, a known channel count and a correctly sized sample
buffer.
*/
func (img *Image) Validate() error {
	if img == nil {
		return fmt.Errorf("image is nil")
	}

	if img.Width < 1 || img.Height < 1 {
		return fmt.Errorf("image has zero-sized dimensions %dx%d", img.Width, img.Height)
	}

	if img.Channels != GrayChannels && img.Channels != RGBChannels {
		return fmt.Errorf("image has unsupported channel count '%d'", img.Channels)
	}

	if len(img.Pix) != img.Width*img.Height*img.Channels {
		return fmt.Errorf("image buffer holds '%d' samples, geometry needs '%d'",
			len(img.Pix), img.Width*img.Height*img.Channels)
	}

	return nil
}

/*
Clone returns a deep copy. Stages never mutate their input, they write into
a clone or a fresh allocation.
*/
func (img *Image) Clone() *Image {
	out := &Image{
		Width:    img.Width,
		Height:   img.Height,
		Channels: img.Channels,
		Pix:      make([]uint8, len(img.Pix)),
	}
	copy(out.Pix, img.Pix)

	return out
}

// offset returns the buffer index of sample (x, y, c). No bounds checks.
func (img *Image) offset(x int, y int, c int) int {
	return (y*img.Width+x)*img.Channels + c
}

func (img *Image) Sample(x int, y int, c int) uint8 {
	return img.Pix[img.offset(x, y, c)]
}

func (img *Image) SetSample(x int, y int, c int, value uint8) {
	img.Pix[img.offset(x, y, c)] = value
}

/*
SampleClamped reads sample (x, y, c) with clamp-to-edge addressing, so
kernel loops can run over border pixels without special cases.
*/
func (img *Image) SampleClamped(x int, y int, c int) uint8 {
	x = util.Clamp(x, 0, img.Width-1)
	y = util.Clamp(y, 0, img.Height-1)

	return img.Pix[img.offset(x, y, c)]
}

// Gray reads the first channel. Intended for single-channel images.
func (img *Image) Gray(x int, y int) uint8 {
	return img.Pix[img.offset(x, y, 0)]
}

func (img *Image) SetGray(x int, y int, value uint8) {
	img.Pix[img.offset(x, y, 0)] = value
}

func (img *Image) RGB(x int, y int) (r uint8, g uint8, b uint8) {
	i := img.offset(x, y, 0)

	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

func (img *Image) SetRGB(x int, y int, r uint8, g uint8, b uint8) {
	i := img.offset(x, y, 0)
	img.Pix[i] = r
	img.Pix[i+1] = g
	img.Pix[i+2] = b
}

/*
ClampU8 converts an intermediate float sample back to a byte: round to the
nearest integer, then clamp into [0, 255]. Every stage stores through this
so intermediate math can overflow freely.
*/
func ClampU8(value float64) uint8 {
	return uint8(util.Clamp(int(math.Round(value)), 0, 255))
}

/*
Luminance collapses an RGB triple to perceptual gray using the ITU-R 601
weights 0.299, 0.587 and 0.114. Equal channels map to themselves.
*/
func Luminance(r uint8, g uint8, b uint8) uint8 {
	return ClampU8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
}
