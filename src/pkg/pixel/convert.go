package pixel

import (
	"image"
	"image/color"
)

/*
FromImage converts any stdlib image into an owned pixel grid. Grayscale
sources keep their single channel, everything else lands in three-channel
RGB with alpha dropped.
*/
func FromImage(src image.Image) *Image {
	if gray, isGray := src.(*image.Gray); isGray {
		return fromGray(gray)
	}

	bounds := src.Bounds()
	out := &Image{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: RGBChannels,
		Pix:      make([]uint8, bounds.Dx()*bounds.Dy()*RGBChannels),
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 1 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 1 {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.Pix[i] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			i += RGBChannels
		}
	}

	return out
}

/*
FromImageAs converts like FromImage but forces the result to the given
channel count. Resampling helpers use it to give back an image with the
same shape the caller handed in.
*/
func FromImageAs(src image.Image, channels int) *Image {
	converted := FromImage(src)
	if converted.Channels == channels {
		return converted
	}

	if channels == GrayChannels {
		return converted.CollapseToGray()
	}

	return converted.expandToRGB()
}

/*
CollapseToGray reduces the image to a single intensity channel using
Luminance. Single-channel images come back as a plain clone.
*/
func (img *Image) CollapseToGray() *Image {
	if img.Channels == GrayChannels {
		return img.Clone()
	}

	out := &Image{
		Width:    img.Width,
		Height:   img.Height,
		Channels: GrayChannels,
		Pix:      make([]uint8, img.Width*img.Height),
	}

	for i := 0; i < len(out.Pix); i += 1 {
		base := i * RGBChannels
		out.Pix[i] = Luminance(img.Pix[base], img.Pix[base+1], img.Pix[base+2])
	}

	return out
}

func (img *Image) expandToRGB() *Image {
	if img.Channels == RGBChannels {
		return img.Clone()
	}

	out := &Image{
		Width:    img.Width,
		Height:   img.Height,
		Channels: RGBChannels,
		Pix:      make([]uint8, img.Width*img.Height*RGBChannels),
	}

	for i, v := range img.Pix {
		base := i * RGBChannels
		out.Pix[base] = v
		out.Pix[base+1] = v
		out.Pix[base+2] = v
	}

	return out
}

func fromGray(src *image.Gray) *Image {
	bounds := src.Bounds()
	out := &Image{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: GrayChannels,
		Pix:      make([]uint8, bounds.Dx()*bounds.Dy()),
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 1 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 1 {
			out.Pix[i] = src.GrayAt(x, y).Y
			i += 1
		}
	}

	return out
}

/*
ToImage renders the pixel grid as a stdlib image for encoders and
resamplers: image.Gray for single-channel data, image.NRGBA otherwise.
*/
func (img *Image) ToImage() image.Image {
	if img.Channels == GrayChannels {
		return img.ToGray()
	}

	return img.ToNRGBA()
}

func (img *Image) ToGray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, img.Width, img.Height))

	if img.Channels == GrayChannels {
		for y := 0; y < img.Height; y += 1 {
			copy(out.Pix[y*out.Stride:y*out.Stride+img.Width], img.Pix[y*img.Width:(y+1)*img.Width])
		}

		return out
	}

	for y := 0; y < img.Height; y += 1 {
		for x := 0; x < img.Width; x += 1 {
			r, g, b := img.RGB(x, y)
			out.SetGray(x, y, color.Gray{Y: Luminance(r, g, b)})
		}
	}

	return out
}

func (img *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))

	for y := 0; y < img.Height; y += 1 {
		for x := 0; x < img.Width; x += 1 {
			i := out.PixOffset(x, y)

			if img.Channels == GrayChannels {
				v := img.Gray(x, y)
				out.Pix[i] = v
				out.Pix[i+1] = v
				out.Pix[i+2] = v
			} else {
				r, g, b := img.RGB(x, y)
				out.Pix[i] = r
				out.Pix[i+1] = g
				out.Pix[i+2] = b
			}

			out.Pix[i+3] = 255
		}
	}

	return out
}
