package enhance

import (
	"math"

	"github.com/disintegration/imaging"

	"receipt-imaging/src/pkg/pixel"
	"receipt-imaging/src/pkg/util"
)

// Transformation names, recorded in ProcessingResult.AppliedTransformations
// in the order the stages ran.
const (
	TransformResize                = "resize"
	TransformGrayscale             = "grayscale"
	TransformBrightness            = "brightness_enhancement"
	TransformNoiseReduction        = "noise_reduction"
	TransformSharpening            = "sharpening"
	TransformContrastNormalization = "contrast_normalization"
)

/*
Stage is one step of the enhancement pipeline. Apply never mutates its
input; it returns a fresh image. ShouldApply lets conditional stages bow out
without being recorded as applied.
*/
type Stage interface {
	Name() string
	ShouldApply(img *pixel.Image) bool
	Apply(img *pixel.Image) (*pixel.Image, error)
}

/*
resizeStage scales oversized inputs down, preserving aspect ratio, so the
stages after it never see more pixels than the configured bounds allow.
Images already inside the bounds are left untouched and the stage is not
recorded.
*/
type resizeStage struct {
	maxWidth  int
	maxHeight int
}

func (stage resizeStage) Name() string {
	return TransformResize
}

func (stage resizeStage) ShouldApply(img *pixel.Image) bool {
	return img.Width > stage.maxWidth || img.Height > stage.maxHeight
}

func (stage resizeStage) Apply(img *pixel.Image) (*pixel.Image, error) {
	scale := math.Min(
		float64(stage.maxWidth)/float64(img.Width),
		float64(stage.maxHeight)/float64(img.Height),
	)
	if scale >= 1 {
		return img.Clone(), nil
	}

	newWidth := util.Clamp(int(math.Round(float64(img.Width)*scale)), 1, stage.maxWidth)
	newHeight := util.Clamp(int(math.Round(float64(img.Height)*scale)), 1, stage.maxHeight)

	resized := imaging.Resize(img.ToImage(), newWidth, newHeight, imaging.CatmullRom)

	return pixel.FromImageAs(resized, img.Channels), nil
}

/*
grayscaleStage collapses the image to a single intensity channel. Inputs
that are already single-channel pass through as a copy; the stage is still
recorded, the output is grayscale either way.
*/
type grayscaleStage struct{}

func (grayscaleStage) Name() string {
	return TransformGrayscale
}

func (grayscaleStage) ShouldApply(img *pixel.Image) bool {
	return true
}

func (grayscaleStage) Apply(img *pixel.Image) (*pixel.Image, error) {
	return img.CollapseToGray(), nil
}

const (
	targetMeanIntensity     = 128.0
	maxBrightnessDelta      = 50.0
	maxContrastBoost        = 1.5
	contrastWindowThreshold = 200.0
)

/*
brightnessStage recenters the mean intensity toward the midpoint and
stretches the dynamic range when it is narrow. The stretch is driven by the
99% coverage window of the histogram, so a handful of outlier pixels cannot
fake a wide range. Both corrections are folded into one lookup table:

	output = (input - 128) * (1 + boost) + 128 + delta

where delta is half the distance from the mean to 128, clamped to ±50, and
boost is min(1.5, 256/window - 1) for windows narrower than 200 intensity
levels. A single-intensity image has a window of zero and gets the full
boost.
*/
type brightnessStage struct{}

func (brightnessStage) Name() string {
	return TransformBrightness
}

func (brightnessStage) ShouldApply(img *pixel.Image) bool {
	return true
}

func (brightnessStage) Apply(img *pixel.Image) (*pixel.Image, error) {
	histogram := pixel.HistogramOf(img)

	delta := util.Clamp((targetMeanIntensity-histogram.Mean())*0.5, -maxBrightnessDelta, maxBrightnessDelta)

	boost := 0.0
	low, high := histogram.CoverageWindow(histogramTailFraction)
	if window := float64(high - low); window < contrastWindowThreshold {
		boost = math.Min(maxContrastBoost, 256.0/window-1)
	}

	var lut [256]uint8
	for v := range lut {
		lut[v] = pixel.ClampU8((float64(v)-targetMeanIntensity)*(1+boost) + targetMeanIntensity + delta)
	}

	return mapSamples(img, &lut), nil
}

/*
noiseStage runs a light gaussian blur ahead of sharpening so the sharpen
kernel amplifies strokes, not sensor grain.
*/
type noiseStage struct {
	sigma float64
}

func (stage noiseStage) Name() string {
	return TransformNoiseReduction
}

func (stage noiseStage) ShouldApply(img *pixel.Image) bool {
	return true
}

func (stage noiseStage) Apply(img *pixel.Image) (*pixel.Image, error) {
	blurred := imaging.Blur(img.ToImage(), stage.sigma)

	return pixel.FromImageAs(blurred, img.Channels), nil
}

/*
sharpenStage convolves with SharpenKernel to crisp up glyph edges for the
OCR stage downstream. Edges are handled with clamp-to-edge addressing and a
uniform image passes through unchanged.
*/
type sharpenStage struct{}

func (sharpenStage) Name() string {
	return TransformSharpening
}

func (sharpenStage) ShouldApply(img *pixel.Image) bool {
	return true
}

func (sharpenStage) Apply(img *pixel.Image) (*pixel.Image, error) {
	return convolve3x3(img, SharpenKernel), nil
}

/*
equalizeStage flattens the intensity distribution via the classic
CDF-remapping, then blends only partway toward the equalized value to keep
the result natural. Images with a single occupied intensity bucket are
returned unchanged: there is no distribution to flatten, and pushing the one
bucket through its CDF would slam every pixel to white.
*/
type equalizeStage struct {
	blend float64
}

func (stage equalizeStage) Name() string {
	return TransformContrastNormalization
}

func (stage equalizeStage) ShouldApply(img *pixel.Image) bool {
	return true
}

func (stage equalizeStage) Apply(img *pixel.Image) (*pixel.Image, error) {
	histogram := pixel.HistogramOf(img)
	if histogram.NonZeroBuckets() <= 1 {
		return img.Clone(), nil
	}

	total := float64(histogram.Total())
	cdf := histogram.CDF()

	var lut [256]uint8
	for v := range lut {
		equalized := math.Round(float64(cdf[v]) * 255.0 / total)
		lut[v] = pixel.ClampU8(float64(v) + math.Round((equalized-float64(v))*stage.blend))
	}

	return mapSamples(img, &lut), nil
}

// mapSamples applies a per-sample lookup table, the workhorse of every
// point operation.
func mapSamples(img *pixel.Image, lut *[256]uint8) *pixel.Image {
	out := img.Clone()
	for i, v := range img.Pix {
		out.Pix[i] = lut[v]
	}

	return out
}

func convolve3x3(img *pixel.Image, kernel [3][3]float64) *pixel.Image {
	out := img.Clone()

	for y := 0; y < img.Height; y += 1 {
		for x := 0; x < img.Width; x += 1 {
			for c := 0; c < img.Channels; c += 1 {
				sum := 0.0
				for ky := -1; ky <= 1; ky += 1 {
					for kx := -1; kx <= 1; kx += 1 {
						sum += kernel[ky+1][kx+1] * float64(img.SampleClamped(x+kx, y+ky, c))
					}
				}

				out.SetSample(x, y, c, pixel.ClampU8(sum))
			}
		}
	}

	return out
}
