package enhance

const (
	// DefaultMaxImageWidth and DefaultMaxImageHeight bound the working
	// resolution. Larger inputs are scaled down before any other stage
	// runs so the rest of the pipeline pays for at most this many pixels.
	DefaultMaxImageWidth  = 2000
	DefaultMaxImageHeight = 2000

	// DefaultNoiseSigma is the gaussian sigma of the denoise pass that
	// runs right before sharpening. Roughly a one pixel radius: enough to
	// keep sensor grain from being amplified, not enough to eat glyph
	// edges.
	DefaultNoiseSigma = 0.5

	// DefaultEqualizationBlend is how far the final equalization stage
	// moves each pixel toward its fully equalized value. Full histogram
	// equalization looks brutal on receipts, 70% keeps the paper looking
	// like paper.
	DefaultEqualizationBlend = 0.7

	// histogramTailFraction is the per-tail share of pixels the contrast
	// window may ignore as outliers.
	histogramTailFraction = 0.005
)

/*
SharpenKernel is the 3x3 convolution applied by the sharpening stage. Its
weights sum to one, so flat regions pass through unchanged.
*/
var SharpenKernel = [3][3]float64{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
}

/*
LaplacianKernel is the 3x3 edge detector behind the sharpness score. Its
weights sum to zero, so flat regions respond with zero.
*/
var LaplacianKernel = [3][3]float64{
	{0, -1, 0},
	{-1, 4, -1},
	{0, -1, 0},
}

/*
Options tunes the enhancement pipeline. The zero value of any field falls
back to the matching default, so Options{} behaves like DefaultOptions().
*/
type Options struct {
	MaxImageWidth     int
	MaxImageHeight    int
	NoiseSigma        float64
	EqualizationBlend float64
}

func DefaultOptions() Options {
	return Options{
		MaxImageWidth:     DefaultMaxImageWidth,
		MaxImageHeight:    DefaultMaxImageHeight,
		NoiseSigma:        DefaultNoiseSigma,
		EqualizationBlend: DefaultEqualizationBlend,
	}
}

func (options Options) withDefaults() Options {
	if options.MaxImageWidth <= 0 {
		options.MaxImageWidth = DefaultMaxImageWidth
	}

	if options.MaxImageHeight <= 0 {
		options.MaxImageHeight = DefaultMaxImageHeight
	}

	if options.NoiseSigma <= 0 {
		options.NoiseSigma = DefaultNoiseSigma
	}

	if options.EqualizationBlend <= 0 {
		options.EqualizationBlend = DefaultEqualizationBlend
	}

	return options
}
