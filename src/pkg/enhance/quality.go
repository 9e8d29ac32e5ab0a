package enhance

import (
	"math"

	"receipt-imaging/src/pkg/pixel"
	"receipt-imaging/src/pkg/util"
)

const (
	contrastWeight   = 0.4
	sharpnessWeight  = 0.4
	brightnessWeight = 0.2

	// A standard deviation of 64 intensity levels or more counts as full
	// contrast; a laplacian variance of 10000 or more as full sharpness.
	contrastFullScale  = 64.0
	sharpnessFullScale = 10000.0
)

/*
QualityScore breaks the estimated readability of an image down into its
three ingredients plus the weighted overall value. Every field sits in
[0, 1]; higher is better.
*/
type QualityScore struct {
	Contrast   float64 `json:"contrast"`
	Sharpness  float64 `json:"sharpness"`
	Brightness float64 `json:"brightness"`
	Overall    float64 `json:"overall"`
}

/*
ScoreQuality estimates how legible an image will be for OCR. Contrast is the
intensity standard deviation normalized against contrastFullScale, sharpness
the laplacian variance normalized against sharpnessFullScale, and brightness
the distance of the mean from the 128 midpoint. The overall value weighs
them 0.4 / 0.4 / 0.2.
*/
func ScoreQuality(img *pixel.Image) QualityScore {
	histogram := pixel.HistogramOf(img)

	contrast := math.Min(1, histogram.StdDev()/contrastFullScale)
	sharpness := math.Min(1, laplacianVariance(img)/sharpnessFullScale)
	brightness := math.Max(0, 1-math.Abs(histogram.Mean()-targetMeanIntensity)/targetMeanIntensity)

	overall := contrastWeight*contrast + sharpnessWeight*sharpness + brightnessWeight*brightness

	return QualityScore{
		Contrast:   contrast,
		Sharpness:  sharpness,
		Brightness: brightness,
		Overall:    util.Clamp(overall, 0, 1),
	}
}

/*
laplacianVariance measures edge energy: the population variance of the
LaplacianKernel response over all interior pixels. Border pixels are left
out rather than padded, images too small to have an interior score zero.
*/
func laplacianVariance(img *pixel.Image) float64 {
	gray := img
	if img.Channels != pixel.GrayChannels {
		gray = img.CollapseToGray()
	}

	if gray.Width < 3 || gray.Height < 3 {
		return 0
	}

	count := 0
	sum := 0.0
	sumOfSquares := 0.0

	for y := 1; y < gray.Height-1; y += 1 {
		for x := 1; x < gray.Width-1; x += 1 {
			response := 0.0
			for ky := -1; ky <= 1; ky += 1 {
				for kx := -1; kx <= 1; kx += 1 {
					response += LaplacianKernel[ky+1][kx+1] * float64(gray.Gray(x+kx, y+ky))
				}
			}

			sum += response
			sumOfSquares += response * response
			count += 1
		}
	}

	mean := sum / float64(count)
	variance := sumOfSquares/float64(count) - mean*mean
	if variance < 0 {
		variance = 0
	}

	return variance
}
