package pixel

import "math"

/*
Histogram is a 256-bucket intensity histogram. Color images are bucketed by
their Luminance so the same statistics work before and after the grayscale
stage.
*/
type Histogram [256]int

/*
HistogramOf tallies the intensity distribution of img.
*/
func HistogramOf(img *Image) Histogram {
	var h Histogram

	if img.Channels == GrayChannels {
		for _, v := range img.Pix {
			h[v] += 1
		}

		return h
	}

	for i := 0; i < len(img.Pix); i += RGBChannels {
		h[Luminance(img.Pix[i], img.Pix[i+1], img.Pix[i+2])] += 1
	}

	return h
}

func (h *Histogram) Total() int {
	total := 0
	for _, count := range h {
		total += count
	}

	return total
}

/*
Mean returns the average intensity, or 0 for an empty histogram.
*/
func (h *Histogram) Mean() float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}

	sum := 0
	for intensity, count := range h {
		sum += intensity * count
	}

	return float64(sum) / float64(total)
}

/*
StdDev returns the population standard deviation of the intensities.
*/
func (h *Histogram) StdDev() float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}

	sum := 0
	sumOfSquares := 0
	for intensity, count := range h {
		sum += intensity * count
		sumOfSquares += intensity * intensity * count
	}

	mean := float64(sum) / float64(total)
	variance := float64(sumOfSquares)/float64(total) - mean*mean
	if variance < 0 {
		variance = 0
	}

	return math.Sqrt(variance)
}

/*
CoverageWindow returns the tightest intensity range [low, high] that still
covers the bulk of the pixels: at most tailFraction of the total may sit
strictly below low, and at most tailFraction strictly above high. With a
tailFraction of 0.005 the window covers at least 99% of the image, which is
what the contrast estimate wants: a couple of specks of dust must not count
as dynamic range.
*/
func (h *Histogram) CoverageWindow(tailFraction float64) (low int, high int) {
	clip := int(float64(h.Total()) * tailFraction)

	low, high = 0, 255

	consumed := 0
	for low < 255 && consumed+h[low] <= clip {
		consumed += h[low]
		low += 1
	}

	consumed = 0
	for high > low && consumed+h[high] <= clip {
		consumed += h[high]
		high -= 1
	}

	return low, high
}

/*
CDF returns the cumulative distribution, where CDF[i] counts the pixels with
intensity less than or equal to i.
*/
func (h *Histogram) CDF() [256]int {
	var cdf [256]int

	running := 0
	for intensity, count := range h {
		running += count
		cdf[intensity] = running
	}

	return cdf
}

// NonZeroBuckets counts the distinct intensities present in the image.
func (h *Histogram) NonZeroBuckets() int {
	buckets := 0
	for _, count := range h {
		if count > 0 {
			buckets += 1
		}
	}

	return buckets
}
