package pixel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HistogramOf", func() {
	It("counts gray samples directly", func() {
		img, _ := New(2, 2, GrayChannels)
		img.Pix = []uint8{0, 128, 128, 255}

		histogram := HistogramOf(img)

		Expect(histogram[0]).To(Equal(1))
		Expect(histogram[128]).To(Equal(2))
		Expect(histogram[255]).To(Equal(1))
		Expect(histogram.Total()).To(Equal(4))
	})

	It("buckets color pixels by their luminance", func() {
		img, _ := New(1, 1, RGBChannels)
		img.SetRGB(0, 0, 255, 0, 0)

		histogram := HistogramOf(img)

		Expect(histogram[76]).To(Equal(1))
		Expect(histogram.Total()).To(Equal(1))
	})
})

var _ = Describe("Histogram statistics", func() {
	var histogram Histogram

	BeforeEach(func() {
		img, _ := New(2, 2, GrayChannels)
		img.Pix = []uint8{0, 128, 128, 255}
		histogram = HistogramOf(img)
	})

	It("computes the mean intensity", func() {
		Expect(histogram.Mean()).To(BeNumerically("~", 127.75, 1e-9))
	})

	It("computes the population standard deviation", func() {
		Expect(histogram.StdDev()).To(BeNumerically("~", 90.156, 0.01))
	})

	It("returns zero statistics for an empty histogram", func() {
		empty := Histogram{}

		Expect(empty.Total()).To(Equal(0))
		Expect(empty.Mean()).To(Equal(0.0))
		Expect(empty.StdDev()).To(Equal(0.0))
	})

	It("reports zero spread for a flat image", func() {
		img, _ := NewFilled(4, 4, GrayChannels, 200)
		flat := HistogramOf(img)

		Expect(flat.Mean()).To(Equal(200.0))
		Expect(flat.StdDev()).To(Equal(0.0))
	})
})

var _ = Describe("CoverageWindow", func() {
	It("ignores outlier specks up to the tail fraction", func() {
		histogram := Histogram{}
		histogram[2] = 3
		histogram[100] = 994
		histogram[200] = 3

		low, high := histogram.CoverageWindow(0.005)

		Expect(low).To(Equal(100))
		Expect(high).To(Equal(100))
	})

	It("keeps both ends when they hold more pixels than the tail allows", func() {
		histogram := Histogram{}
		histogram[10] = 200
		histogram[240] = 200

		low, high := histogram.CoverageWindow(0.005)

		Expect(low).To(Equal(10))
		Expect(high).To(Equal(240))
	})

	It("widens as the tail fraction shrinks", func() {
		histogram := Histogram{}
		histogram[0] = 1
		histogram[128] = 98
		histogram[255] = 1

		low, high := histogram.CoverageWindow(0.005)
		Expect(low).To(Equal(0))
		Expect(high).To(Equal(255))

		low, high = histogram.CoverageWindow(0.02)
		Expect(low).To(Equal(128))
		Expect(high).To(Equal(128))
	})
})

var _ = Describe("CDF", func() {
	It("accumulates monotonically up to the total", func() {
		img, _ := New(2, 2, GrayChannels)
		img.Pix = []uint8{0, 128, 128, 255}
		histogram := HistogramOf(img)

		cdf := histogram.CDF()

		Expect(cdf[0]).To(Equal(1))
		Expect(cdf[127]).To(Equal(1))
		Expect(cdf[128]).To(Equal(3))
		Expect(cdf[254]).To(Equal(3))
		Expect(cdf[255]).To(Equal(4))
	})
})

var _ = Describe("NonZeroBuckets", func() {
	It("counts the distinct intensities", func() {
		img, _ := New(2, 2, GrayChannels)
		img.Pix = []uint8{0, 128, 128, 255}

		histogram := HistogramOf(img)

		Expect(histogram.NonZeroBuckets()).To(Equal(3))
	})

	It("sees a single bucket in a flat image", func() {
		img, _ := NewFilled(3, 3, GrayChannels, 42)

		histogram := HistogramOf(img)

		Expect(histogram.NonZeroBuckets()).To(Equal(1))
	})
})
