package enhance

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipt-imaging/src/pkg/pixel"
)

var _ = Describe("resizeStage", func() {
	stage := resizeStage{maxWidth: 50, maxHeight: 50}

	It("only applies to images larger than the bounds", func() {
		small, _ := pixel.New(50, 20, pixel.GrayChannels)
		large, _ := pixel.New(100, 40, pixel.GrayChannels)

		Expect(stage.ShouldApply(small)).To(BeFalse())
		Expect(stage.ShouldApply(large)).To(BeTrue())
	})

	It("scales down preserving the aspect ratio", func() {
		img, _ := pixel.NewFilled(100, 40, pixel.GrayChannels, 128)

		resized, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(resized.Width).To(Equal(50))
		Expect(resized.Height).To(Equal(20))
	})

	It("keeps the channel count of the input", func() {
		gray, _ := pixel.NewFilled(100, 40, pixel.GrayChannels, 128)
		rgb, _ := pixel.New(100, 40, pixel.RGBChannels)

		resizedGray, _ := stage.Apply(gray)
		resizedRGB, _ := stage.Apply(rgb)

		Expect(resizedGray.Channels).To(Equal(pixel.GrayChannels))
		Expect(resizedRGB.Channels).To(Equal(pixel.RGBChannels))
	})

	It("is named after the resize transformation", func() {
		Expect(stage.Name()).To(Equal(TransformResize))
	})
})

var _ = Describe("grayscaleStage", func() {
	stage := grayscaleStage{}

	It("collapses RGB pixels to their luminance", func() {
		img, _ := pixel.New(1, 1, pixel.RGBChannels)
		img.SetRGB(0, 0, 255, 0, 0)

		gray, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(gray.Channels).To(Equal(pixel.GrayChannels))
		Expect(gray.Gray(0, 0)).To(Equal(uint8(76)))
	})

	It("copies an input that is already gray", func() {
		img, _ := pixel.NewFilled(2, 2, pixel.GrayChannels, 97)

		gray, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(gray).NotTo(BeIdenticalTo(img))
		Expect(gray.Pix).To(Equal(img.Pix))
	})
})

var _ = Describe("brightnessStage", func() {
	stage := brightnessStage{}

	It("leaves a midpoint-centered flat image alone", func() {
		img, _ := pixel.NewFilled(4, 4, pixel.GrayChannels, 128)

		out, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Pix).To(Equal(img.Pix))
	})

	It("lifts and stretches a dark flat image", func() {
		img, _ := pixel.NewFilled(4, 4, pixel.GrayChannels, 50)

		out, err := stage.Apply(img)

		// delta is +39, the zero-width window earns the full boost, and
		// (50-128)*2.5 + 128 + 39 lands below zero.
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Gray(0, 0)).To(Equal(uint8(0)))
	})

	It("stretches a narrow two-level image toward the extremes", func() {
		img, _ := pixel.New(2, 2, pixel.GrayChannels)
		img.Pix = []uint8{100, 100, 200, 200}

		out, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Pix[0]).To(Equal(uint8(47)))
		Expect(out.Pix[2]).To(Equal(uint8(255)))
	})
})

var _ = Describe("noiseStage", func() {
	stage := noiseStage{sigma: DefaultNoiseSigma}

	It("keeps a flat image flat", func() {
		img, _ := pixel.NewFilled(8, 8, pixel.GrayChannels, 180)

		out, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Width).To(Equal(8))
		Expect(out.Height).To(Equal(8))
		Expect(out.Channels).To(Equal(pixel.GrayChannels))
		Expect(out.Gray(4, 4)).To(BeNumerically("~", 180, 1))
	})

	It("softens an isolated bright pixel", func() {
		img, _ := pixel.NewFilled(9, 9, pixel.GrayChannels, 0)
		img.SetGray(4, 4, 255)

		out, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Gray(4, 4)).To(BeNumerically("<", 255))
		Expect(out.Gray(3, 4)).To(BeNumerically(">", 0))
	})
})

var _ = Describe("sharpenStage", func() {
	stage := sharpenStage{}

	It("passes a flat image through unchanged", func() {
		img, _ := pixel.NewFilled(5, 5, pixel.GrayChannels, 80)

		out, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Pix).To(Equal(img.Pix))
	})

	It("amplifies a bright spot against its surround", func() {
		img, _ := pixel.NewFilled(3, 3, pixel.GrayChannels, 50)
		img.SetGray(1, 1, 100)

		out, err := stage.Apply(img)

		// 5*100 - 4*50 saturates the center; the corners only ever see
		// clamped copies of themselves and stay put.
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Gray(1, 1)).To(Equal(uint8(255)))
		Expect(out.Gray(0, 0)).To(Equal(uint8(50)))
	})
})

var _ = Describe("equalizeStage", func() {
	stage := equalizeStage{blend: DefaultEqualizationBlend}

	It("returns a single-intensity image unchanged", func() {
		img, _ := pixel.NewFilled(4, 4, pixel.GrayChannels, 66)

		out, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Pix).To(Equal(img.Pix))
	})

	It("moves each level partway toward its equalized value", func() {
		img, _ := pixel.New(2, 1, pixel.GrayChannels)
		img.Pix = []uint8{100, 200}

		out, err := stage.Apply(img)

		// cdf maps 100 -> 128 and 200 -> 255; a 0.7 blend lands at
		// 100 + round(28*0.7) and 200 + round(55*0.7).
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Pix[0]).To(Equal(uint8(120)))
		Expect(out.Pix[1]).To(Equal(uint8(239)))
	})

	It("never writes into the input buffer", func() {
		img, _ := pixel.New(2, 1, pixel.GrayChannels)
		img.Pix = []uint8{100, 200}

		_, err := stage.Apply(img)

		Expect(err).NotTo(HaveOccurred())
		Expect(img.Pix).To(Equal([]uint8{100, 200}))
	})
})
