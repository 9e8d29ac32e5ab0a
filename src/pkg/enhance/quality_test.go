package enhance

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipt-imaging/src/pkg/pixel"
)

var _ = Describe("ScoreQuality", func() {
	It("scores a flat midpoint image on brightness alone", func() {
		img, _ := pixel.NewFilled(8, 8, pixel.GrayChannels, 128)

		score := ScoreQuality(img)

		Expect(score.Contrast).To(Equal(0.0))
		Expect(score.Sharpness).To(Equal(0.0))
		Expect(score.Brightness).To(Equal(1.0))
		Expect(score.Overall).To(BeNumerically("~", 0.2, 1e-9))
	})

	It("punishes a blown-out white image", func() {
		img, _ := pixel.NewFilled(8, 8, pixel.GrayChannels, 255)

		score := ScoreQuality(img)

		Expect(score.Contrast).To(Equal(0.0))
		Expect(score.Sharpness).To(Equal(0.0))
		Expect(score.Brightness).To(BeNumerically("~", 1.0-127.0/128.0, 1e-9))
		Expect(score.Overall).To(BeNumerically("<", 0.01))
	})

	It("saturates contrast and sharpness on a checkerboard", func() {
		img, _ := pixel.New(16, 16, pixel.GrayChannels)
		for y := 0; y < 16; y += 1 {
			for x := 0; x < 16; x += 1 {
				if (x+y)%2 == 0 {
					img.SetGray(x, y, 255)
				}
			}
		}

		score := ScoreQuality(img)

		Expect(score.Contrast).To(Equal(1.0))
		Expect(score.Sharpness).To(Equal(1.0))
		Expect(score.Brightness).To(BeNumerically("~", 1.0-0.5/128.0, 1e-9))
		Expect(score.Overall).To(BeNumerically("~", 0.9992, 0.0002))
	})

	It("keeps every component inside the unit interval", func() {
		img, _ := pixel.New(4, 4, pixel.GrayChannels)
		img.Pix = []uint8{
			0, 255, 0, 255,
			255, 0, 255, 0,
			10, 20, 200, 220,
			5, 250, 30, 180,
		}

		score := ScoreQuality(img)

		Expect(score.Contrast).To(BeNumerically(">=", 0))
		Expect(score.Contrast).To(BeNumerically("<=", 1))
		Expect(score.Sharpness).To(BeNumerically(">=", 0))
		Expect(score.Sharpness).To(BeNumerically("<=", 1))
		Expect(score.Brightness).To(BeNumerically(">=", 0))
		Expect(score.Brightness).To(BeNumerically("<=", 1))
		Expect(score.Overall).To(BeNumerically(">=", 0))
		Expect(score.Overall).To(BeNumerically("<=", 1))
	})
})

var _ = Describe("laplacianVariance", func() {
	It("is zero for images without an interior", func() {
		img, _ := pixel.New(2, 10, pixel.GrayChannels)

		Expect(laplacianVariance(img)).To(Equal(0.0))
	})

	It("is zero for flat images", func() {
		img, _ := pixel.NewFilled(10, 10, pixel.GrayChannels, 90)

		Expect(laplacianVariance(img)).To(Equal(0.0))
	})

	It("grows with edge energy", func() {
		soft, _ := pixel.New(8, 8, pixel.GrayChannels)
		hard, _ := pixel.New(8, 8, pixel.GrayChannels)
		for y := 0; y < 8; y += 1 {
			for x := 0; x < 8; x += 1 {
				soft.SetGray(x, y, uint8(x*16))
				if x >= 4 {
					hard.SetGray(x, y, 255)
				}
			}
		}

		Expect(laplacianVariance(hard)).To(BeNumerically(">", laplacianVariance(soft)))
	})

	It("collapses color images before measuring", func() {
		rgb, _ := pixel.New(8, 8, pixel.RGBChannels)
		for y := 0; y < 8; y += 1 {
			for x := 4; x < 8; x += 1 {
				rgb.SetRGB(x, y, 255, 255, 255)
			}
		}
		gray := rgb.CollapseToGray()

		Expect(laplacianVariance(rgb)).To(Equal(laplacianVariance(gray)))
	})
})
