package storage

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("S3 key layout", func() {
	It("joins the key prefix in front of the artifact name", func() {
		store := &S3Storage{bucket: "receipts", keyPrefix: "intake/2026"}

		Expect(store.key("run/enhanced.jpg")).To(Equal("intake/2026/run/enhanced.jpg"))
	})

	It("uses the artifact name as the key when there is no prefix", func() {
		store := &S3Storage{bucket: "receipts"}

		Expect(store.key("run/enhanced.jpg")).To(Equal("run/enhanced.jpg"))
	})

	It("refuses construction without a bucket", func() {
		_, err := NewS3Storage("", "intake")

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("contentTypeFor", func() {
	It("maps the artifact extensions the pipeline writes", func() {
		Expect(contentTypeFor("run/enhanced.jpg")).To(Equal("image/jpeg"))
		Expect(contentTypeFor("run/orig.JPEG")).To(Equal("image/jpeg"))
		Expect(contentTypeFor("run/capture-01.png")).To(Equal("image/png"))
		Expect(contentTypeFor("run/orig.pdf")).To(Equal("application/pdf"))
		Expect(contentTypeFor("run/result.json")).To(Equal("application/json"))
		Expect(contentTypeFor("run/text.txt")).To(Equal("text/plain"))
	})

	It("defaults to an octet stream for everything else", func() {
		Expect(contentTypeFor("run/orig.bin")).To(Equal("application/octet-stream"))
		Expect(contentTypeFor("run/noext")).To(Equal("application/octet-stream"))
	})
})
