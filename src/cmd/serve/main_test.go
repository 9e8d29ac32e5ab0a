package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipt-imaging/src/pkg/config"
	"receipt-imaging/src/pkg/fault"
	imageio "receipt-imaging/src/pkg/image-io"
	"receipt-imaging/src/pkg/pipeline"
	"receipt-imaging/src/pkg/pixel"
	"receipt-imaging/src/pkg/storage"
)

func TestServe(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Serve Suite")
}

func capturePNG(width int, height int, value uint8) []byte {
	img, err := pixel.NewFilled(width, height, pixel.GrayChannels, value)
	Expect(err).NotTo(HaveOccurred())

	var buffer bytes.Buffer
	Expect(png.Encode(&buffer, img.ToImage())).To(Succeed())
	return buffer.Bytes()
}

// multipartBody builds a multipart form with one file part per blob, all
// under the same field name.
func multipartBody(field string, names []string, blobs [][]byte) (*bytes.Buffer, string) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for index, blob := range blobs {
		part, err := writer.CreateFormFile(field, names[index])
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(blob)
		Expect(err).NotTo(HaveOccurred())
	}

	Expect(writer.Close()).To(Succeed())
	return &body, writer.FormDataContentType()
}

var _ = Describe("handleHealthz", func() {
	It("responds with a liveness body", func() {
		server := echo.New()
		request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		recorder := httptest.NewRecorder()

		Expect(handleHealthz(server.NewContext(request, recorder))).To(Succeed())
		Expect(recorder.Code).To(Equal(http.StatusOK))

		response := map[string]string{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		Expect(response).To(HaveKeyWithValue("status", "ok"))
	})
})

var _ = Describe("the enhance route", func() {
	var (
		server  *echo.Echo
		options pipeline.Options
		handler echo.HandlerFunc
	)

	post := func(target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodPost, target, body)
		if contentType != "" {
			request.Header.Set(echo.HeaderContentType, contentType)
		}

		recorder := httptest.NewRecorder()
		Expect(handler(server.NewContext(request, recorder))).To(Succeed())
		return recorder
	}

	BeforeEach(func() {
		server = echo.New()

		store, err := storage.NewLocalStorage(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		options = pipeline.Options{JPEGQuality: 92, OverlapPercent: 10, Store: store}
		handler = makeEnhanceHandler(options)
	})

	It("runs an upload through the pipeline and returns the run summary", func() {
		body, contentType := multipartBody("image", []string{"receipt.png"}, [][]byte{capturePNG(64, 48, 220)})

		recorder := post("/v1/enhance", body, contentType)

		Expect(recorder.Code).To(Equal(http.StatusOK))

		artifacts := pipeline.RunArtifacts{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &artifacts)).To(Succeed())
		Expect(artifacts.RunName).NotTo(BeEmpty())
		Expect(artifacts.Result.Success).To(BeTrue())
		Expect(artifacts.EnhancedPath).NotTo(BeEmpty())
	})

	It("returns the enhanced JPEG itself when asked to", func() {
		body, contentType := multipartBody("image", []string{"receipt.png"}, [][]byte{capturePNG(64, 48, 220)})

		recorder := post("/v1/enhance?return=image", body, contentType)

		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(recorder.Header().Get(echo.HeaderContentType)).To(Equal("image/jpeg"))

		enhanced, loadFault := imageio.LoadBytes(recorder.Body.Bytes())
		Expect(loadFault).To(BeNil())
		Expect(enhanced.Width).To(Equal(64))
	})

	It("rejects a request without the image field", func() {
		body, contentType := multipartBody("wrong_field", []string{"receipt.png"}, [][]byte{capturePNG(8, 8, 128)})

		recorder := post("/v1/enhance", body, contentType)

		Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		Expect(recorder.Body.String()).To(ContainSubstring("multipart field 'image' is required"))
	})

	It("classifies an undecodable upload as a bad request", func() {
		body, contentType := multipartBody("image", []string{"receipt.png"}, [][]byte{[]byte("garbage bytes")})

		recorder := post("/v1/enhance", body, contentType)

		Expect(recorder.Code).To(Equal(http.StatusBadRequest))

		response := map[string]string{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		Expect(response).To(HaveKeyWithValue("kind", string(fault.ImageCorrupted)))
	})
})

var _ = Describe("the stitch route", func() {
	var (
		server  *echo.Echo
		handler echo.HandlerFunc
	)

	post := func(target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodPost, target, body)
		request.Header.Set(echo.HeaderContentType, contentType)

		recorder := httptest.NewRecorder()
		Expect(handler(server.NewContext(request, recorder))).To(Succeed())
		return recorder
	}

	BeforeEach(func() {
		server = echo.New()

		store, err := storage.NewLocalStorage(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		handler = makeStitchHandler(pipeline.Options{JPEGQuality: 92, OverlapPercent: 10, Store: store})
	})

	It("stitches ordered captures and reports the composite", func() {
		body, contentType := multipartBody("images",
			[]string{"top.png", "bottom.png"},
			[][]byte{capturePNG(40, 30, 220), capturePNG(40, 30, 210)})

		recorder := post("/v1/stitch", body, contentType)

		Expect(recorder.Code).To(Equal(http.StatusOK))

		artifacts := pipeline.RunArtifacts{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &artifacts)).To(Succeed())
		Expect(artifacts.OriginalPaths).To(HaveLen(2))
		Expect(artifacts.CompositePath).NotTo(BeEmpty())
		Expect(artifacts.Result.Success).To(BeTrue())
	})

	It("rejects an empty file list with the missing-images kind", func() {
		body, contentType := multipartBody("other", []string{"x.png"}, [][]byte{capturePNG(8, 8, 128)})

		recorder := post("/v1/stitch", body, contentType)

		Expect(recorder.Code).To(Equal(http.StatusBadRequest))

		response := map[string]string{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		Expect(response).To(HaveKeyWithValue("kind", string(fault.NoImagesProvided)))
	})

	It("names the capture that failed to decode", func() {
		body, contentType := multipartBody("images",
			[]string{"top.png", "bottom.png"},
			[][]byte{capturePNG(40, 30, 220), []byte("not an image")})

		recorder := post("/v1/stitch", body, contentType)

		Expect(recorder.Code).To(Equal(http.StatusBadRequest))

		response := map[string]string{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		Expect(response).To(HaveKeyWithValue("kind", string(fault.ImageCorrupted)))
		Expect(response["error"]).To(ContainSubstring("capture 2:"))
	})

	It("honors the overlap query parameter", func() {
		body, contentType := multipartBody("images",
			[]string{"top.png", "bottom.png"},
			[][]byte{capturePNG(40, 30, 220), capturePNG(40, 30, 210)})

		recorder := post("/v1/stitch?overlap=0&return=image", body, contentType)

		Expect(recorder.Code).To(Equal(http.StatusOK))

		composite, loadFault := imageio.LoadBytes(recorder.Body.Bytes())
		Expect(loadFault).To(BeNil())
		Expect(composite.Height).To(Equal(60))
	})
})

var _ = Describe("classifyUpload", func() {
	It("passes PDFs through on their magic alone", func() {
		_, _, bad := classifyUpload([]byte("%PDF-1.7 pretend document"))

		Expect(bad).To(BeFalse())
	})

	It("passes decodable images", func() {
		_, _, bad := classifyUpload(capturePNG(8, 8, 128))

		Expect(bad).To(BeFalse())
	})

	It("flags undecodable bytes with their fault kind", func() {
		kind, message, bad := classifyUpload([]byte("garbage"))

		Expect(bad).To(BeTrue())
		Expect(kind).To(Equal(fault.ImageCorrupted))
		Expect(message).NotTo(BeEmpty())
	})
})

var _ = Describe("overlapFromQuery", func() {
	server := echo.New()

	contextFor := func(target string) echo.Context {
		request := httptest.NewRequest(http.MethodPost, target, nil)
		return server.NewContext(request, httptest.NewRecorder())
	}

	It("parses a numeric overlap", func() {
		Expect(overlapFromQuery(contextFor("/v1/stitch?overlap=25"), 10)).To(Equal(25.0))
	})

	It("keeps the fallback when the parameter is absent", func() {
		Expect(overlapFromQuery(contextFor("/v1/stitch"), 10)).To(Equal(10.0))
	})

	It("keeps the fallback when the parameter does not parse", func() {
		Expect(overlapFromQuery(contextFor("/v1/stitch?overlap=lots"), 10)).To(Equal(10.0))
	})
})

var _ = Describe("middlewareConfigFor", func() {
	It("returns nil when the intake has no server block", func() {
		Expect(middlewareConfigFor(nil)).To(BeNil())
	})

	It("copies the server block field by field", func() {
		middlewareConfig := middlewareConfigFor(&config.ServerConfig{
			Address:             "0.0.0.0",
			Port:                9000,
			MiddlewareRateLimit: 5,
			MiddlewareBurst:     20,
			UploadLimitMB:       40,
		})

		Expect(middlewareConfig.Address).To(Equal("0.0.0.0"))
		Expect(middlewareConfig.Port).To(Equal(9000))
		Expect(middlewareConfig.MiddlewareRateLimit).To(Equal(5))
		Expect(middlewareConfig.MiddlewareBurst).To(Equal(20))
		Expect(middlewareConfig.UploadLimitMB).To(Equal(40))
	})
})

var _ = Describe("buildExtractor", func() {
	It("disables extraction for an empty backend", func() {
		extractor, e := buildExtractor("", "", "")

		Expect(e).To(BeNil())
		Expect(extractor).To(BeNil())
	})

	It("rejects unknown backends", func() {
		_, e := buildExtractor("carrier-pigeon", "", "")

		Expect(e).NotTo(BeNil())
	})
})
