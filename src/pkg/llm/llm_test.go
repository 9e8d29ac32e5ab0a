package llm

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLLM(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "LLM Suite")
}

var _ = Describe("ParseModelSnapshot", func() {
	It("splits a dated snapshot off the base model", func() {
		base, snapshot := ParseModelSnapshot("gpt-5-nano-2025-08-07")

		Expect(base).To(Equal("gpt-5-nano"))
		Expect(snapshot).To(Equal("2025-08-07"))
	})

	It("returns the bare model when there is no snapshot", func() {
		base, snapshot := ParseModelSnapshot("gpt-5-nano")

		Expect(base).To(Equal("gpt-5-nano"))
		Expect(snapshot).To(BeEmpty())
	})

	It("does not mistake arbitrary suffixes for snapshots", func() {
		base, snapshot := ParseModelSnapshot("gpt-5-nano-rc1")

		Expect(base).To(Equal("gpt-5-nano-rc1"))
		Expect(snapshot).To(BeEmpty())
	})

	It("trims surrounding whitespace", func() {
		base, _ := ParseModelSnapshot("  gpt-5-mini  ")

		Expect(base).To(Equal("gpt-5-mini"))
	})
})

var _ = Describe("NewExtractor", func() {
	It("falls back to the default model", func() {
		Expect(NewExtractor("").model).To(Equal(DefaultModel))
		Expect(NewExtractor("gpt-5-nano").model).To(Equal("gpt-5-nano"))
	})
})

var _ = Describe("StrictObject", func() {
	It("requires every property and forbids extras", func() {
		schema := StrictObject(map[string]any{
			"text":       map[string]any{"type": "string"},
			"confidence": map[string]any{"type": "number"},
		})

		Expect(schema["type"]).To(Equal("object"))
		Expect(schema["required"]).To(Equal([]string{"confidence", "text"}))
		Expect(schema["additionalProperties"]).To(Equal(false))
	})
})

var _ = Describe("TextAsJSONSchema", func() {
	It("builds a strict json_schema text format", func() {
		options := TextAsJSONSchema("receipt_transcription", map[string]any{"type": "object"}, true)

		Expect(options.Format.Type).To(Equal(TextFormatTypeJSONSchema))
		Expect(options.Format.Name).To(Equal("receipt_transcription"))
		Expect(options.Format.Strict).NotTo(BeNil())
		Expect(*options.Format.Strict).To(BeTrue())
	})
})

var _ = Describe("buildTranscriptionPayload", func() {
	var payload requestPayload

	BeforeEach(func() {
		payload = buildTranscriptionPayload("gpt-5-mini", []byte("fake image bytes"))
	})

	It("asks the configured model for a bounded structured answer", func() {
		Expect(payload.Model).To(Equal("gpt-5-mini"))
		Expect(payload.Instructions).To(ContainSubstring("transcribe"))
		Expect(payload.MaxOutputTokens).NotTo(BeNil())
		Expect(*payload.MaxOutputTokens).To(Equal(maxTranscriptionTokens))
		Expect(payload.Temperature).NotTo(BeNil())
		Expect(payload.Reasoning).NotTo(BeNil())
	})

	It("sends one user message with a text part and an image part", func() {
		Expect(payload.Input).To(HaveLen(1))
		Expect(payload.Input[0].Role).To(Equal(RoleUser))

		content, ok := payload.Input[0].Content.([]map[string]any)
		Expect(ok).To(BeTrue())
		Expect(content).To(HaveLen(2))
		Expect(content[0]).To(HaveKeyWithValue("type", "input_text"))
		Expect(content[1]).To(HaveKeyWithValue("type", "input_image"))
		Expect(content[1]).To(HaveKey("image_url"))
	})

	It("demands the transcription schema by name", func() {
		Expect(payload.Text).NotTo(BeNil())
		Expect(payload.Text.Format.Type).To(Equal(TextFormatTypeJSONSchema))
		Expect(payload.Text.Format.Name).To(Equal("receipt_transcription"))
		Expect(payload.Text.Format.Schema).To(HaveKey("properties"))
	})
})

var _ = Describe("buildImageDataURL", func() {
	It("uses the sniffed mime type for real images", func() {
		pngMagic := []byte("\x89PNG\r\n\x1a\n0000000000000000")

		url := buildImageDataURL(pngMagic)

		Expect(url).To(HavePrefix("data:image/png;base64,"))

		decoded, decodeErr := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
		Expect(decodeErr).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(pngMagic))
	})

	It("falls back to jpeg for unrecognizable bytes", func() {
		Expect(buildImageDataURL([]byte("not an image"))).To(HavePrefix("data:image/jpeg;base64,"))
	})
})

var _ = Describe("extractOutputText", func() {
	It("concatenates the output_text fragments of message items", func() {
		response := responseObject{Output: []outputItem{
			{Type: "reasoning"},
			{Type: "message", Content: []contentItem{
				{Type: "output_text", Text: `{"text":"TOTAL`},
				{Type: "refusal", Text: "ignored"},
				{Type: "output_text", Text: ` 12.30"}`},
			}},
		}}

		Expect(extractOutputText(&response)).To(Equal(`{"text":"TOTAL 12.30"}`))
	})

	It("returns empty for a response without messages", func() {
		response := responseObject{Output: []outputItem{{Type: "reasoning"}}}

		Expect(extractOutputText(&response)).To(BeEmpty())
	})
})

var _ = Describe("readBody", func() {
	newResponse := func(body []byte, encoding string) *http.Response {
		header := http.Header{}
		if encoding != "" {
			header.Set("Content-Encoding", encoding)
		}

		return &http.Response{Header: header, Body: io.NopCloser(bytes.NewReader(body))}
	}

	It("reads a plain body as is", func() {
		body, e := readBody(newResponse([]byte(`{"status":"completed"}`), ""), "test")

		Expect(e).To(BeNil())
		Expect(string(body)).To(Equal(`{"status":"completed"}`))
	})

	It("transparently decompresses gzip", func() {
		var compressed bytes.Buffer
		writer := gzip.NewWriter(&compressed)
		_, _ = writer.Write([]byte("gzipped payload"))
		Expect(writer.Close()).To(Succeed())

		body, e := readBody(newResponse(compressed.Bytes(), "gzip"), "test")

		Expect(e).To(BeNil())
		Expect(string(body)).To(Equal("gzipped payload"))
	})

	It("transparently decompresses brotli", func() {
		var compressed bytes.Buffer
		writer := brotli.NewWriter(&compressed)
		_, _ = writer.Write([]byte("brotli payload"))
		Expect(writer.Close()).To(Succeed())

		body, e := readBody(newResponse(compressed.Bytes(), "br"), "test")

		Expect(e).To(BeNil())
		Expect(string(body)).To(Equal("brotli payload"))
	})

	It("faults on a gzip body that is not gzip", func() {
		_, e := readBody(newResponse([]byte("definitely not gzip"), "gzip"), "test")

		Expect(e).NotTo(BeNil())
	})
})

var _ = Describe("ExtractText", func() {
	It("refuses to run without an API key", func() {
		GinkgoT().Setenv(EnvOpenAIAPIKey, "")

		_, err := NewExtractor("").ExtractText([]byte("image"))

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring(EnvOpenAIAPIKey))
	})
})
