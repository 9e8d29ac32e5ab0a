package llm

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-imaging/src/pkg/fault"
	"receipt-imaging/src/pkg/pipeline"
	"receipt-imaging/src/pkg/util"
)

// BackendName identifies extractions produced by this package.
const BackendName = "llm"

// EnvOpenAIAPIKey is the environment variable the transcriber authorizes
// with. Binaries that enable this backend check for it at startup.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

const (
	DefaultModel = "gpt-5-mini"

	maxTranscriptionTokens = 8192
)

const transcriptionInstructions = `You transcribe retail receipts. You are given one photograph or scan of a
single receipt. Transcribe every printed character exactly as it appears,
line by line, top to bottom. Preserve column alignment with spaces. Do not
translate, do not summarize, do not correct apparent typos. Report your
overall confidence in the transcription as a number between 0 and 1.`

type transcriptionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

/*
Extractor transcribes enhanced receipt images through a vision model on the
Responses API. It trades tesseract's speed for robustness on crumpled,
skewed or faded receipts.
*/
type Extractor struct {
	model string
}

// NewExtractor builds a model-backed extractor; empty model means
// DefaultModel.
func NewExtractor(model string) *Extractor {
	if model == "" {
		model = DefaultModel
	}

	return &Extractor{model: model}
}

/*
ExtractText sends the image to the model as a data URL and parses the
structured transcription it returns.
*/
func (extractor *Extractor) ExtractText(imageData []byte) (extraction pipeline.Extraction, err error) {
	apiKey := os.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		return extraction, fault.New(fault.ProcessingFailure, fmt.Errorf("environment variable '%s' is empty", EnvOpenAIAPIKey),
			"authorize against the responses API", EnvOpenAIAPIKey)
	}

	tl.Log(tl.Info1, palette.Cyan, "%s '%d' bytes of image to model '%s'", "Transcribing", len(imageData), extractor.model)

	startedAt := time.Now()

	response, callFault := createResponse(apiKey, buildTranscriptionPayload(extractor.model, imageData))
	if callFault != nil {
		return extraction, fault.New(fault.ProcessingFailure, callFault.Err, callFault.Msg, callFault.Context)
	}

	logTokenUsage(&response, time.Since(startedAt))

	outputText := extractOutputText(&response)
	if outputText == "" {
		return extraction, fault.New(fault.ProcessingFailure, fmt.Errorf("response carried no output_text"),
			"read transcription from model response", response.ID)
	}

	transcription := transcriptionResult{}
	if unmarshalErr := json.Unmarshal([]byte(outputText), &transcription); unmarshalErr != nil {
		return extraction, fault.New(fault.ProcessingFailure, unmarshalErr, "unable to json.Unmarshal the transcription", outputText)
	}

	tl.Log(tl.Info1, palette.Green, "%s with '%d' characters at confidence '%.2f'",
		"Transcription completed", len(transcription.Text), transcription.Confidence)

	extraction = pipeline.Extraction{
		Text:       transcription.Text,
		Confidence: util.Clamp(transcription.Confidence, 0, 1),
		Backend:    BackendName,
	}

	return extraction, nil
}

func buildTranscriptionPayload(model string, imageData []byte) requestPayload {
	schema := StrictObject(map[string]any{
		"text": map[string]any{
			"type":        "string",
			"description": "The verbatim receipt text, line by line.",
		},
		"confidence": map[string]any{
			"type":        "number",
			"description": "Overall transcription confidence between 0 and 1.",
		},
	})

	textOptions := TextAsJSONSchema("receipt_transcription", schema, true)

	userContent := []map[string]any{
		{
			"type": "input_text",
			"text": "Transcribe this receipt.",
		},
		{
			"type":      "input_image",
			"image_url": buildImageDataURL(imageData),
		},
	}

	return requestPayload{
		Model:           model,
		Instructions:    transcriptionInstructions,
		MaxOutputTokens: util.Ptr(maxTranscriptionTokens),
		Input: []InputItem{
			{Role: RoleUser, Content: userContent},
		},
		Reasoning:   &Reasoning{Effort: util.Ptr(EffortMinimal)},
		Temperature: util.Ptr(1.0),
		Text:        &textOptions,
	}
}

/*
buildImageDataURL inlines the image bytes as a base64 data URL, the shape
the Responses API takes images in without a separate upload round trip.
*/
func buildImageDataURL(imageData []byte) string {
	mimeType := http.DetectContentType(imageData)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}

	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
}
