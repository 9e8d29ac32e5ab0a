package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-imaging/src/pkg/fault"
	"receipt-imaging/src/pkg/pipeline"
	"receipt-imaging/src/pkg/util"
)

// BackendName identifies extractions produced by this package.
const BackendName = "tesseract"

/*
Extractor runs tesseract over enhanced receipt images. A fresh gosseract
client is created per call; the binding's client is not safe to share.
*/
type Extractor struct {
	language string
}

/*
NewExtractor builds a tesseract-backed extractor. The language uses
tesseract notation, combined packs like "eng+deu" included; empty means
"eng".
*/
func NewExtractor(language string) *Extractor {
	if language == "" {
		language = "eng"
	}

	return &Extractor{language: language}
}

/*
ExtractText recognizes the text in an enhanced receipt image and reports
tesseract's mean word confidence alongside it. The client is configured the
way the CLI would be invoked on a receipt: a single uniform block of text
(`--psm 6`) with interword spaces preserved, because receipt columns are
space-aligned.
*/
func (extractor *Extractor) ExtractText(imageData []byte) (extraction pipeline.Extraction, err error) {
	tl.Log(tl.Info1, palette.Cyan, "%s OCR over '%d' bytes of image", "Running", len(imageData))

	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	if setErr := client.SetLanguage(extractor.language); setErr != nil {
		return extraction, fault.New(fault.ProcessingFailure, setErr, "unable to client.SetLanguage", extractor.language)
	}

	if setErr := client.SetVariable("preserve_interword_spaces", "1"); setErr != nil {
		return extraction, fault.New(fault.ProcessingFailure, setErr, "unable to client.SetVariable(\"preserve_interword_spaces\", \"1\")", extractor.language)
	}

	if setErr := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); setErr != nil {
		return extraction, fault.New(fault.ProcessingFailure, setErr, "unable to client.SetPageSegMode(PSM_SINGLE_BLOCK)", extractor.language)
	}

	if setErr := client.SetImageFromBytes(imageData); setErr != nil {
		return extraction, fault.New(fault.ProcessingFailure, setErr, "unable to client.SetImageFromBytes", fmt.Sprintf("%d bytes", len(imageData)))
	}

	text, ocrErr := client.Text()
	if ocrErr != nil {
		return extraction, fault.New(fault.ProcessingFailure, ocrErr, "unable to run OCR on image", fmt.Sprintf("%d bytes", len(imageData)))
	}

	confidence := meanWordConfidence(client)

	tl.Log(tl.Info1, palette.Green, "%s with '%d' characters at mean word confidence '%.2f'",
		"OCR completed", len(text), confidence)

	extraction = pipeline.Extraction{Text: text, Confidence: confidence, Backend: BackendName}

	return extraction, nil
}

/*
meanWordConfidence averages tesseract's per-word confidences, normalized
into [0, 1]. A failure to read the boxes degrades to zero confidence rather
than failing the extraction, the text is already in hand at that point.
*/
func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, boxErr := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if boxErr != nil || len(boxes) == 0 {
		return 0
	}

	sum := 0.0
	for _, box := range boxes {
		sum += box.Confidence
	}

	return util.Clamp(sum/float64(len(boxes))/100.0, 0, 1)
}
