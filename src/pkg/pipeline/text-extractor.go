package pipeline

/*
Extraction is what a text extraction backend pulled out of an enhanced
image. Confidence is the backend's own estimate, normalized into [0, 1].
*/
type Extraction struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Backend    string  `json:"backend"`
}

/*
TextExtractor turns an enhanced receipt image into text. One implementation
wraps tesseract, another a vision model; the pipeline never cares which one
it was handed.
*/
type TextExtractor interface {
	ExtractText(imageData []byte) (Extraction, error)
}
