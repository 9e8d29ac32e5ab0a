package enhance

import (
	"receipt-imaging/src/pkg/fault"
	"receipt-imaging/src/pkg/pixel"
)

/*
ProcessingResult is the full record of one enhancement run. A run that made
it past input validation always produces a result: either Success with the
enhanced image and its quality score, or a captured failure with the error
kind and message filled in and no image. The struct marshals straight into
the result.json artifact.
*/
type ProcessingResult struct {
	Success                bool           `json:"success"`
	Image                  *pixel.Image   `json:"-"`
	QualityScore           float64        `json:"quality_score"`
	ErrorKind              fault.Kind     `json:"error_kind,omitempty"`
	ErrorMessage           string         `json:"error_message,omitempty"`
	AppliedTransformations []string       `json:"applied_transformations"`
	ProcessingTimeMs       int64          `json:"processing_time_ms"`
	Metadata               map[string]any `json:"metadata"`
}
