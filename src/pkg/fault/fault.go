package fault

import (
	"errors"
	"fmt"
)

/*
Kind classifies a pipeline failure so callers can branch on the class of
problem without parsing message strings. The zero value is not a valid kind.
*/
type Kind string

const (
	// FileNotFound marks a source image that could not be located or read.
	FileNotFound Kind = "file_not_found"

	// ImageCorrupted marks bytes that could not be decoded into a valid
	// pixel grid, or a decoded image with zero-sized dimensions.
	ImageCorrupted Kind = "image_corrupted"

	// NoImagesProvided marks a stitch request that arrived with an empty
	// capture list.
	NoImagesProvided Kind = "no_images_provided"

	// ProcessingFailure marks an unexpected failure inside a processing
	// step. It is also the fallback kind for errors that carry no Fault.
	ProcessingFailure Kind = "processing_failure"
)

/*
Fault is the error type returned by the imaging packages. It pairs a Kind
with the action that was being performed and the subject it was performed
on, mirroring how the rest of the codebase reports errors.
*/
type Fault struct {
	Kind    Kind
	Action  string
	Subject any
	Err     error
}

/*
New builds a Fault of the given kind. The action describes what was being
attempted ("decode image bytes") and the subject identifies what it was
attempted on (a path, an index, a dimension pair).
*/
func New(kind Kind, err error, action string, subject any) *Fault {
	return &Fault{Kind: kind, Action: action, Subject: subject, Err: err}
}

func (f *Fault) Error() string {
	if f.Subject == nil {
		return fmt.Sprintf("%s: failed to %s: %v", f.Kind, f.Action, f.Err)
	}

	return fmt.Sprintf("%s: failed to %s '%v': %v", f.Kind, f.Action, f.Subject, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

/*
KindOf extracts the Kind carried anywhere in err's chain. Errors that carry
no Fault are reported as ProcessingFailure, so callers always get a usable
classification.
*/
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}

	return ProcessingFailure
}

/*
IsKind reports whether err carries the given Kind.
*/
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}

	return KindOf(err) == kind
}
