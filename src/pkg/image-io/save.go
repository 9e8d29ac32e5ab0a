package imageio

import (
	"bytes"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-imaging/src/pkg/fault"
	"receipt-imaging/src/pkg/pixel"
)

// DefaultJPEGQuality is used whenever a caller passes a quality outside
// [1, 100]. 92 keeps fine print readable without bloating the artifact.
const DefaultJPEGQuality = 92

/*
EncodeJPEG renders the image into an in-memory JPEG. Single-channel images
are encoded from their grayscale form directly.
*/
func EncodeJPEG(img *pixel.Image, quality int) (data []byte, e *fault.Fault) {
	if validationErr := img.Validate(); validationErr != nil {
		e = fault.New(fault.ImageCorrupted, validationErr, "encode image to JPEG", nil)
		return nil, e
	}

	var buffer bytes.Buffer
	encodeErr := imaging.Encode(&buffer, img.ToImage(), imaging.JPEG, imaging.JPEGQuality(normalizeQuality(quality)))
	if encodeErr != nil {
		e = fault.New(fault.ProcessingFailure, encodeErr, "encode image to JPEG",
			fmt.Sprintf("%dx%d", img.Width, img.Height))
		return nil, e
	}

	return buffer.Bytes(), nil
}

/*
SaveJPEG encodes the image and writes it to path in one shot, so there is
never a half-written file handle left dangling on an error path.
*/
func SaveJPEG(img *pixel.Image, path string, quality int) (e *fault.Fault) {
	data, encodeFault := EncodeJPEG(img, quality)
	if encodeFault != nil {
		return encodeFault
	}

	if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
		return fault.New(fault.ProcessingFailure, writeErr, "write JPEG file", path)
	}

	tl.Log(tl.Verbose, palette.GreenDim, "%s '%s' ('%d' bytes)", "Wrote", path, len(data))

	return nil
}

func normalizeQuality(quality int) int {
	if quality < 1 || quality > 100 {
		return DefaultJPEGQuality
	}

	return quality
}
