package imageio

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-imaging/src/pkg/fault"
	"receipt-imaging/src/pkg/pixel"
)

/*
Load reads and decodes one source image. A path that cannot be read comes
back as FileNotFound; bytes that cannot be decoded as ImageCorrupted.
*/
func Load(path string) (img *pixel.Image, e *fault.Fault) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		e = fault.New(fault.FileNotFound, readErr, "read source image", path)
		return nil, e
	}

	return LoadBytes(data)
}

/*
LoadBytes decodes image bytes into an owned pixel grid. JPEG, PNG, GIF, TIFF
and BMP go through the imaging decoder; HEIC containers are sniffed by their
ftyp brand and routed to the heif decoder, since phones love handing those
over. Anything that fails to decode, or decodes to zero-sized dimensions, is
an ImageCorrupted fault.
*/
func LoadBytes(data []byte) (img *pixel.Image, e *fault.Fault) {
	if len(data) == 0 {
		e = fault.New(fault.ImageCorrupted, fmt.Errorf("no bytes to decode"), "decode image bytes", nil)
		return nil, e
	}

	var decoded image.Image
	var decodeErr error

	if isHEIC(data) {
		tl.Log(tl.Verbose, palette.CyanDim, "%s container detected, %s", "HEIC", "using the heif decoder")
		decoded, decodeErr = heic.Decode(bytes.NewReader(data))
	} else {
		decoded, decodeErr = imaging.Decode(bytes.NewReader(data))
	}

	if decodeErr != nil {
		e = fault.New(fault.ImageCorrupted, decodeErr, "decode image bytes", fmt.Sprintf("%d bytes", len(data)))
		return nil, e
	}

	bounds := decoded.Bounds()
	if bounds.Dx() < 1 || bounds.Dy() < 1 {
		e = fault.New(fault.ImageCorrupted,
			fmt.Errorf("decoded to zero-sized dimensions %dx%d", bounds.Dx(), bounds.Dy()),
			"decode image bytes", fmt.Sprintf("%d bytes", len(data)))
		return nil, e
	}

	return pixel.FromImage(decoded), nil
}

// isHEIC sniffs the ISO-BMFF ftyp box for the HEIF brand family.
func isHEIC(data []byte) bool {
	if len(data) < 12 {
		return false
	}

	if string(data[4:8]) != "ftyp" {
		return false
	}

	switch string(data[8:12]) {
	case "heic", "heif", "heix", "mif1", "msf1":
		return true
	}

	return false
}
