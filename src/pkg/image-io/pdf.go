package imageio

import (
	"fmt"

	fitz "github.com/gen2brain/go-fitz"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-imaging/src/pkg/fault"
	"receipt-imaging/src/pkg/pixel"
)

// IsPDF sniffs the %PDF- magic at the start of the data.
func IsPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

/*
RenderPDF rasterizes every page of a PDF receipt, in page order. Email
receipts and scanner exports arrive as PDFs; each page renders to one image
that slots straight into the enhancement pipeline, or into the stitcher when
the receipt spans several pages. A document that cannot be opened, has no
pages, or fails to render is an ImageCorrupted fault.
*/
func RenderPDF(data []byte) (pages []*pixel.Image, e *fault.Fault) {
	document, openErr := fitz.NewFromMemory(data)
	if openErr != nil {
		e = fault.New(fault.ImageCorrupted, openErr, "open PDF document", fmt.Sprintf("%d bytes", len(data)))
		return nil, e
	}
	defer func() {
		_ = document.Close()
	}()

	pageCount := document.NumPage()
	if pageCount == 0 {
		e = fault.New(fault.ImageCorrupted, fmt.Errorf("document has no pages"), "render PDF document", nil)
		return nil, e
	}

	pages = make([]*pixel.Image, 0, pageCount)
	for pageNumber := 0; pageNumber < pageCount; pageNumber += 1 {
		rendered, renderErr := document.Image(pageNumber)
		if renderErr != nil {
			e = fault.New(fault.ImageCorrupted, renderErr, "render PDF page", pageNumber)
			return nil, e
		}

		pages = append(pages, pixel.FromImage(rendered))
	}

	tl.Log(tl.Verbose, palette.Cyan, "%s '%d' PDF pages", "Rendered", len(pages))

	return pages, nil
}
