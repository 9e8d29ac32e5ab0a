package pipeline

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-imaging/src/pkg/enhance"
	"receipt-imaging/src/pkg/fault"
	imageio "receipt-imaging/src/pkg/image-io"
	"receipt-imaging/src/pkg/pixel"
	"receipt-imaging/src/pkg/stitch"
	"receipt-imaging/src/pkg/storage"
)

// Run names sort chronologically in storage listings. The millisecond
// suffix keeps concurrent intake runs from landing in the same directory.
const runNameLayout = "2006-01-02_15-04-05.000"

/*
Options wires one pipeline run together: the enhancement tuning, the output
encoding quality, the stitch overlap, where artifacts go and, optionally,
which text extraction backend to run over the enhanced image.
*/
type Options struct {
	Enhance        enhance.Options
	JPEGQuality    int
	OverlapPercent float64
	Store          storage.Storage
	Extractor      TextExtractor
}

/*
RunArtifacts lists everything a run persisted, plus the in-memory outcome
for callers that serve it onward instead of reading storage back.
*/
type RunArtifacts struct {
	RunName        string                   `json:"run_name"`
	OriginalPaths  []string                 `json:"original_paths"`
	CompositePath  string                   `json:"composite_path,omitempty"`
	EnhancedPath   string                   `json:"enhanced_path,omitempty"`
	ResultPath     string                   `json:"result_path,omitempty"`
	TextPath       string                   `json:"text_path,omitempty"`
	ExtractionPath string                   `json:"extraction_path,omitempty"`
	Result         enhance.ProcessingResult `json:"result"`
	Extraction     *Extraction              `json:"extraction,omitempty"`
	EnhancedJPEG   []byte                   `json:"-"`
}

type capture struct {
	name string
	data []byte
}

/*
ProcessReceiptFile runs one source file through the pipeline, dispatching on
its content: PDFs are rasterized page by page (multi-page documents are
stitched into one composite first), everything else is decoded as a single
image.
*/
func ProcessReceiptFile(sourcePath string, options Options) (artifacts RunArtifacts, e *xerr.Error) {
	data, readErr := os.ReadFile(sourcePath)
	if readErr != nil {
		readFault := fault.New(fault.FileNotFound, readErr, "read source file", sourcePath)
		e = xerr.NewError(readFault, "process receipt file", sourcePath)
		return artifacts, e
	}

	return ProcessReceiptBytes(filepath.Base(sourcePath), data, options)
}

/*
ProcessReceiptBytes runs a single in-memory capture through the pipeline:
persist the original, decode, enhance, persist the outcome. PDF payloads are
rasterized instead of decoded. Decode failures abort the run with a typed
error; enhancement failures do not, they are captured in the persisted
result and the original image stands in for the enhanced one.
*/
func ProcessReceiptBytes(sourceName string, data []byte, options Options) (artifacts RunArtifacts, e *xerr.Error) {
	if imageio.IsPDF(data) || strings.EqualFold(filepath.Ext(sourceName), ".pdf") {
		return processPDF(data, options)
	}

	artifacts.RunName = newRunName()
	tl.Log(tl.Notice, palette.BlueBold, "%s run '%s' for '%s'", "Starting", artifacts.RunName, sourceName)

	originalLocation, storeErr := storeArtifact(options.Store, artifacts.RunName, originalArtifactName(sourceName), data)
	if storeErr != nil {
		e = xerr.NewError(storeErr, "persist original capture", sourceName)
		return artifacts, e
	}
	artifacts.OriginalPaths = []string{originalLocation}

	img, loadFault := imageio.LoadBytes(data)
	if loadFault != nil {
		e = xerr.NewError(loadFault, "decode source image", sourceName)
		return artifacts, e
	}

	e = enhanceAndPersist(img, &artifacts, options)

	return artifacts, e
}

/*
ProcessMultiCapture reads ordered capture files of one long receipt,
stitches them into a composite and runs the composite through enhancement.
Any capture that cannot be read or decoded aborts the whole run.
*/
func ProcessMultiCapture(capturePaths []string, options Options) (artifacts RunArtifacts, e *xerr.Error) {
	captures := make([]capture, 0, len(capturePaths))
	for index, capturePath := range capturePaths {
		data, readErr := os.ReadFile(capturePath)
		if readErr != nil {
			readFault := fault.New(fault.FileNotFound, readErr, "read capture file", capturePath)
			e = xerr.NewError(readFault, "process multi-capture receipt", capturePath)
			return artifacts, e
		}

		captures = append(captures, capture{name: captureArtifactName(index, capturePath), data: data})
	}

	return processCaptures(captures, options)
}

/*
ProcessCaptureBytes is ProcessMultiCapture for captures already in memory,
the shape the intake service receives uploads in.
*/
func ProcessCaptureBytes(captureBlobs [][]byte, options Options) (RunArtifacts, *xerr.Error) {
	captures := make([]capture, 0, len(captureBlobs))
	for index, data := range captureBlobs {
		name := fmt.Sprintf("capture-%02d%s", index+1, extensionForData(data))
		captures = append(captures, capture{name: name, data: data})
	}

	return processCaptures(captures, options)
}

func processCaptures(captures []capture, options Options) (artifacts RunArtifacts, e *xerr.Error) {
	if len(captures) == 0 {
		emptyFault := fault.New(fault.NoImagesProvided, fmt.Errorf("capture list is empty"), "process multi-capture receipt", nil)
		e = xerr.NewError(emptyFault, "process multi-capture receipt", 0)
		return artifacts, e
	}

	artifacts.RunName = newRunName()
	tl.Log(tl.Notice, palette.BlueBold, "%s run '%s' with '%d' captures", "Starting", artifacts.RunName, len(captures))

	images := make([]*pixel.Image, 0, len(captures))
	artifacts.OriginalPaths = make([]string, 0, len(captures))

	for _, part := range captures {
		location, storeErr := storeArtifact(options.Store, artifacts.RunName, part.name, part.data)
		if storeErr != nil {
			e = xerr.NewError(storeErr, "persist original capture", part.name)
			return artifacts, e
		}
		artifacts.OriginalPaths = append(artifacts.OriginalPaths, location)

		img, loadFault := imageio.LoadBytes(part.data)
		if loadFault != nil {
			e = xerr.NewError(loadFault, "decode capture", part.name)
			return artifacts, e
		}

		images = append(images, img)
	}

	input := images[0]
	if len(images) > 1 {
		composite, stitchFault := stitch.StitchVertically(images, options.OverlapPercent)
		if stitchFault != nil {
			e = xerr.NewError(stitchFault, "stitch captures", len(images))
			return artifacts, e
		}

		input = composite
		if e = persistComposite(composite, &artifacts, options); e != nil {
			return artifacts, e
		}
	}

	e = enhanceAndPersist(input, &artifacts, options)

	return artifacts, e
}

func processPDF(data []byte, options Options) (artifacts RunArtifacts, e *xerr.Error) {
	artifacts.RunName = newRunName()
	tl.Log(tl.Notice, palette.BlueBold, "%s run '%s' for a PDF document", "Starting", artifacts.RunName)

	originalLocation, storeErr := storeArtifact(options.Store, artifacts.RunName, "orig.pdf", data)
	if storeErr != nil {
		e = xerr.NewError(storeErr, "persist original document", artifacts.RunName)
		return artifacts, e
	}
	artifacts.OriginalPaths = []string{originalLocation}

	pages, renderFault := imageio.RenderPDF(data)
	if renderFault != nil {
		e = xerr.NewError(renderFault, "rasterize PDF document", artifacts.RunName)
		return artifacts, e
	}

	input := pages[0]
	if len(pages) > 1 {
		composite, stitchFault := stitch.StitchVertically(pages, options.OverlapPercent)
		if stitchFault != nil {
			e = xerr.NewError(stitchFault, "stitch PDF pages", len(pages))
			return artifacts, e
		}

		input = composite
		if e = persistComposite(composite, &artifacts, options); e != nil {
			return artifacts, e
		}
	}

	e = enhanceAndPersist(input, &artifacts, options)

	return artifacts, e
}

func persistComposite(composite *pixel.Image, artifacts *RunArtifacts, options Options) *xerr.Error {
	encoded, encodeFault := imageio.EncodeJPEG(composite, options.JPEGQuality)
	if encodeFault != nil {
		return xerr.NewError(encodeFault, "encode composite", artifacts.RunName)
	}

	location, storeErr := storeArtifact(options.Store, artifacts.RunName, "composite.jpg", encoded)
	if storeErr != nil {
		return xerr.NewError(storeErr, "persist composite", artifacts.RunName)
	}

	artifacts.CompositePath = location

	return nil
}

/*
enhanceAndPersist runs the enhancement pipeline over input and persists the
outcome under the run directory: enhanced.jpg, result.json and, when an
extractor is configured, text.txt plus extraction.json. A run whose
enhancement failed still persists its result.json, and the original image
stands in for the enhanced one so downstream consumers always have an image
to work with.
*/
func enhanceAndPersist(input *pixel.Image, artifacts *RunArtifacts, options Options) (e *xerr.Error) {
	enhancer := enhance.NewEnhancer(options.Enhance)

	result, enhanceFault := enhancer.ProcessReceiptImage(input)
	if enhanceFault != nil {
		return xerr.NewError(enhanceFault, "enhance receipt image", artifacts.RunName)
	}

	artifacts.Result = result

	outputImage := result.Image
	if !result.Success {
		tl.Log(tl.Warning, palette.PurpleBold, "%s, %s", "Enhancement failed", "persisting the original image instead")
		outputImage = input
	}

	encoded, encodeFault := imageio.EncodeJPEG(outputImage, options.JPEGQuality)
	if encodeFault != nil {
		return xerr.NewError(encodeFault, "encode enhanced image", artifacts.RunName)
	}
	artifacts.EnhancedJPEG = encoded

	enhancedLocation, storeErr := storeArtifact(options.Store, artifacts.RunName, "enhanced.jpg", encoded)
	if storeErr != nil {
		return xerr.NewError(storeErr, "persist enhanced image", artifacts.RunName)
	}
	artifacts.EnhancedPath = enhancedLocation

	resultLocation, resultErr := storeJSON(options.Store, artifacts.RunName, "result.json", result)
	if resultErr != nil {
		return xerr.NewError(resultErr, "persist processing result", artifacts.RunName)
	}
	artifacts.ResultPath = resultLocation

	if options.Extractor != nil {
		extraction, extractErr := options.Extractor.ExtractText(encoded)
		if extractErr != nil {
			return xerr.NewError(extractErr, "extract text from enhanced image", artifacts.RunName)
		}
		artifacts.Extraction = &extraction

		textLocation, textErr := storeArtifact(options.Store, artifacts.RunName, "text.txt", []byte(extraction.Text))
		if textErr != nil {
			return xerr.NewError(textErr, "persist extracted text", artifacts.RunName)
		}
		artifacts.TextPath = textLocation

		extractionLocation, extractionErr := storeJSON(options.Store, artifacts.RunName, "extraction.json", extraction)
		if extractionErr != nil {
			return xerr.NewError(extractionErr, "persist extraction record", artifacts.RunName)
		}
		artifacts.ExtractionPath = extractionLocation
	}

	tl.Log(tl.Notice1, palette.GreenBold, "%s run '%s'", "Finished", artifacts.RunName)

	return nil
}

func newRunName() string {
	return time.Now().Format(runNameLayout)
}

func originalArtifactName(sourceName string) string {
	ext := strings.ToLower(filepath.Ext(sourceName))
	if ext == "" {
		ext = ".bin"
	}

	return "orig" + ext
}

func captureArtifactName(index int, sourcePath string) string {
	ext := strings.ToLower(filepath.Ext(sourcePath))
	if ext == "" {
		ext = ".bin"
	}

	return fmt.Sprintf("capture-%02d%s", index+1, ext)
}

func extensionForData(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}

	return ".bin"
}
