package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-imaging/src/pkg/config"
	"receipt-imaging/src/pkg/enhance"
	imageio "receipt-imaging/src/pkg/image-io"
	"receipt-imaging/src/pkg/pixel"
	"receipt-imaging/src/pkg/stitch"
)

/*
main stitches several captures of one long receipt into a single image.

Input is either -images (comma-separated paths, top capture first) or
-pdf (one multi-page PDF, pages in order). Later captures get a fixed
percentage trimmed from their top to swallow the photographed overlap,
then everything is stacked onto one canvas and saved as JPEG.
*/
func main() {
	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	imagePaths := flag.String("images", "", "Comma-separated capture paths, ordered top to bottom.")
	pdfPath := flag.String("pdf", "", "Path to a multi-page PDF to stitch instead of -images.")
	outputPath := flag.String("o", "./stitched.jpg", "Path of the stitched JPEG to write.")
	overlapPercent := flag.Float64("overlap", -1, "Overlap percent trimmed from each capture after the first. Negative means the configured default_overlap_percent.")
	enhanceOutput := flag.Bool("enhance", false, "Run the enhancement pipeline on the stitched image before saving.")

	// Parse and initialize config.
	flag.Parse()
	config.InitializeConfig(*configPath)

	captures := splitImagePaths(*imagePaths)
	if len(captures) == 0 && strings.TrimSpace(*pdfPath) == "" {
		tl.Log(tl.Warning, palette.YellowBold, "%s parameter is %s", "--images or --pdf", "required")
		os.Exit(1)
	}

	percent := *overlapPercent
	if percent < 0 {
		percent = config.Cfg.DefaultOverlapPercent
	}

	tl.Log(
		tl.Notice, palette.BlueBold, "%s entrypoint. Config path: '%s'",
		"Running receipt stitcher", *configPath,
	)

	composite, e := stitchInput(captures, *pdfPath, percent)
	e.QuitIf("error")

	if *enhanceOutput {
		composite = enhanceComposite(composite)
	}

	saveErr := imageio.SaveJPEG(composite, *outputPath, config.Cfg.JPEGQuality)
	if saveErr != nil {
		xerr.QuitIfError(saveErr, "save stitched image")
	}

	tl.Log(
		tl.Notice1, palette.GreenBold, "%s. Saved '%dx%d' image to '%s'",
		"Stitching completed", composite.Width, composite.Height, *outputPath,
	)
}

func splitImagePaths(imagePaths string) []string {
	parts := strings.Split(imagePaths, ",")

	paths := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		paths = append(paths, trimmed)
	}
	return paths
}

func stitchInput(captures []string, pdfPath string, overlapPercent float64) (composite *pixel.Image, e *xerr.Error) {
	if len(captures) > 0 {
		tl.Log(tl.Info1, palette.Cyan, "%s '%d' captures", "Stitching", len(captures))

		composite, stitchFault := stitch.FromFiles(captures, overlapPercent)
		if stitchFault != nil {
			e = xerr.NewError(stitchFault, "stitch capture files", len(captures))
			return nil, e
		}
		return composite, nil
	}

	data, readErr := os.ReadFile(pdfPath)
	if readErr != nil {
		e = xerr.NewError(readErr, "read PDF file", pdfPath)
		return
	}
	if !imageio.IsPDF(data) {
		err := fmt.Errorf("file is not a PDF")
		e = xerr.NewError(err, "check -pdf input", pdfPath)
		return
	}

	pages, renderFault := imageio.RenderPDF(data)
	if renderFault != nil {
		e = xerr.NewError(renderFault, "render PDF pages", pdfPath)
		return
	}
	tl.Log(tl.Info1, palette.Cyan, "%s '%d' PDF pages", "Stitching", len(pages))

	composite, stitchFault := stitch.StitchVertically(pages, overlapPercent)
	if stitchFault != nil {
		e = xerr.NewError(stitchFault, "stitch PDF pages", pdfPath)
		return nil, e
	}
	return composite, nil
}

func enhanceComposite(composite *pixel.Image) *pixel.Image {
	enhancer := enhance.NewEnhancer(enhance.Options{
		MaxImageWidth:  config.Cfg.MaxImageWidth,
		MaxImageHeight: config.Cfg.MaxImageHeight,
	})

	result, enhanceFault := enhancer.ProcessReceiptImage(composite)
	if enhanceFault != nil {
		xerr.QuitIfError(enhanceFault, "enhance stitched image")
	}

	if !result.Success {
		tl.Log(
			tl.Warning, palette.PurpleBold, "Enhancement failed ('%s'), %s",
			result.ErrorMessage, "saving the stitched image as is",
		)
		return composite
	}

	tl.Log(
		tl.Info1, palette.Green, "%s (quality: '%.2f', transformations: '%d')",
		"Enhanced stitched image", result.QualityScore, len(result.AppliedTransformations),
	)
	return result.Image
}
