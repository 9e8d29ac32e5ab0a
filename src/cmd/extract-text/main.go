package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-imaging/src/pkg/config"
	imageio "receipt-imaging/src/pkg/image-io"
	"receipt-imaging/src/pkg/llm"
	"receipt-imaging/src/pkg/ocr"
	"receipt-imaging/src/pkg/pipeline"
	"receipt-imaging/src/pkg/util"
)

/*
main extracts text from a single receipt image.

The image is decoded and re-encoded as JPEG first, so HEIC photos work
with both backends. The extraction (text, confidence, backend) is logged
and optionally written to -o as JSON.
*/
func main() {
	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	imagePath := flag.String("image", "", "Path to the receipt image to extract text from.")
	backend := flag.String("backend", ocr.BackendName, "Text extraction backend: tesseract, llm.")
	language := flag.String("language", "", "Language of the receipt for tesseract. eng, spa, por, spa+eng etc. \"tesseract --list-langs\", \"apt install tesseract-ocr-fra\"")
	model := flag.String("model", "", "Model snapshot for the llm backend. Empty means the configured llm_model.")
	outputPath := flag.String("o", "", "Optional path to write the extraction JSON to.")

	// Parse flags and initialize config.
	flag.Parse()
	util.RequiredFlag(imagePath, "image")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)

	if strings.TrimSpace(*backend) == llm.BackendName {
		config.CheckIfEnvVarsPresent(llm.EnvOpenAIAPIKey)
	}

	tl.Log(
		tl.Notice, palette.BlueBold, "%s entrypoint. Config path: '%s'",
		"Running receipt text extraction", *configPath,
	)

	extractor, e := buildExtractor(*backend, *language, *model)
	e.QuitIf("error")

	// Normalize the input to JPEG so HEIC and PNG photos work everywhere.
	img, loadFault := imageio.Load(*imagePath)
	if loadFault != nil {
		e = xerr.NewError(loadFault, "load receipt image", *imagePath)
		e.QuitIf("error")
	}
	encoded, encodeFault := imageio.EncodeJPEG(img, config.Cfg.JPEGQuality)
	if encodeFault != nil {
		e = xerr.NewError(encodeFault, "encode receipt image to JPEG", *imagePath)
		e.QuitIf("error")
	}

	tl.Log(
		tl.Info1, palette.Cyan, "Loaded '%dx%d' image from '%s' (backend: '%s')",
		img.Width, img.Height, *imagePath, *backend,
	)

	extraction, extractErr := extractor.ExtractText(encoded)
	xerr.QuitIfError(extractErr, "extract receipt text")

	tl.Log(
		tl.Notice1, palette.GreenBold, "%s. Confidence: '%.2f', length: '%d'",
		"Text extraction completed", extraction.Confidence, len(extraction.Text),
	)
	tl.LogJSON(tl.Info, palette.Cyan, "Extraction", extraction)

	if strings.TrimSpace(*outputPath) != "" {
		jsonBytes, marshalErr := json.MarshalIndent(extraction, "", "  ")
		xerr.QuitIfError(marshalErr, "marshal extraction to JSON")

		writeErr := os.WriteFile(*outputPath, jsonBytes, 0o644)
		xerr.QuitIfError(writeErr, "write extraction JSON file")

		tl.Log(tl.Info, palette.Green, "%s to '%s'", "Saved extraction", *outputPath)
	}
}

func buildExtractor(backend string, language string, model string) (extractor pipeline.TextExtractor, e *xerr.Error) {
	if strings.TrimSpace(language) == "" {
		language = config.Cfg.OCRLanguage
	}
	if strings.TrimSpace(model) == "" {
		model = config.Cfg.LLMModel
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case ocr.BackendName:
		return ocr.NewExtractor(language), nil
	case llm.BackendName:
		return llm.NewExtractor(model), nil
	default:
		err := fmt.Errorf("unsupported extraction backend: %s", backend)
		e = xerr.NewError(err, "parse -backend flag", backend)
		return
	}
}
