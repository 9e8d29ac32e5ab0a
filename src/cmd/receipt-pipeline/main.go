package main

import (
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-imaging/src/pkg/config"
	"receipt-imaging/src/pkg/enhance"
	"receipt-imaging/src/pkg/llm"
	"receipt-imaging/src/pkg/ocr"
	"receipt-imaging/src/pkg/pipeline"
	"receipt-imaging/src/pkg/storage"
	"receipt-imaging/src/pkg/util"
)

/*
main runs the full receipt imaging pipeline.

-input can be:
  - a single receipt file (.jpg/.jpeg/.png/.heic/.heif/.pdf)
  - a directory containing receipt files

For each receipt:
 1. Decode it (multi-page PDFs are stitched into one tall image)
 2. Enhance it for readability and score the result
 3. Optionally extract text (tesseract or llm backend)
 4. Store all artifacts in a timestamped run directory
*/
func main() {
	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	inputPath := flag.String("input", "", "Path to a receipt file OR a directory with receipts (.jpg/.jpeg/.png/.heic/.heif/.pdf).")
	outputDirPath := flag.String("out", "", "Directory where run artifacts will be stored. Empty means the configured output_dir_path.")
	extractBackend := flag.String("extract", "", "Text extraction backend: tesseract, llm. Empty disables extraction.")
	language := flag.String("language", "", "Language of the receipt for tesseract. eng, spa, por, spa+eng etc. \"tesseract --list-langs\", \"apt install tesseract-ocr-fra\"")
	model := flag.String("model", "", "Model snapshot for the llm backend. Empty means the configured llm_model.")
	overlapPercent := flag.Float64("overlap", -1, "Overlap percent trimmed between stitched captures. Negative means the configured default_overlap_percent.")

	flag.Parse()
	util.RequiredFlag(inputPath, "input")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)

	if strings.TrimSpace(*extractBackend) == llm.BackendName {
		config.CheckIfEnvVarsPresent(llm.EnvOpenAIAPIKey)
	}

	// Build year-month suffix like "september-2006".
	currentTime := time.Now()
	monthName := strings.ToLower(currentTime.Month().String())
	yearValue := currentTime.Year()
	yearMonthDirName := fmt.Sprintf("%s-%04d", monthName, yearValue)

	baseOutputDirPath := *outputDirPath
	if strings.TrimSpace(baseOutputDirPath) == "" {
		baseOutputDirPath = config.Cfg.OutputDirPath
	}
	finalOutputDirPath := filepath.Join(baseOutputDirPath, yearMonthDirName)
	finalKeyPrefix := path.Join(config.Cfg.S3KeyPrefix, yearMonthDirName)

	tl.Log(
		tl.Notice, palette.BlueBold, "%s entrypoint. Config path: '%s'",
		"Running full receipt imaging pipeline", *configPath,
	)
	tl.Log(
		tl.Info1, palette.Cyan, "%s '%s' (backend: '%s')",
		"Using output directory", finalOutputDirPath, config.Cfg.StorageBackend,
	)

	store, storeErr := storage.ForBackend(config.Cfg.StorageBackend, finalOutputDirPath, config.Cfg.S3Bucket, finalKeyPrefix)
	xerr.QuitIfError(storeErr, "initialize artifact storage")

	extractor, e := buildExtractor(*extractBackend, *language, *model)
	e.QuitIf("error")

	options := pipeline.Options{
		Enhance: enhance.Options{
			MaxImageWidth:  config.Cfg.MaxImageWidth,
			MaxImageHeight: config.Cfg.MaxImageHeight,
		},
		JPEGQuality:    config.Cfg.JPEGQuality,
		OverlapPercent: resolveOverlapPercent(*overlapPercent),
		Store:          store,
		Extractor:      extractor,
	}

	receiptsToProcess, e := resolveReceiptsToProcess(*inputPath)
	e.QuitIf("error")

	if len(receiptsToProcess) == 0 {
		tl.Log(
			tl.Warning, palette.PurpleBold, "No .jpg/.jpeg/.png/.heic/.heif/.pdf files found at: '%s'",
			*inputPath,
		)
		os.Exit(0)
	}

	if len(receiptsToProcess) > 1 {
		tl.Log(
			tl.Notice1, palette.GreenBold, "Found '%d' receipts to process",
			len(receiptsToProcess),
		)
	}

	processedCount := 0
	skippedCount := 0

	for _, receiptPath := range receiptsToProcess {
		tl.Log(tl.Notice, palette.BlueBold, "%s '%s'", "Processing receipt", receiptPath)

		artifacts, e := pipeline.ProcessReceiptFile(receiptPath, options)
		if e != nil {
			skippedCount += 1
			tl.Log(
				tl.Error, palette.RedBold, "Failed processing '%s': '%s'",
				receiptPath, e,
			)
			continue
		}

		processedCount += 1
		if !artifacts.Result.Success {
			tl.Log(
				tl.Warning, palette.PurpleBold, "Enhancement failed for '%s', the original was kept: '%s'",
				receiptPath, artifacts.Result.ErrorMessage,
			)
		}
		tl.Log(
			tl.Notice1, palette.GreenBold, "%s. Artifacts stored under '%s' (quality: '%.2f')",
			"Run completed", artifacts.RunName, artifacts.Result.QualityScore,
		)
	}

	tl.Log(
		tl.Notice, palette.GreenBold, "Done. Processed: '%d', skipped: '%d'",
		processedCount, skippedCount,
	)
}

func resolveOverlapPercent(flagValue float64) float64 {
	if flagValue < 0 {
		return config.Cfg.DefaultOverlapPercent
	}
	return flagValue
}

func buildExtractor(backend string, language string, model string) (extractor pipeline.TextExtractor, e *xerr.Error) {
	if strings.TrimSpace(language) == "" {
		language = config.Cfg.OCRLanguage
	}
	if strings.TrimSpace(model) == "" {
		model = config.Cfg.LLMModel
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "":
		return nil, nil
	case ocr.BackendName:
		return ocr.NewExtractor(language), nil
	case llm.BackendName:
		return llm.NewExtractor(model), nil
	default:
		err := fmt.Errorf("unsupported extraction backend: %s", backend)
		e = xerr.NewError(err, "parse -extract flag", backend)
		return
	}
}

func resolveReceiptsToProcess(inputPath string) (receipts []string, e *xerr.Error) {
	trimmed := strings.TrimSpace(inputPath)
	if trimmed == "" {
		err := fmt.Errorf("input path is empty")
		e = xerr.NewError(err, "missing -input path", inputPath)
		return
	}

	info, statErr := os.Stat(trimmed)
	if statErr != nil {
		e = xerr.NewError(statErr, "stat -input path", trimmed)
		return
	}

	if info.IsDir() {
		return listReceiptsInDir(trimmed)
	}

	// File path
	ext := strings.ToLower(filepath.Ext(trimmed))
	if !isAllowedReceiptExt(ext) {
		err := fmt.Errorf("unsupported receipt extension: %s", ext)
		e = xerr.NewError(err, "input file is not .jpg/.jpeg/.png/.heic/.heif/.pdf", trimmed)
		return
	}

	return []string{trimmed}, nil
}

func listReceiptsInDir(dirPath string) (receipts []string, e *xerr.Error) {
	entries, readErr := os.ReadDir(dirPath)
	if readErr != nil {
		e = xerr.NewError(readErr, "read directory", dirPath)
		return
	}

	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(ent.Name()))
		if !isAllowedReceiptExt(ext) {
			continue
		}

		receipts = append(receipts, filepath.Join(dirPath, ent.Name()))
	}

	sort.Strings(receipts)
	return
}

func isAllowedReceiptExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".heic", ".heif", ".pdf":
		return true
	default:
		return false
	}
}
