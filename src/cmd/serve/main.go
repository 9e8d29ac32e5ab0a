package main

import (
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-imaging/src/pkg/config"
	echomw "receipt-imaging/src/pkg/echo-middleware"
	"receipt-imaging/src/pkg/enhance"
	"receipt-imaging/src/pkg/fault"
	imageio "receipt-imaging/src/pkg/image-io"
	"receipt-imaging/src/pkg/llm"
	"receipt-imaging/src/pkg/ocr"
	"receipt-imaging/src/pkg/pipeline"
	"receipt-imaging/src/pkg/storage"
)

/*
main starts the receipt intake service.

Routes:

	GET  /healthz     liveness probe, no auth
	POST /v1/enhance  one receipt upload (multipart field "image", JPEG/PNG/HEIC/PDF)
	POST /v1/stitch   ordered captures of one long receipt (multipart field "images")

Both /v1 routes require Authorization: Bearer $RIMG_INTAKE_BEARER_TOKEN and
run the same pipeline as the receipt-pipeline CLI: artifacts land in storage,
the response carries the run summary (or the enhanced JPEG with ?return=image).
*/
func main() {
	config.CheckIfEnvVarsPresent(echomw.EnvIntakeBearerToken)

	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	extractBackend := flag.String("extract", "", "Text extraction backend: tesseract, llm. Empty disables extraction.")
	language := flag.String("language", "", "Language of the receipt for tesseract. eng, spa, por, spa+eng etc.")
	model := flag.String("model", "", "Model snapshot for the llm backend. Empty means the configured llm_model.")

	flag.Parse()
	config.InitializeConfig(*configPath)

	if strings.TrimSpace(*extractBackend) == llm.BackendName {
		config.CheckIfEnvVarsPresent(llm.EnvOpenAIAPIKey)
	}

	echomw.InitializeConfig(middlewareConfigFor(config.Cfg.Server))
	echomw.UpdateRateLimits(echomw.Cfg.MiddlewareRateLimit, echomw.Cfg.MiddlewareBurst)

	store, storeErr := storage.ForBackend(config.Cfg.StorageBackend, config.Cfg.OutputDirPath, config.Cfg.S3Bucket, config.Cfg.S3KeyPrefix)
	xerr.QuitIfError(storeErr, "initialize artifact storage")

	extractor, e := buildExtractor(*extractBackend, *language, *model)
	e.QuitIf("error")

	options := pipeline.Options{
		Enhance: enhance.Options{
			MaxImageWidth:  config.Cfg.MaxImageWidth,
			MaxImageHeight: config.Cfg.MaxImageHeight,
		},
		JPEGQuality:    config.Cfg.JPEGQuality,
		OverlapPercent: config.Cfg.DefaultOverlapPercent,
		Store:          store,
		Extractor:      extractor,
	}

	server := echo.New()
	server.HideBanner = true

	server.Use(echomw.RouteAccessLoggerMiddleware)
	server.Use(echomw.RateLimiterMiddleware)
	server.Use(echomw.UploadBodyLimitMiddleware(int64(echomw.Cfg.UploadLimitMB) * 1024 * 1024))

	server.GET("/healthz", handleHealthz)

	v1 := server.Group("/v1", echomw.RequireBearerToken)
	v1.POST("/enhance", makeEnhanceHandler(options))
	v1.POST("/stitch", makeStitchHandler(options))

	address := fmt.Sprintf("%s:%d", echomw.Cfg.Address, echomw.Cfg.Port)
	tl.Log(tl.Notice, palette.BlueBold, "%s on '%s'", "Receipt intake listening", address)

	startErr := server.Start(address)
	xerr.QuitIfError(startErr, "start intake server")
}

func middlewareConfigFor(serverConfig *config.ServerConfig) *echomw.Config {
	if serverConfig == nil {
		return nil
	}

	return &echomw.Config{
		Address:             serverConfig.Address,
		Port:                serverConfig.Port,
		MiddlewareRateLimit: serverConfig.MiddlewareRateLimit,
		MiddlewareBurst:     serverConfig.MiddlewareBurst,
		UploadLimitMB:       serverConfig.UploadLimitMB,
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

func handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

/*
makeEnhanceHandler accepts one uploaded receipt and runs it through the
pipeline. The happy path responds with the run summary JSON; ?return=image
responds with the enhanced JPEG itself.
*/
func makeEnhanceHandler(options pipeline.Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileHeader, formErr := c.FormFile("image")
		if formErr != nil {
			return badRequest(c, "", "multipart field 'image' is required")
		}

		data, readErr := readUpload(fileHeader)
		if readErr != nil {
			return badRequest(c, "", "unable to read the uploaded file")
		}

		artifacts, e := pipeline.ProcessReceiptBytes(fileHeader.Filename, data, options)
		if e != nil {
			// Tell corrupt uploads apart from our own failures.
			if kind, message, bad := classifyUpload(data); bad {
				return badRequest(c, kind, message)
			}
			return intakeFailure(c, e)
		}

		return respondRun(c, artifacts)
	}
}

/*
makeStitchHandler accepts ordered captures of one long receipt (top first),
stitches them and runs the composite through the pipeline. A bad capture
fails the whole request; nothing is stitched from a partial set.
*/
func makeStitchHandler(options pipeline.Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		form, formErr := c.MultipartForm()
		if formErr != nil {
			return badRequest(c, "", "multipart form with field 'images' is required")
		}

		fileHeaders := form.File["images"]
		if len(fileHeaders) == 0 {
			return badRequest(c, fault.NoImagesProvided, "multipart field 'images' holds no files")
		}

		blobs := make([][]byte, 0, len(fileHeaders))
		for _, fileHeader := range fileHeaders {
			data, readErr := readUpload(fileHeader)
			if readErr != nil {
				return badRequest(c, "", fmt.Sprintf("unable to read uploaded file '%s'", fileHeader.Filename))
			}
			blobs = append(blobs, data)
		}

		runOptions := options
		runOptions.OverlapPercent = overlapFromQuery(c, options.OverlapPercent)

		artifacts, e := pipeline.ProcessCaptureBytes(blobs, runOptions)
		if e != nil {
			for index, data := range blobs {
				if kind, message, bad := classifyUpload(data); bad {
					return badRequest(c, kind, fmt.Sprintf("capture %d: %s", index+1, message))
				}
			}
			return intakeFailure(c, e)
		}

		return respondRun(c, artifacts)
	}
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, openErr := fileHeader.Open()
	if openErr != nil {
		return nil, openErr
	}
	defer file.Close()

	return io.ReadAll(file)
}

/*
classifyUpload reports whether the client sent something we cannot decode.
PDF payloads are only magic-checked here; rasterization problems surface
from the pipeline itself.
*/
func classifyUpload(data []byte) (kind fault.Kind, message string, bad bool) {
	if imageio.IsPDF(data) {
		return "", "", false
	}

	_, loadFault := imageio.LoadBytes(data)
	if loadFault != nil {
		return loadFault.Kind, loadFault.Error(), true
	}

	return "", "", false
}

func overlapFromQuery(c echo.Context, fallback float64) float64 {
	raw := strings.TrimSpace(c.QueryParam("overlap"))
	if raw == "" {
		return fallback
	}

	value, parseErr := strconv.ParseFloat(raw, 64)
	if parseErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Ignoring invalid overlap query value '%s'", raw)
		return fallback
	}
	return value
}

func respondRun(c echo.Context, artifacts pipeline.RunArtifacts) error {
	if strings.EqualFold(c.QueryParam("return"), "image") {
		return c.Blob(http.StatusOK, "image/jpeg", artifacts.EnhancedJPEG)
	}

	return c.JSON(http.StatusOK, artifacts)
}

func badRequest(c echo.Context, kind fault.Kind, message string) error {
	body := map[string]string{"error": message}
	if kind != "" {
		body["kind"] = string(kind)
	}

	return c.JSON(http.StatusBadRequest, body)
}

func intakeFailure(c echo.Context, e *xerr.Error) error {
	tl.Log(tl.Error, palette.RedBold, "Intake run failed: '%s'", e)

	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "processing failed",
	})
}
