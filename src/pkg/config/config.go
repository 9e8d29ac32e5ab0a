package config

import (
	"encoding/json"
	"os"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
Config is the application configuration shared by every binary. It is
loaded once at startup from a JSON file into the package-level Cfg; fields
the file leaves out keep their defaults.
*/
type Config struct {
	MaxImageWidth         int           `json:"max_image_width,omitempty"`
	MaxImageHeight        int           `json:"max_image_height,omitempty"`
	JPEGQuality           int           `json:"jpeg_quality,omitempty"`
	DefaultOverlapPercent float64       `json:"default_overlap_percent,omitempty"`
	OutputDirPath         string        `json:"output_dir_path,omitempty"`
	StorageBackend        string        `json:"storage_backend,omitempty"`
	S3Bucket              string        `json:"s3_bucket,omitempty"`
	S3KeyPrefix           string        `json:"s3_key_prefix,omitempty"`
	OCRLanguage           string        `json:"ocr_language,omitempty"`
	LLMModel              string        `json:"llm_model,omitempty"`
	Server                *ServerConfig `json:"server,omitempty"`
}

/*
ServerConfig carries the intake service knobs. It stays nil for the
CLI-only binaries.
*/
type ServerConfig struct {
	Address             string `json:"address,omitempty"`
	Port                int    `json:"port,omitempty"`
	MiddlewareRateLimit int    `json:"middleware_rate_limit,omitempty"`
	MiddlewareBurst     int    `json:"middleware_burst,omitempty"`
	UploadLimitMB       int    `json:"upload_limit_mb,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		MaxImageWidth:         2000,
		MaxImageHeight:        2000,
		JPEGQuality:           92,
		DefaultOverlapPercent: 10,
		OutputDirPath:         "./out",
		StorageBackend:        "local",
		OCRLanguage:           "eng",
		LLMModel:              "gpt-5-mini",
	}
}

var Cfg Config = DefaultValueConfig()

/*
InitializeConfig loads the JSON configuration at configPath into Cfg. A
missing file is fine, the defaults stand. A file that exists but does not
parse kills the process: nobody should run on top of a half-read config.
*/
func InitializeConfig(configPath string) {
	data, readErr := os.ReadFile(configPath)
	if readErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "%s config file at '%s', %s", "No", configPath, "running with defaults")
		return
	}

	loaded := Config{}
	unmarshalErr := json.Unmarshal(data, &loaded)
	xerr.QuitIfError(unmarshalErr, "parse configuration file")

	Cfg = loaded

	defaultConfig := DefaultValueConfig()
	tl.ApplyDefaults(&Cfg, defaultConfig, func(fieldName string, defaultValue any) {
		tl.Log(tl.Info, palette.Purple, "%s field is %s in %s configuration. Using default value: %v",
			fieldName, "missing", GetPackageName(), tl.PrettyForStderr(defaultValue))
	})

	tl.Log(tl.Debug, palette.PurpleDim, "%s configuration from '%s'", "Loaded", configPath)
	tl.LogJSON(tl.Debug1, palette.PurpleDim, "Effective configuration", Cfg)
}
