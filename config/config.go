package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config is the process-wide configuration, built once at startup and handed
// to the router constructor.
type Config struct {
	Addr           string   // listen address, e.g. "0.0.0.0:6000"
	ScratchDir     string   // root under which each upload gets its own directory
	LogLevel       string   // debug, info, warn, error
	CORSOrigins    []string // allowed origins; "*" for local development
	FFmpegPath     string
	AubioPath      string
	MaxUploadBytes int64
}

const (
	defaultPort        = "6000"
	defaultMaxUploadMB = 100
)

// Default returns the configuration used when nothing is set in the
// environment.
func Default() Config {
	return Config{
		Addr:           "0.0.0.0:" + defaultPort,
		ScratchDir:     filepath.Join(os.TempDir(), "bandbridge-audio"),
		LogLevel:       "debug",
		CORSOrigins:    []string{"*"},
		FFmpegPath:     "ffmpeg",
		AubioPath:      "aubio",
		MaxUploadBytes: defaultMaxUploadMB << 20,
	}
}

// FromEnv overlays environment variables onto Default.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("ADDR"); ok && v != "" {
		cfg.Addr = v
	} else if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Addr = "0.0.0.0:" + v
	}
	if v, ok := lookup("SCRATCH_DIR"); ok && v != "" {
		cfg.ScratchDir = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	// CORS origins are configurable via CORS_ORIGINS (comma-separated).
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("FFMPEG_PATH"); ok && v != "" {
		cfg.FFmpegPath = v
	}
	if v, ok := lookup("AUBIO_PATH"); ok && v != "" {
		cfg.AubioPath = v
	}
	if v, ok := lookup("MAX_UPLOAD_MB"); ok && v != "" {
		mb, err := strconv.Atoi(v)
		if err != nil || mb <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_UPLOAD_MB %q", v)
		}
		cfg.MaxUploadBytes = int64(mb) << 20
	}

	return cfg, cfg.Validate()
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address is empty")
	}
	if c.ScratchDir == "" {
		return fmt.Errorf("scratch directory is empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
