package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the codecanvas server.
type Config struct {
	Port     int
	APIKey   string
	LogLevel string

	// Local data directory for the SQLite snapshot store
	DataDir string

	// Shared secret for preview-scoped JWTs; empty disables token checks
	// on the preview signal channel
	JWTSecret string

	// Base WebSocket URL embedded into preview documents for the signal
	// channel (e.g. "ws://localhost:8080")
	PreviewWSBase string

	// Preview refresh debounce after an edit to a web-typed file
	Debounce time.Duration

	// Remote execution service (Judge0-compatible)
	ExecURL        string
	ExecAPIKey     string
	ExecHostHeader string
	ExecLanguageID int
	ExecPollEvery  time.Duration
	ExecMaxPolls   int

	// Standalone metrics listener; empty serves /metrics on the main port
	MetricsAddr string
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is applied first when
// present (explicit env vars take precedence).
func Load() (*Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Port:     8080,
		APIKey:   os.Getenv("CODECANVAS_API_KEY"),
		LogLevel: envOrDefault("CODECANVAS_LOG_LEVEL", "info"),

		DataDir:   envOrDefault("CODECANVAS_DATA_DIR", "data"),
		JWTSecret: os.Getenv("CODECANVAS_JWT_SECRET"),

		PreviewWSBase: envOrDefault("CODECANVAS_PREVIEW_WS_BASE", "ws://localhost:8080"),
		Debounce:      time.Duration(envOrDefaultInt("CODECANVAS_DEBOUNCE_MS", 500)) * time.Millisecond,

		ExecURL:        envOrDefault("CODECANVAS_EXEC_URL", "https://judge0-ce.p.rapidapi.com"),
		ExecAPIKey:     os.Getenv("CODECANVAS_EXEC_API_KEY"),
		ExecHostHeader: envOrDefault("CODECANVAS_EXEC_HOST", "judge0-ce.p.rapidapi.com"),
		ExecLanguageID: envOrDefaultInt("CODECANVAS_EXEC_LANGUAGE_ID", 71),
		ExecPollEvery:  time.Duration(envOrDefaultInt("CODECANVAS_EXEC_POLL_MS", 1500)) * time.Millisecond,
		ExecMaxPolls:   envOrDefaultInt("CODECANVAS_EXEC_MAX_POLLS", 200),

		MetricsAddr: os.Getenv("CODECANVAS_METRICS_ADDR"),
	}

	if portStr := os.Getenv("CODECANVAS_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid CODECANVAS_PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
