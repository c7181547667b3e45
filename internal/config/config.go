package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Fallback store backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
)

// DefaultRelayTimeout bounds the single outbound spreadsheet call.
const DefaultRelayTimeout = 30 * time.Second

// Config is the service configuration, read from the environment.
type Config struct {
	SheetsURL    string        // GOOGLE_SHEETS_APP_URL; empty means offline mode
	RelayTimeout time.Duration // RELAY_TIMEOUT

	RunLocal bool   // RUN_LOCAL=true serves HTTP directly instead of Lambda
	Port     string // PORT

	LogLevel  string // LOG_LEVEL
	LogFormat string // LOG_FORMAT

	FallbackBackend  string // FALLBACK_BACKEND: memory | dynamodb
	FallbackTable    string // FALLBACK_TABLE
	FallbackQueueURL string // FALLBACK_QUEUE_URL; empty disables notifications
	MetricsNamespace string // METRICS_NAMESPACE; empty disables CloudWatch
}

// NeedsAWS reports whether any AWS client is required.
func (c Config) NeedsAWS() bool {
	return c.FallbackBackend == BackendDynamoDB || c.FallbackQueueURL != "" || c.MetricsNamespace != ""
}

// Load reads the configuration. When RUN_LOCAL=true a .env file in the
// working directory is loaded first; variables already set win.
func Load() (Config, error) {
	if os.Getenv("RUN_LOCAL") == "true" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := Config{
		SheetsURL:        os.Getenv("GOOGLE_SHEETS_APP_URL"),
		RelayTimeout:     DefaultRelayTimeout,
		RunLocal:         os.Getenv("RUN_LOCAL") == "true",
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		FallbackBackend:  getEnv("FALLBACK_BACKEND", BackendMemory),
		FallbackTable:    getEnv("FALLBACK_TABLE", "purchase-fallback"),
		FallbackQueueURL: os.Getenv("FALLBACK_QUEUE_URL"),
		MetricsNamespace: os.Getenv("METRICS_NAMESPACE"),
	}

	if raw := os.Getenv("RELAY_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RELAY_TIMEOUT %q: %w", raw, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("invalid RELAY_TIMEOUT %q: must be positive", raw)
		}
		cfg.RelayTimeout = d
	}

	switch cfg.FallbackBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		return Config{}, fmt.Errorf("invalid FALLBACK_BACKEND %q: want %s or %s", cfg.FallbackBackend, BackendMemory, BackendDynamoDB)
	}

	return cfg, nil
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
