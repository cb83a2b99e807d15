// Package config loads service settings from the environment once at startup.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

// Environment name constants used in the Environment field.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// Storage driver names.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config holds all configuration for the service.
type Config struct {
	// HTTP
	HTTPAddr string `conf:"default::8081,env:HTTP_ADDR"`

	// Application
	LogLevel    string `conf:"default:info,env:LOG_LEVEL"`
	Environment string `conf:"default:development,enum:development|testing|production,env:ENVIRONMENT"`

	// Extraction endpoint. The API key is read once here and handed to the
	// extraction client; an empty key disables extraction only.
	ExtractionEndpoint string        `conf:"default:https://openrouter.ai/api/v1/chat/completions,env:EXTRACTION_ENDPOINT"`
	ExtractionModel    string        `conf:"default:gpt-4o-mini,env:EXTRACTION_MODEL"`
	ExtractionAPIKey   string        `conf:"env:OPENROUTER_API_KEY,noprint"`
	ExtractionTimeout  time.Duration `conf:"default:30s,env:EXTRACTION_TIMEOUT"`

	// Sales
	AllowEmptyBatch bool `conf:"default:false,env:SALES_ALLOW_EMPTY_BATCH"`

	// History storage
	StorageDriver string `conf:"default:file,enum:memory|file|sqlite|redis,env:STORAGE_DRIVER"`
	HistoryKey    string `conf:"default:waras_sales_history,env:HISTORY_KEY"`
	StorageDir    string `conf:"default:./data,env:STORAGE_DIR"`
	SQLitePath    string `conf:"default:./data/waras.db,env:SQLITE_PATH"`
	RedisURL      string `conf:"default:redis://localhost:6379,env:REDIS_URL"`
	RedisPrefix   string `conf:"default:waras:,env:REDIS_PREFIX"`
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	var cfg Config
	_ = godotenv.Load()
	if help, err := conf.Parse("", &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// String renders cfg for startup logging, leaving out noprint fields.
func String(cfg *Config) string {
	out, err := conf.String(cfg)
	if err != nil {
		return fmt.Sprintf("config unavailable: %v", err)
	}
	return out
}

// ExtractionEnabled reports whether an extraction credential was supplied.
func (c *Config) ExtractionEnabled() bool {
	return strings.TrimSpace(c.ExtractionAPIKey) != ""
}

// ValidateForProduction enforces requirements when Environment is production.
// It is a no-op for other environments.
func ValidateForProduction(cfg *Config) error {
	if cfg.Environment != EnvProduction {
		return nil
	}

	var errs []string

	if !cfg.ExtractionEnabled() {
		errs = append(errs, "OPENROUTER_API_KEY must be set in production")
	}

	if cfg.StorageDriver == DriverMemory {
		errs = append(errs, "STORAGE_DRIVER must not be 'memory' in production (history would not survive a restart)")
	}

	if cfg.LogLevel == "debug" {
		errs = append(errs, "LOG_LEVEL must not be 'debug' in production (transcripts would be logged)")
	}

	if cfg.ExtractionTimeout <= 0 {
		errs = append(errs, "EXTRACTION_TIMEOUT must be positive")
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("production config validation failed: %s", strings.Join(errs, "; "))
}
