package config

import (
	"strings"
	"time"

	"github.com/stroytech/docvault/internal/env"
)

type Config struct {
	Port        string
	ENV         string
	DB          DatabaseConfig
	Storage     StorageConfig
	Upload      UploadConfig
	RateLimiter RateLimiterConfig
}

type DatabaseConfig struct {
	DB_HOST      string
	DB_PORT      string
	DB_DATABASE  string
	DB_USERNAME  string
	DB_PASSWORD  string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  string
}

// StorageConfig bounds every file placement. ProjectsDir is created on
// startup if absent and every revision path must resolve under it.
type StorageConfig struct {
	ProjectsDir string
}

type UploadConfig struct {
	// MaxSizeMB limits a single staged upload.
	MaxSizeMB int
	// ValidatePdf runs a structural pdfcpu check on staged files.
	ValidatePdf bool
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

func GetConfig() Config {
	rateLimitTimeFrame, err := time.ParseDuration(env.GetString("RATE_LIMIT_TIME_FRAME", "1m"))
	if err != nil {
		rateLimitTimeFrame = 60 * time.Second
	}

	return Config{
		Port: env.GetString("PORT", "8080"),
		ENV:  env.GetString("ENV", "development"),
		DB: DatabaseConfig{
			DB_HOST:      env.GetString("DB_HOST", "127.0.0.1"),
			DB_PORT:      env.GetString("DB_PORT", "5432"),
			DB_USERNAME:  env.GetString("DB_USERNAME", "root"),
			DB_PASSWORD:  env.GetString("DB_PASSWORD", ""),
			DB_DATABASE:  env.GetString("DB_DATABASE", "docvault"),
			MaxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 30),
			MaxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 30),
			MaxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
		Storage: StorageConfig{
			ProjectsDir: env.GetString("PROJECTS_DIR", "./data/projects"),
		},
		Upload: UploadConfig{
			MaxSizeMB:   env.GetInt("UPLOAD_MAX_SIZE_MB", 200),
			ValidatePdf: env.GetBool("UPLOAD_VALIDATE_PDF", true),
		},
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame: env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 5000),
			TimeFrame:            rateLimitTimeFrame,
			Enabled:              env.GetBool("RATE_LIMIT_ENABLED", true),
		},
	}
}
