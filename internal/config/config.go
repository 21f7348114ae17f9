package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fiscal/internal/logger"
)

type Config struct {
	// Decoding
	BatchWorkers    int
	MaxDocumentSize int64
	CheckTotals     bool

	// HTTP API
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Ledger
	EntryUser string

	// Google Sheets export (optional)
	GoogleServiceAccountKey string
	GoogleSheetURL          string
	GoogleSheetWorksheet    string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		EntryUser:               getEnv("ENTRY_USER", "system"),
		GoogleServiceAccountKey: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		GoogleSheetURL:          getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:    getEnv("GOOGLE_SHEET_WORKSHEET", "Documentos"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:               getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.BatchWorkers, err = strconv.Atoi(getEnv("BATCH_WORKERS", "8")); err != nil {
		return nil, fmt.Errorf("BATCH_WORKERS: %w", err)
	}
	if config.MaxDocumentSize, err = strconv.ParseInt(getEnv("MAX_DOCUMENT_SIZE", "10485760"), 10, 64); err != nil {
		return nil, fmt.Errorf("MAX_DOCUMENT_SIZE: %w", err)
	}
	if config.CheckTotals, err = strconv.ParseBool(getEnv("CHECK_TOTALS", "false")); err != nil {
		return nil, fmt.Errorf("CHECK_TOTALS: %w", err)
	}
	if config.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive, got %d", c.BatchWorkers)
	}
	if c.MaxDocumentSize <= 0 {
		return fmt.Errorf("MAX_DOCUMENT_SIZE must be positive, got %d", c.MaxDocumentSize)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if err := c.GetLoggerConfig().Validate(); err != nil {
		return err
	}
	return nil
}

// SheetsEnabled reports whether a spreadsheet export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSheetURL != ""
}

// ValidateSheets checks the settings needed by the spreadsheet export.
func (c *Config) ValidateSheets() error {
	if c.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is required")
	}
	if c.GoogleServiceAccountKey == "" {
		return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_KEY is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
