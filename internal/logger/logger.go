// Package logger configures the process-wide zerolog logger and hands out
// component-scoped children of it.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Supported output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // trace, debug, info, warn, error
	Format     string // json, console
	TimeFormat string // Go layout used for the time field
	Output     string // stdout, stderr, or file path
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     FormatConsole,
		TimeFormat: time.RFC3339,
		Output:     "stderr",
	}
}

// Validate checks level and format without touching global state.
func (c LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	switch strings.ToLower(c.Format) {
	case FormatConsole, FormatJSON, "":
		return nil
	default:
		return fmt.Errorf("invalid log format %q (want %s or %s)", c.Format, FormatConsole, FormatJSON)
	}
}

// Setup initializes the global logger with the provided configuration.
func Setup(config LogConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	var output io.Writer
	switch config.Output {
	case "", "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log output: %w", err)
		}
		output = file
	}

	SetupWriter(config, output)
	return nil
}

// SetupWriter installs a global logger writing to w. config must be valid.
func SetupWriter(config LogConfig, w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	if !strings.EqualFold(config.Format, FormatJSON) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: config.TimeFormat}
	}

	log.Logger = zerolog.New(w).With().
		Timestamp().
		Caller().
		Logger()
}

// GetLogger returns the global logger.
func GetLogger() zerolog.Logger {
	return log.Logger
}

// WithComponent returns a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// WithRequestID returns a logger with a request ID field
func WithRequestID(requestID string) zerolog.Logger {
	return log.Logger.With().Str("request_id", requestID).Logger()
}

// NewContext stores l in ctx.
func NewContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or the global one.
func FromContext(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	l := log.Logger
	return &l
}
