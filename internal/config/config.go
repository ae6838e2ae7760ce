// Package config loads process configuration from OPENDIAL_* environment
// variables and builds the process-wide slog logger from it.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the opendial CLI.
type Config struct {
	// Logging configuration
	LogLevel string `env:"OPENDIAL_LOG_LEVEL" envDefault:"info"`
	Quiet    bool   `env:"OPENDIAL_QUIET" envDefault:"false"`

	// Output configuration
	Format string `env:"OPENDIAL_FORMAT" envDefault:"text"`

	// Session store configuration
	DBPath string `env:"OPENDIAL_DB" envDefault:""`

	// Sampling configuration
	Seed int64 `env:"OPENDIAL_SEED" envDefault:"0"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("OPENDIAL_LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if !isValidFormat(c.Format) {
		return fmt.Errorf("OPENDIAL_FORMAT must be one of: text, json")
	}

	return nil
}

// NewLogger builds a slog logger from the configuration. Quiet mode
// discards all log output regardless of level.
func (c *Config) NewLogger() *slog.Logger {
	if c.Quiet {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := &slog.HandlerOptions{Level: c.slogLevel()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func (c *Config) slogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// isValidFormat checks if the output format is valid.
func isValidFormat(format string) bool {
	return format == "text" || format == "json"
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{LogLevel=%s, Quiet=%v, Format=%s, DBPath=%s, Seed=%d}",
		c.LogLevel,
		c.Quiet,
		c.Format,
		c.DBPath,
		c.Seed,
	)
}
