// Package config provides configuration structs and utilities for the zebra
// application.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
)

// TokenEnvVar overrides the configured API token when set. Tokens belong in
// the environment or a 0600 config file, never on the command line.
const TokenEnvVar = "ZEBRA_TOKEN"

// Config represents the root configuration for the zebra application.
type Config struct {
	DataDir string        `yaml:"data_dir,omitempty"` // where frames/timesheets/projects/cache live; defaults to the config dir
	Zebra   ZebraConfig   `yaml:"zebra"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ZebraConfig holds the connection settings for the Zebra API.
type ZebraConfig struct {
	URL        string        `yaml:"url"`
	Token      string        `yaml:"token,omitempty"` // overridden by ZEBRA_TOKEN
	UserID     int64         `yaml:"user_id"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string        `yaml:"level"`  // debug, info, warn, error
	Format string        `yaml:"format"` // json, text
	File   LogFileConfig `yaml:"file"`
}

// LogFileConfig holds configuration for the rotating log file sink.
type LogFileConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path,omitempty"` // defaults to <data_dir>/logs/zebra.log
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint,omitempty"`
	SampleRate   float64 `yaml:"sample_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// NewDefaultConfig returns the configuration used before any file exists.
func NewDefaultConfig() *Config {
	return &Config{
		Zebra: ZebraConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File: LogFileConfig{
				Enabled:    true,
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 30,
			},
		},
		Tracing: TracingConfig{
			Enabled:      false,
			ExporterType: "none",
			SampleRate:   1.0,
			ServiceName:  "zebra",
		},
	}
}

// ResolveToken returns the API token, preferring the environment variable
// over the config file.
func (z *ZebraConfig) ResolveToken() string {
	if token := os.Getenv(TokenEnvVar); token != "" {
		return token
	}
	return z.Token
}

// Validate checks the whole configuration and collects every problem found.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Zebra.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the Zebra connection settings. An empty URL is legal:
// the tool works offline until a sync command actually needs the API.
func (z *ZebraConfig) Validate() error {
	var errs []error

	if z.URL != "" {
		parsed, err := url.Parse(z.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("invalid zebra url %q", z.URL))
		}
	}
	if z.Timeout < 0 {
		errs = append(errs, errors.New("zebra timeout cannot be negative"))
	}
	if z.MaxRetries < 0 {
		errs = append(errs, errors.New("zebra max_retries cannot be negative"))
	}
	if z.UserID < 0 {
		errs = append(errs, errors.New("zebra user_id cannot be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the logging configuration.
func (l *LoggingConfig) Validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}
	switch l.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be json or text", l.Format))
	}
	if l.File.Enabled {
		if l.File.MaxSizeMB <= 0 {
			errs = append(errs, errors.New("log file max_size_mb must be positive"))
		}
		if l.File.MaxBackups < 0 || l.File.MaxAgeDays < 0 {
			errs = append(errs, errors.New("log file retention settings cannot be negative"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the tracing configuration.
func (t *TracingConfig) Validate() error {
	var errs []error

	switch t.ExporterType {
	case "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
	}
	if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
		errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("sample_rate %v must be between 0.0 and 1.0", t.SampleRate))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
