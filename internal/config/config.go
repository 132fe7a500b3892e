// Package config loads the termlink configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/takaryo1010/termlink/internal/match"
	"github.com/takaryo1010/termlink/internal/termindex"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "termlink.yaml"

var validate = validator.New()

// Config is the on-disk configuration.
type Config struct {
	Dictionary          string        `yaml:"dictionary" validate:"required"`
	Articles            string        `yaml:"articles,omitempty"`
	Database            string        `yaml:"database,omitempty"`
	CacheTTL            time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	FirstOccurrenceOnly bool          `yaml:"first_occurrence_only"`
	LogLevel            string        `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	return Config{
		Dictionary:          "dict.yaml",
		CacheTTL:            termindex.DefaultTTL,
		FirstOccurrenceOnly: match.DefaultPolicy().FirstOccurrenceOnly,
		LogLevel:            "info",
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults, rejecting unknown fields.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Policy returns the matching policy the config selects.
func (c Config) Policy() match.Policy {
	return match.Policy{FirstOccurrenceOnly: c.FirstOccurrenceOnly}
}

// Level maps LogLevel to a slog level.
func (c Config) Level() slog.Level {
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
