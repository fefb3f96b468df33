// Package config loads rollcall settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable setting. Command-line flags override the
// matching fields after Load.
type Config struct {
	DBPath   string `env:"ROLLCALL_DB" envDefault:"rollcall.db"`
	LogLevel string `env:"ROLLCALL_LOG_LEVEL" envDefault:"info"`
	Timezone string `env:"ROLLCALL_TIMEZONE" envDefault:"Local"`

	ExportDir  string `env:"ROLLCALL_EXPORT_DIR" envDefault:"."`
	ExportBase string `env:"ROLLCALL_EXPORT_BASE" envDefault:"attendance_log"`

	AdminEmail    string `env:"ROLLCALL_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"ROLLCALL_ADMIN_PASSWORD" envDefault:"adminpass"`

	DetectionInterval time.Duration `env:"ROLLCALL_DETECTION_INTERVAL" envDefault:"3500ms"`
	MaxRecognitions   int           `env:"ROLLCALL_MAX_RECOGNITIONS" envDefault:"50"`

	// GeminiAPIKey enables the anomaly commands. Empty disables them.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	Model        string `env:"ROLLCALL_MODEL" envDefault:"gemini-2.0-flash"`
}

// Load reads optional dotenv files (".env" when none are named) into the
// process environment, then parses Config from it. Variables already set
// in the environment win over dotenv values. Missing files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse reads Config from the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks values that parse but make no sense.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("ROLLCALL_DB must not be empty"))
	}
	if c.DetectionInterval <= 0 {
		errs = append(errs, fmt.Errorf("ROLLCALL_DETECTION_INTERVAL must be positive, got %s", c.DetectionInterval))
	}
	if c.MaxRecognitions <= 0 {
		errs = append(errs, fmt.Errorf("ROLLCALL_MAX_RECOGNITIONS must be positive, got %d", c.MaxRecognitions))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location resolves Timezone. "Local" and "" mean the system zone.
func (c Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ROLLCALL_TIMEZONE: %w", err)
	}
	return loc, nil
}

// AIEnabled reports whether a model API key is configured.
func (c Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}
