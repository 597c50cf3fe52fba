// Package config loads runtime configuration from STORYBOARD_* environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted by STORYBOARD_BACKEND.
const (
	BackendBolt   = "bbolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the resolved runtime configuration.
type Config struct {
	// Dir is the project directory holding .storyboard/. Defaults to the working directory.
	Dir string `env:"STORYBOARD_DIR"`

	Backend string `env:"STORYBOARD_BACKEND" envDefault:"bbolt"`

	// StorageVersion is the schema generation the guard enforces.
	StorageVersion string `env:"STORYBOARD_STORAGE_VERSION" envDefault:"1.0.0"`

	// QuotaKB caps total stored size in kilo code units; 0 disables the cap.
	QuotaKB int `env:"STORYBOARD_QUOTA_KB" envDefault:"5120"`

	// HTTPPort for the diagnostic panel; 0 derives a per-project port.
	HTTPPort int `env:"STORYBOARD_HTTP_PORT" envDefault:"0"`

	// DevTools enables the panel's mutating endpoints.
	DevTools bool `env:"STORYBOARD_DEVTOOLS" envDefault:"false"`

	LogLevel string `env:"STORYBOARD_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.Dir = wd
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values that env tags cannot express.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendBolt, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendBolt, BackendSQLite, BackendMemory)
	}
	if c.StorageVersion == "" {
		return fmt.Errorf("storage version must not be empty")
	}
	if c.QuotaKB < 0 {
		return fmt.Errorf("quota must be >= 0, got %d", c.QuotaKB)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http port out of range: %d", c.HTTPPort)
	}
	return nil
}
