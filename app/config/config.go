// Package config loads blogsync settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"blogsync/app/repositories"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings of one blogsync process.
type Config struct {
	DBPath          string        `env:"BLOGSYNC_DB_PATH"           envDefault:"data/badger"`
	InMemory        bool          `env:"BLOGSYNC_IN_MEMORY"`
	TokenSecret     string        `env:"BLOGSYNC_TOKEN_SECRET"`
	TokenTTL        time.Duration `env:"BLOGSYNC_TOKEN_TTL"         envDefault:"24h"`
	TokenFile       string        `env:"BLOGSYNC_TOKEN_FILE"        envDefault:"data/session.jwt"`
	ReadRetries     uint          `env:"BLOGSYNC_READ_RETRIES"      envDefault:"3"`
	RetryInitial    time.Duration `env:"BLOGSYNC_RETRY_INITIAL"     envDefault:"100ms"`
	RetryMaxElapsed time.Duration `env:"BLOGSYNC_RETRY_MAX_ELAPSED" envDefault:"2s"`
}

// Parse reads the environment without validating it. Commands that only
// touch the database directory use it directly.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.TokenSecret == "" {
		return errors.New("BLOGSYNC_TOKEN_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("BLOGSYNC_TOKEN_TTL must be positive")
	}
	if c.ReadRetries == 0 {
		return errors.New("BLOGSYNC_READ_RETRIES must be at least 1")
	}
	if !c.InMemory && c.DBPath == "" {
		return errors.New("BLOGSYNC_DB_PATH is required unless BLOGSYNC_IN_MEMORY is set")
	}
	return nil
}

// RetryPolicy returns the read retry policy the settings describe.
func (c Config) RetryPolicy() repositories.RetryPolicy {
	return repositories.RetryPolicy{
		MaxTries:        c.ReadRetries,
		InitialInterval: c.RetryInitial,
		MaxElapsed:      c.RetryMaxElapsed,
	}
}
