// Package config loads server settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	Addr        string `env:"TAROT_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"TAROT_DATABASE_URL,required,notEmpty"`
	Debug       bool   `env:"TAROT_DEBUG" envDefault:"false"`
	Timezone    string `env:"TAROT_TIMEZONE" envDefault:"Europe/Paris"`
	EloInitial  int    `env:"TAROT_ELO_INITIAL" envDefault:"1500"`
	EloK        int    `env:"TAROT_ELO_K" envDefault:"20"`
}

// Load reads .env when present, then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from environment variables only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.EloK <= 0 {
		return Config{}, fmt.Errorf("TAROT_ELO_K must be positive, got %d", cfg.EloK)
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
