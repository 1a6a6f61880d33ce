// Package config loads daemon settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the arenad runtime settings.
type Config struct {
	Addr          string        `env:"ARENA_ADDR" envDefault:":8090"`
	DBPath        string        `env:"ARENA_DB_PATH" envDefault:"arena.db"`
	Workers       int           `env:"ARENA_WORKERS" envDefault:"0"`
	GameTimeout   time.Duration `env:"ARENA_GAME_TIMEOUT" envDefault:"10s"`
	ShutdownGrace time.Duration `env:"ARENA_SHUTDOWN_GRACE" envDefault:"5s"`
}

// Load parses the environment into a Config. Workers of zero means one
// worker per CPU; negative values are rejected here so the scheduler
// never sees them.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("ARENA_WORKERS must not be negative, got %d", cfg.Workers)
	}
	if cfg.GameTimeout <= 0 {
		return Config{}, fmt.Errorf("ARENA_GAME_TIMEOUT must be positive, got %s", cfg.GameTimeout)
	}
	return cfg, nil
}
