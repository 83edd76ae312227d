// Package config loads process settings from the environment and the
// division catalog from a YAML tuning file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration.
type Config struct {
	DBPath         string        `env:"WORLDSIM_DB_PATH" envDefault:"data/warfront.db"`
	TickInterval   time.Duration `env:"WORLDSIM_TICK_INTERVAL" envDefault:"5s"`
	MsPerDay       int64         `env:"WORLDSIM_MS_PER_DAY" envDefault:"4000"`
	MaxNPCs        int           `env:"WORLDSIM_MAX_NPCS" envDefault:"240"`
	BatchCap       int           `env:"WORLDSIM_BATCH_CAP" envDefault:"12"`
	DeltaRetention int           `env:"WORLDSIM_DELTA_RETENTION" envDefault:"140"`
	TuningPath     string        `env:"WORLDSIM_TUNING_PATH"`
	LogLevel       string        `env:"WORLDSIM_LOG_LEVEL" envDefault:"info"`
	SeedWorlds     int           `env:"WORLDSIM_SEED_WORLDS" envDefault:"2"`
	Session        time.Duration `env:"WORLDSIM_SESSION" envDefault:"24h"`
	OtelEndpoint   string        `env:"WORLDSIM_OTEL_ENDPOINT"`
	NoiseSeed      int64         `env:"WORLDSIM_NOISE_SEED"`
}

// Load parses the environment.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if c.MsPerDay <= 0 {
		return c, fmt.Errorf("WORLDSIM_MS_PER_DAY must be positive, got %d", c.MsPerDay)
	}
	if c.MaxNPCs <= 0 {
		return c, fmt.Errorf("WORLDSIM_MAX_NPCS must be positive, got %d", c.MaxNPCs)
	}
	return c, nil
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
