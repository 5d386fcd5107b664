// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// minSecretLength guards against trivially brute-forceable signing keys.
const minSecretLength = 16

// Config holds everything the server needs at startup.
type Config struct {
	Port       int           `env:"PORT" envDefault:"5000"`
	DBPath     string        `env:"DB_PATH" envDefault:"data/snipvault.db"`
	JWTSecret  string        `env:"JWT_SECRET,required"`
	CORSOrigin string        `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses and validates configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: PORT %d out of range", cfg.Port)
	}
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("config: JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be positive")
	}

	return &cfg, nil
}
