package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// devSecret keeps local development working without a configured secret.
// It is never applied outside ENV=local.
const devSecret = "dev-secret-capitao-animais-local"

type Config struct {
	Env         string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT" envDefault:"8000" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// A missing secret or mail credential outside local is not fatal at
	// startup; the endpoints that need them answer 500 until the operator
	// fixes the deployment.
	JWTSecret    string `env:"JWT_SECRET" validate:"omitempty,min=32"`
	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendFrom   string `env:"RESEND_FROM" envDefault:"onboarding@resend.dev"`

	MagicLinkBase string `env:"MAGIC_LINK_BASE_URL" envDefault:"http://localhost:8000" validate:"required,url"`
	StaticDir     string `env:"STATIC_DIR" envDefault:"./web"`

	// Brute-force guard on the code endpoints. Zero disables it.
	CodeRatePerSec float64 `env:"CODE_RATE_PER_SEC" envDefault:"1"`
	CodeRateBurst  int     `env:"CODE_RATE_BURST" envDefault:"5" validate:"min=1"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Env == "local" && cfg.JWTSecret == "" {
		cfg.JWTSecret = devSecret
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MailConfigured reports whether emails can go out: local logs them, other
// environments need the Resend credential.
func (c *Config) MailConfigured() bool {
	return c.Env == "local" || c.ResendAPIKey != ""
}

func (c *Config) SlogLevel() slog.Level {
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
