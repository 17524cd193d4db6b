// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"fieldhouse/internal/domain/schedule"
)

// Config is every FIELDHOUSE_* setting the server reads.
type Config struct {
	Addr   string `env:"ADDR" envDefault:":8080"`
	DBPath string `env:"DB_PATH" envDefault:"fieldhouse.db"`
	Env    string `env:"ENV" envDefault:"development"`

	// CSRFKey is a 32-byte hex key; empty generates an ephemeral key outside production.
	CSRFKey string `env:"CSRF_KEY"`
	// SessionKey signs the session cookie; same format and fallback as CSRFKey.
	SessionKey string `env:"SESSION_KEY"`

	ResendKey     string `env:"RESEND_KEY"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"Fieldhouse <noreply@fieldhouse.local>"`
	OperatorInbox string `env:"OPERATOR_INBOX" envDefault:"coaches@fieldhouse.local"`

	LeadSystemURL   string        `env:"LEAD_SYSTEM_URL"`
	LeadSystemToken string        `env:"LEAD_SYSTEM_TOKEN"`
	CheckoutURL     string        `env:"CHECKOUT_URL"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s"`
	BusinessPhone   string        `env:"BUSINESS_PHONE" envDefault:"our front desk"`

	// DayOrderRaw overrides the weekly view's day order, e.g. "tue,thu,sun".
	DayOrderRaw string            `env:"DAY_ORDER"`
	DayOrder    schedule.DayOrder `env:"-"`

	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@fieldhouse.local"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	SlowQueryMS  int     `env:"SLOW_QUERY_MS" envDefault:"50"`
}

// Prefix is prepended to every variable name.
const Prefix = "FIELDHOUSE_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional .env file, then the environment.
// PRE: none
// POST: Returns a Config with DayOrder resolved, or the first invalid setting
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	c.DayOrder = schedule.DefaultDayOrder()
	if c.DayOrderRaw != "" {
		order, err := schedule.ParseDayOrder(c.DayOrderRaw)
		if err != nil {
			return fmt.Errorf("%sDAY_ORDER: %w", Prefix, err)
		}
		c.DayOrder = order
	}
	if c.UpstreamTimeout <= 0 {
		return errors.New(Prefix + "UPSTREAM_TIMEOUT must be positive")
	}
	if c.RateLimitRPS <= 0 {
		return errors.New(Prefix + "RATE_LIMIT_RPS must be positive")
	}
	if c.IsProduction() && c.CSRFKey == "" {
		return errors.New(Prefix + "CSRF_KEY is required in production")
	}
	if c.IsProduction() && c.SessionKey == "" {
		return errors.New(Prefix + "SESSION_KEY is required in production")
	}
	return nil
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlowQuery is the threshold above which database calls are logged.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}
