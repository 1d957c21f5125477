// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"

	"erpdesk/internal/domain/itemlabel"
	"erpdesk/internal/infrastructure/frappe"
	"erpdesk/pkg/logger"
)

// Config holds runtime configuration.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// JWTSecret signs desk sessions. Required by serve.
	JWTSecret string `envconfig:"JWT_SECRET"`

	FrappeURL       string        `envconfig:"FRAPPE_URL" required:"true"`
	FrappeAPIKey    string        `envconfig:"FRAPPE_API_KEY"`
	FrappeAPISecret string        `envconfig:"FRAPPE_API_SECRET"`
	FrappeTimeout   time.Duration `envconfig:"FRAPPE_TIMEOUT" default:"20s"`
	FrappeRateLimit float64       `envconfig:"FRAPPE_RATE_LIMIT" default:"10"`
	FrappeRateBurst int           `envconfig:"FRAPPE_RATE_BURST" default:"20"`

	// RedisAddr enables the lookup cache when set.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	ValueCacheTTL time.Duration `envconfig:"VALUE_CACHE_TTL" default:"5m"`

	// DatabaseURL enables the price audit journal when set.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	SyncConcurrency   int  `envconfig:"SYNC_CONCURRENCY" default:"4"`
	SyncCreateMissing bool `envconfig:"SYNC_CREATE_MISSING" default:"false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.FrappeURL == "" {
		return nil, errors.New("FRAPPE_URL must be provided")
	}
	if cfg.SyncConcurrency < 1 {
		return nil, errors.New("SYNC_CONCURRENCY must be at least 1")
	}
	return &cfg, nil
}

// ValidateServe checks settings needed by the HTTP server.
func (c *Config) ValidateServe() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	return nil
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Logger returns the logger configuration.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Development: c.IsDevelopment(), Service: "erpdesk"}
}

// Frappe returns the site client configuration.
func (c *Config) Frappe() frappe.Config {
	return frappe.Config{
		BaseURL:   c.FrappeURL,
		APIKey:    c.FrappeAPIKey,
		APISecret: c.FrappeAPISecret,
		Timeout:   c.FrappeTimeout,
		RateLimit: c.FrappeRateLimit,
		RateBurst: c.FrappeRateBurst,
	}
}

// Sync returns the default price sync options.
func (c *Config) Sync() itemlabel.SyncOptions {
	return itemlabel.SyncOptions{Concurrency: c.SyncConcurrency, CreateMissing: c.SyncCreateMissing}
}
