package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/teamdeck/teamdeck/internal/errors"
)

// Config holds the client configuration, loaded from environment
// variables via github.com/caarlos0/env. A .env file in the working
// directory is honored when present.
type Config struct {
	// IdentityURL is the base URL of the identity service
	// (signup, signin, signout, verify, profile).
	IdentityURL string `env:"TEAMDECK_IDENTITY_URL" envDefault:"http://127.0.0.1:5000"`

	// AdminURL is the base URL of the admin/role service
	// (directory fetch, role patch).
	AdminURL string `env:"TEAMDECK_ADMIN_URL" envDefault:"http://localhost:5005"`

	// RequestTimeout bounds every single network round trip.
	RequestTimeout time.Duration `env:"TEAMDECK_REQUEST_TIMEOUT" envDefault:"15s"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `env:"TEAMDECK_LOG_LEVEL" envDefault:"info"`

	// LogFormat is the log output format (text, json).
	LogFormat string `env:"TEAMDECK_LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from the environment, loading a .env file
// first when one exists. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to parse environment", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *Config) Sanitize() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
}
