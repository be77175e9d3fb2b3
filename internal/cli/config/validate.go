package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingSecret is returned by RequireSecret when no signing secret is
// configured outside dev mode.
var ErrMissingSecret = errors.New("auth.secret is required (set PLAYGROUND_AUTH__SECRET or JWT_SECRET)")

// DevSecret signs tokens when the server runs with --dev and no secret is set.
const DevSecret = "playground-dev-secret-change-in-production" //nolint:gosec

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "postgres", "postgresql", "pgx":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	for name, d := range map[string]time.Duration{
		"server.workspace_ttl": c.Server.WorkspaceTTL,
		"ai.timeout":           c.AI.Timeout,
		"preview.debounce":     c.Preview.Debounce,
		"preview.settle":       c.Preview.Settle,
		"preview.timeout":      c.Preview.Timeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	return nil
}

// RequireSecret returns the token signing secret. Dev mode falls back to
// DevSecret; otherwise an unset secret is an error.
func (c *Config) RequireSecret() (string, error) {
	if c.Auth.Secret != "" {
		return c.Auth.Secret, nil
	}
	if c.Server.Dev {
		return DevSecret, nil
	}
	return "", ErrMissingSecret
}

// SessionSecret returns the cookie signing secret, defaulting to the
// token secret.
func (c *Config) SessionSecret(tokenSecret string) string {
	if c.Server.SessionSecret != "" {
		return c.Server.SessionSecret
	}
	return tokenSecret
}
