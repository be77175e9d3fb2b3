// Package config provides configuration management for the playground CLI.
//
// Values are layered with koanf: built-in defaults, legacy environment
// variables, an optional YAML file, PLAYGROUND_ environment variables and
// finally command-line flags that were explicitly set.
package config

import "time"

// Default configuration values.
const (
	DefaultPort         = 5000
	DefaultDriver       = "sqlite"
	DefaultDSN          = "playground.db"
	DefaultLogFormat    = "text"
	DefaultTokenTTL     = 30 * 24 * time.Hour
	DefaultBcryptCost   = 10
	DefaultWorkspaceTTL = 2 * time.Hour
	DefaultAITimeout    = 60 * time.Second
	DefaultDebounce     = 300 * time.Millisecond
	DefaultSettle       = 250 * time.Millisecond
	DefaultRenderLimit  = 10 * time.Second
)

// Config holds all CLI configuration options.
type Config struct {
	Verbose   bool           `koanf:"verbose"`
	LogFormat string         `koanf:"log_format"`
	Server    ServerConfig   `koanf:"server"`
	Database  DatabaseConfig `koanf:"database"`
	Auth      AuthConfig     `koanf:"auth"`
	AI        AIConfig       `koanf:"ai"`
	Preview   PreviewConfig  `koanf:"preview"`
	Catalog   CatalogConfig  `koanf:"catalog"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	SessionSecret  string        `koanf:"session_secret"`
	SecureCookies  bool          `koanf:"secure_cookies"`
	WorkspaceTTL   time.Duration `koanf:"workspace_ttl"`
	Dev            bool          `koanf:"dev"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// AuthConfig configures bearer tokens and password hashing.
type AuthConfig struct {
	Secret     string        `koanf:"secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`
}

// AIConfig configures the Gemini completer. An empty APIKey disables
// enhancement.
type AIConfig struct {
	APIKey  string         `koanf:"api_key"`
	Model   string         `koanf:"model"`
	Timeout time.Duration  `koanf:"timeout"`
	Params  map[string]any `koanf:"params"`
}

// PreviewConfig configures the editor preview and the headless checker.
type PreviewConfig struct {
	Debounce   time.Duration `koanf:"debounce"`
	Headless   bool          `koanf:"headless"`
	Browser    string        `koanf:"browser"`
	ControlURL string        `koanf:"control_url"`
	Settle     time.Duration `koanf:"settle"`
	Timeout    time.Duration `koanf:"timeout"`
}

// CatalogConfig points at an optional override directory.
type CatalogConfig struct {
	Dir   string `koanf:"dir"`
	Watch bool   `koanf:"watch"`
}
