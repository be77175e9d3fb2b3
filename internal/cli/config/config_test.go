package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loader reads so the host
// environment cannot leak into a test. t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if _, ok := legacyEnv[name]; ok || strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playground.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "port")
	flags.String("db", "", "database")
	flags.Bool("verbose", false, "verbose")
	flags.Bool("check", false, "not a config flag")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	clearEnv(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultDriver, cfg.Database.Driver)
	assert.Equal(t, DefaultDSN, cfg.Database.DSN)
	assert.Equal(t, DefaultTokenTTL, cfg.Auth.TokenTTL)
	assert.Equal(t, DefaultDebounce, cfg.Preview.Debounce)
	assert.Equal(t, DefaultAITimeout, cfg.AI.Timeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Preview.Headless)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	clearEnv(t)

	path := writeConfig(t, `
server:
  port: 7000
  allowed_origins:
    - http://a.example
    - http://b.example
  workspace_ttl: 45m
auth:
  secret: from_file
  token_ttl: 24h
ai:
  model: gemini-test
  params:
    temperature: 0.2
preview:
  debounce: 150ms
catalog:
  dir: ./snippets
  watch: true
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 45*time.Minute, cfg.Server.WorkspaceTTL)
	assert.Equal(t, "from_file", cfg.Auth.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "gemini-test", cfg.AI.Model)
	assert.InDelta(t, 0.2, cfg.AI.Params["temperature"], 1e-9)
	assert.Equal(t, 150*time.Millisecond, cfg.Preview.Debounce)
	assert.Equal(t, "./snippets", cfg.Catalog.Dir)
	assert.True(t, cfg.Catalog.Watch)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	clearEnv(t)

	path := writeConfig(t, "server:\n  port: 7000\n")
	t.Setenv("PLAYGROUND_SERVER__PORT", "7100")

	flags := testFlags()
	require.NoError(t, flags.Set("port", "7200"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 7200, cfg.Server.Port, "flag value should override config file and env var")
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	clearEnv(t)

	path := writeConfig(t, "server:\n  port: 7000\nauth:\n  secret: from_file\n")
	t.Setenv("PLAYGROUND_SERVER__PORT", "7100")
	t.Setenv("PLAYGROUND_AUTH__SECRET", "from_env")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.Port, "env var should override config file")
	assert.Equal(t, "from_env", cfg.Auth.Secret)
}

// TestLoadConfig_FlagNotSetUsesEnv tests that unset flags fall back to env vars.
func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	clearEnv(t)

	t.Setenv("PLAYGROUND_SERVER__PORT", "7100")

	cfg, err := LoadConfig("", testFlags())
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.Port, "env var should be used when flag is not set")
}

func TestLoadConfig_UnmappedFlagIgnored(t *testing.T) {
	ResetConfig()
	clearEnv(t)

	flags := testFlags()
	require.NoError(t, flags.Set("check", "true"))

	_, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.False(t, k.Exists("check"))
}

func TestLoadConfig_EnvSlice(t *testing.T) {
	ResetConfig()
	clearEnv(t)

	t.Setenv("PLAYGROUND_SERVER__ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_LegacyEnv(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		file       string
		wantPort   int
		wantDriver string
		wantDSN    string
		wantSecret string
		wantAPIKey string
	}{
		{
			name: "legacy values apply",
			env: map[string]string{
				"PORT":           "8080",
				"JWT_SECRET":     "legacy-secret",
				"GEMINI_API_KEY": "legacy-key",
			},
			wantPort:   8080,
			wantDriver: "sqlite",
			wantDSN:    DefaultDSN,
			wantSecret: "legacy-secret",
			wantAPIKey: "legacy-key",
		},
		{
			name:       "postgres url selects postgres driver",
			env:        map[string]string{"DATABASE_URL": "postgres://u:p@localhost/playground"},
			wantPort:   DefaultPort,
			wantDriver: "postgres",
			wantDSN:    "postgres://u:p@localhost/playground",
		},
		{
			name:       "file beats legacy",
			env:        map[string]string{"PORT": "8080", "JWT_SECRET": "legacy-secret"},
			file:       "server:\n  port: 9000\n",
			wantPort:   9000,
			wantDriver: "sqlite",
			wantDSN:    DefaultDSN,
			wantSecret: "legacy-secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			clearEnv(t)
			for name, v := range tt.env {
				t.Setenv(name, v)
			}

			var path string
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := LoadConfig(path, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPort, cfg.Server.Port)
			assert.Equal(t, tt.wantDriver, cfg.Database.Driver)
			assert.Equal(t, tt.wantDSN, cfg.Database.DSN)
			assert.Equal(t, tt.wantSecret, cfg.Auth.Secret)
			assert.Equal(t, tt.wantAPIKey, cfg.AI.APIKey)
		})
	}
}

func TestLoadConfig_ExpandsSecrets(t *testing.T) {
	ResetConfig()
	clearEnv(t)

	t.Setenv("TEST_PLAYGROUND_SECRET", "expanded")
	path := writeConfig(t, "auth:\n  secret: ${TEST_PLAYGROUND_SECRET}\nai:\n  api_key: ${TEST_PLAYGROUND_UNSET}\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "expanded", cfg.Auth.Secret)
	assert.Equal(t, "${TEST_PLAYGROUND_UNSET}", cfg.AI.APIKey, "unset variables are left as written")
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PLAYGROUND_VERBOSE", "verbose"},
		{"PLAYGROUND_LOG_FORMAT", "log_format"},
		{"PLAYGROUND_SERVER__PORT", "server.port"},
		{"PLAYGROUND_AUTH__TOKEN_TTL", "auth.token_ttl"},
		{"PLAYGROUND_AI__PARAMS__TOP_P", "ai.params.top_p"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			LogFormat: "text",
			Server:    ServerConfig{Port: 5000},
			Database:  DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
			Auth:      AuthConfig{TokenTTL: time.Hour},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "json logs", mutate: func(c *Config) { c.LogFormat = "json" }},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, errSubstr: "log_format"},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, errSubstr: "server.port"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, errSubstr: "database.driver"},
		{name: "empty dsn", mutate: func(c *Config) { c.Database.DSN = "" }, errSubstr: "database.dsn"},
		{name: "zero token ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, errSubstr: "auth.token_ttl"},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.Auth.BcryptCost = 2 }, errSubstr: "auth.bcrypt_cost"},
		{name: "negative debounce", mutate: func(c *Config) { c.Preview.Debounce = -time.Second }, errSubstr: "preview.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_RequireSecret(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.RequireSecret()
	require.ErrorIs(t, err, ErrMissingSecret)

	cfg.Server.Dev = true
	secret, err := cfg.RequireSecret()
	require.NoError(t, err)
	assert.Equal(t, DevSecret, secret)

	cfg.Auth.Secret = "s3cret"
	secret, err = cfg.RequireSecret()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)

	assert.Equal(t, "s3cret", cfg.SessionSecret(secret))
	cfg.Server.SessionSecret = "cookie"
	assert.Equal(t, "cookie", cfg.SessionSecret(secret))
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "missing logger falls back to a discard logger")

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
