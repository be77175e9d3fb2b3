package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: PLAYGROUND_SERVER__PORT sets server.port.
const EnvPrefix = "PLAYGROUND_"

// loggerKey is used to store logger in context.
type loggerKey struct{}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// flagKeys maps command-line flag names to config keys. Flags not listed
// here are command options and never reach the config.
var flagKeys = map[string]string{
	"verbose":     "verbose",
	"log-format":  "log_format",
	"host":        "server.host",
	"port":        "server.port",
	"dev":         "server.dev",
	"db-driver":   "database.driver",
	"db":          "database.dsn",
	"model":       "ai.model",
	"headless":    "preview.headless",
	"browser":     "preview.browser",
	"catalog-dir": "catalog.dir",
	"watch":       "catalog.watch",
}

// legacyEnv maps the unprefixed variables older deployments set.
var legacyEnv = map[string]string{
	"PORT":           "server.port",
	"JWT_SECRET":     "auth.secret",
	"GEMINI_API_KEY": "ai.api_key",
	"DATABASE_URL":   "database.dsn",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// findConfigFile finds the config file to use.
// Priority: explicit path > playground.yaml > playground.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"playground.yaml", "playground.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

func defaults() map[string]any {
	return map[string]any{
		"verbose":                false,
		"log_format":             DefaultLogFormat,
		"server.host":            "",
		"server.port":            DefaultPort,
		"server.allowed_origins": []string{},
		"server.secure_cookies":  false,
		"server.workspace_ttl":   DefaultWorkspaceTTL.String(),
		"server.dev":             false,
		"database.driver":        DefaultDriver,
		"database.dsn":           DefaultDSN,
		"auth.token_ttl":         DefaultTokenTTL.String(),
		"auth.bcrypt_cost":       DefaultBcryptCost,
		"ai.timeout":             DefaultAITimeout.String(),
		"preview.debounce":       DefaultDebounce.String(),
		"preview.headless":       false,
		"preview.settle":         DefaultSettle.String(),
		"preview.timeout":        DefaultRenderLimit.String(),
		"catalog.dir":            "",
		"catalog.watch":          false,
	}
}

// legacy collects the unprefixed variables that are set. A DATABASE_URL
// naming a postgres server also selects the postgres driver.
func legacy() map[string]any {
	out := make(map[string]any)
	for name, key := range legacyEnv {
		if v := os.Getenv(name); v != "" {
			out[key] = v
		}
	}
	if dsn, ok := out["database.dsn"].(string); ok {
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			out["database.driver"] = "postgres"
		}
	}
	return out
}

// envKey transforms PLAYGROUND_AUTH__TOKEN_TTL into auth.token_ttl.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// LoadConfig loads configuration from defaults, legacy environment
// variables, the config file, PLAYGROUND_ environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > legacy env > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Legacy variables sit just above the defaults
	if err := k.Load(confmap.Provider(legacy(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy env vars: %w", err)
	}

	// 3. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 4. PLAYGROUND_ environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal; durations and comma lists arrive as strings from env and flags
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Auth.Secret = expandEnvVars(cfg.Auth.Secret)
	cfg.Server.SessionSecret = expandEnvVars(cfg.Server.SessionSecret)
	cfg.AI.APIKey = expandEnvVars(cfg.AI.APIKey)
	cfg.Database.DSN = expandEnvVars(cfg.Database.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration, or nil
// before LoadConfig has run.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}
