package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devplayground/playground/internal/cli/config"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) || name == "PORT" || name == "JWT_SECRET" || name == "GEMINI_API_KEY" || name == "DATABASE_URL" {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"version", "serve", "preview", "enhance", "catalog", "migrate", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCmd_CommandFlagsReachConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PLAYGROUND_SERVER__PORT", "7100")

	root := NewRootCmd()
	root.SetArgs([]string{"version", "--log-format", "json", "-v"})
	var out bytes.Buffer
	root.SetOut(&out)
	require.NoError(t, root.ExecuteContext(context.Background()))

	cfg := config.GetCurrentConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 7100, cfg.Server.Port)
	assert.Contains(t, out.String(), "playground v")
}

func TestMergedFlags(t *testing.T) {
	root := NewRootCmd()
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, serve.Flags().Set("port", "9000"))

	flags := mergedFlags(serve)
	for _, name := range []string{"config", "verbose", "log-format", "port", "db", "headless"} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
	assert.True(t, flags.Lookup("port").Changed)
	assert.False(t, flags.Lookup("db").Changed)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantDebug bool
		wantJSON  bool
	}{
		{name: "text info", cfg: config.Config{LogFormat: "text"}},
		{name: "verbose", cfg: config.Config{LogFormat: "text", Verbose: true}, wantDebug: true},
		{name: "json", cfg: config.Config{LogFormat: "json"}, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, &tt.cfg)

			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))

			logger.Info("hello", slog.String("k", "v"))
			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"hello"`)
			} else {
				assert.Contains(t, buf.String(), "msg=hello")
			}
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := NewRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})

			require.NoError(t, root.Execute())
			assert.Contains(t, out.String(), "playground")
		})
	}
}

func TestCompletionCommand_InvalidShell(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"completion", "tcsh"})

	require.Error(t, root.Execute())
}
