package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/devplayground/playground/internal/cli/config"
	"github.com/devplayground/playground/pkg/core"
)

// useConfig loads configuration for a command test from the given
// PLAYGROUND_ variables, isolated from the host environment.
func useConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) || name == "PORT" || name == "JWT_SECRET" || name == "GEMINI_API_KEY" || name == "DATABASE_URL" {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	for name, v := range env {
		t.Setenv(name, v)
	}

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return cfg
}

// runCommand executes cmd with args and returns stdout and stderr.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestBundle(t *testing.T, bundle core.SourceBundle) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, writeBundle(dir, bundle))
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func bundleIn(dir string) []string {
	return []string{
		filepath.Join(dir, MarkupFile),
		filepath.Join(dir, StyleFile),
		filepath.Join(dir, ScriptFile),
	}
}
