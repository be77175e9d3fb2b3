package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/devplayground/playground/internal/cli/config"
	"github.com/devplayground/playground/internal/preview"
	"github.com/devplayground/playground/internal/rewrite"
	"github.com/devplayground/playground/internal/state"
	"github.com/devplayground/playground/pkg/core"
)

// Bundle file names used by the preview, enhance and catalog commands.
const (
	MarkupFile = "index.html"
	StyleFile  = "style.css"
	ScriptFile = "script.js"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext resolves the loaded configuration and the logger
// stored by the root command.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:    cfg,
		Logger: config.GetLogger(cmd.Context()),
	}, nil
}

// getConfig returns the configuration loaded by the root command, loading
// defaults and environment when a command runs on its own.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}

// openStore opens the configured store and applies pending migrations.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*state.SQLStore, error) {
	store, err := state.Open(ctx, state.Options{
		Driver:     cfg.Database.Driver,
		DSN:        cfg.Database.DSN,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// newMediator builds the rewrite mediator. Without an API key it returns
// an unavailable mediator so callers can report "not configured".
func newMediator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*rewrite.Mediator, error) {
	if cfg.AI.APIKey == "" {
		logger.Info("AI enhancement disabled: no API key configured")
		return rewrite.NewMediator(nil, rewrite.WithLogger(logger)), nil
	}

	completer, err := rewrite.NewGeminiCompleter(ctx, rewrite.GeminiConfig{
		APIKey: cfg.AI.APIKey,
		Model:  cfg.AI.Model,
		Params: cfg.AI.Params,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("AI enhancement enabled", slog.String("model", completer.Model()))

	return rewrite.NewMediator(completer,
		rewrite.WithLogger(logger),
		rewrite.WithTimeout(cfg.AI.Timeout),
	), nil
}

// newHeadless builds a headless renderer from the preview section.
func newHeadless(cfg *config.Config, logger *slog.Logger) *preview.HeadlessRenderer {
	return preview.NewHeadlessRenderer(preview.HeadlessOptions{
		Bin:        cfg.Preview.Browser,
		ControlURL: cfg.Preview.ControlURL,
		Settle:     cfg.Preview.Settle,
		Timeout:    cfg.Preview.Timeout,
		Logger:     logger,
	})
}

// readBundle reads the three bundle files from dir. Missing files are
// empty sources; a directory with none of them is an error.
func readBundle(dir string) (core.SourceBundle, error) {
	var bundle core.SourceBundle
	found := 0
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{MarkupFile, &bundle.Markup},
		{StyleFile, &bundle.Style},
		{ScriptFile, &bundle.Script},
	} {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return bundle, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		*f.dst = string(data)
		found++
	}
	if found == 0 {
		return bundle, fmt.Errorf("no %s, %s or %s in %s", MarkupFile, StyleFile, ScriptFile, dir)
	}
	return bundle, nil
}

// writeBundle writes all three files or none: each source goes to a
// temporary file first and the renames happen only once every write
// succeeded.
func writeBundle(dir string, bundle core.SourceBundle) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	files := []struct {
		name    string
		content string
	}{
		{MarkupFile, bundle.Markup},
		{StyleFile, bundle.Style},
		{ScriptFile, bundle.Script},
	}

	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := os.CreateTemp(dir, "."+f.name+".*")
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		temps = append(temps, tmp.Name())
		_, werr := tmp.WriteString(f.content)
		merr := tmp.Chmod(0644)
		cerr := tmp.Close()
		if err := errors.Join(werr, merr, cerr); err != nil {
			cleanup()
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	for i, f := range files {
		if err := os.Rename(temps[i], filepath.Join(dir, f.name)); err != nil {
			cleanup()
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}
	return nil
}
