package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/internal/catalog"
	"github.com/devplayground/playground/internal/preview"
	"github.com/devplayground/playground/internal/ui"
	previewFeature "github.com/devplayground/playground/internal/ui/features/preview"
	"github.com/devplayground/playground/internal/ui/notifier"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the playground server",
		Long: `Start the HTTP server providing the JSON API and the editor page.

The server provides:
- Account signup, login and logout
- Saved snippets per account, with markdown export
- Live preview of HTML/CSS/JS bundles
- AI enhancement when an API key is configured
- The component catalog, optionally hot-reloaded from a directory`,
		Example: `  # Start on the default port
  playground serve

  # Start on a custom port with a postgres store
  playground serve --port 8080 --db-driver postgres --db postgres://localhost/playground

  # Development mode: live reload and a built-in token secret
  playground serve --dev --catalog-dir ./snippets --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().String("host", "", "Interface to listen on (default: all)")
	cmd.Flags().Int("port", 0, "Port to serve on (default: 5000)")
	cmd.Flags().Bool("dev", false, "Development mode: live reload, built-in token secret")
	cmd.Flags().String("db-driver", "", "Store driver (sqlite|postgres)")
	cmd.Flags().String("db", "", "Store DSN: sqlite path or postgres URL")
	cmd.Flags().String("model", "", "Gemini model for enhancement")
	cmd.Flags().Bool("headless", false, "Enable /api/preview/check with a headless browser")
	cmd.Flags().String("browser", "", "Browser binary for headless checks")
	cmd.Flags().String("catalog-dir", "", "Directory of catalog YAML overrides")
	cmd.Flags().Bool("watch", false, "Reload the catalog directory on change")

	_ = cmd.RegisterFlagCompletionFunc("db-driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg, logger := cc.Cfg, cc.Logger
	ctx := cmd.Context()

	secret, err := cfg.RequireSecret()
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		logger.Warn("using the built-in development token secret")
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	issuer, err := auth.NewIssuer(secret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	notify := notifier.New()
	authSvc := auth.NewService(store, issuer,
		auth.WithLogger(logger),
		auth.WithPublisher(func(ev auth.Event) {
			notify.Broadcast(notifier.Event{Topic: notifier.TopicAuth, Subject: ev.AccountID, Kind: string(ev.Kind)})
		}),
	)

	mediator, err := newMediator(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to configure AI enhancement: %w", err)
	}

	cat, err := catalog.New(cfg.Catalog.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	categories, entries, snippets := cat.Count()
	logger.Info("catalog loaded",
		slog.Int("categories", categories),
		slog.Int("entries", entries),
		slog.Int("snippets", snippets))

	// A typed nil would make the interface non-nil, so the checker stays
	// unset unless headless rendering is on.
	var checker previewFeature.Checker
	if cfg.Preview.Headless {
		if _, ok := preview.BrowserPath(); !ok && cfg.Preview.Browser == "" && cfg.Preview.ControlURL == "" {
			logger.Warn("headless checks enabled but no browser was found; requests will fail until one is installed")
		}
		renderer := newHeadless(cfg, logger)
		defer func() { _ = renderer.Close() }()
		checker = renderer
	}

	server := ui.NewServer(ui.Config{
		Store:          store,
		Auth:           authSvc,
		Mediator:       mediator,
		Catalog:        cat,
		Checker:        checker,
		Notifier:       notify,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		SessionSecret:  cfg.SessionSecret(secret),
		SecureCookies:  cfg.Server.SecureCookies,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		WatchCatalog:   cfg.Catalog.Watch,
		WorkspaceTTL:   cfg.Server.WorkspaceTTL,
		Debounce:       cfg.Preview.Debounce,
		Dev:            cfg.Server.Dev,
		Logger:         logger,
	})

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	if err := server.Serve(ctx); err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	return nil
}
