// Package ui provides the playground HTTP server: JSON API, editor page
// and SSE streams.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/internal/catalog"
	"github.com/devplayground/playground/internal/rewrite"
	"github.com/devplayground/playground/internal/ui/features/common"
	previewFeature "github.com/devplayground/playground/internal/ui/features/preview"
	"github.com/devplayground/playground/internal/ui/notifier"
	"github.com/devplayground/playground/internal/ui/router"
	"github.com/devplayground/playground/internal/workspace"
	"github.com/devplayground/playground/pkg/core"
)

// DefaultAllowedOrigins are the browser origins allowed to call the API
// with credentials.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"https://developer-playground.vercel.app",
}

// TokenPurgeInterval is how often expired revocations are deleted.
const TokenPurgeInterval = time.Hour

// Server is the playground HTTP server.
type Server struct {
	cfg          Config
	sessionStore *sessions.CookieStore
	notifier     *notifier.Notifier
	editors      *common.Editors
	logger       *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Store    core.Store
	Auth     *auth.Service
	Mediator *rewrite.Mediator
	Catalog  *catalog.Catalog
	// Checker renders bundles in a headless browser. Nil disables
	// /api/preview/check.
	Checker previewFeature.Checker
	// Notifier is shared with the auth service's publisher. Nil creates one.
	Notifier *notifier.Notifier

	Host           string
	Port           int
	SessionSecret  string
	SecureCookies  bool
	AllowedOrigins []string
	WatchCatalog   bool
	WorkspaceTTL   time.Duration
	SweepInterval  time.Duration
	Debounce       time.Duration
	Dev            bool
	Logger         *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notifier.New()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultAllowedOrigins
	}
	if cfg.WorkspaceTTL <= 0 {
		cfg.WorkspaceTTL = workspace.DefaultIdleTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = cfg.WorkspaceTTL / 4
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(int(auth.DefaultTokenTTL.Seconds()))
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.SecureCookies
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	reg := workspace.NewRegistry(
		workspace.WithIdleTTL(cfg.WorkspaceTTL),
		workspace.WithInitial(catalog.DefaultBundle),
		workspace.WithLogger(logger),
	)

	return &Server{
		cfg:          cfg,
		sessionStore: sessionStore,
		notifier:     cfg.Notifier,
		editors:      common.NewEditors(reg, logger),
		logger:       logger,
	}
}

// Handler builds the routed handler with its middleware stack.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Datastar-Request"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	err := router.SetupRoutes(r, router.Deps{
		Store:        s.cfg.Store,
		Auth:         s.cfg.Auth,
		Mediator:     s.cfg.Mediator,
		Catalog:      s.cfg.Catalog,
		Editors:      s.editors,
		Checker:      s.cfg.Checker,
		SessionStore: s.sessionStore,
		Notifier:     s.notifier,
		IsDev:        s.cfg.Dev,
		Debounce:     s.cfg.Debounce,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the server and its background workers and blocks until
// the context is cancelled or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	s.logger.Info("starting playground server", "addr", "http://"+displayHost(s.cfg.Host)+":"+fmt.Sprint(s.cfg.Port))

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.WatchCatalog && s.cfg.Catalog != nil && s.cfg.Catalog.Dir() != "" {
		eg.Go(func() error {
			return s.cfg.Catalog.Watch(egctx, s.catalogChanged)
		})
	}

	eg.Go(func() error {
		return s.editors.Workspaces().Run(egctx, s.cfg.SweepInterval)
	})

	if p, ok := s.cfg.Store.(tokenPurger); ok {
		eg.Go(func() error {
			return s.purgeTokens(egctx, p)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down playground server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

func (s *Server) catalogChanged() {
	cats, entries, snippets := s.cfg.Catalog.Count()
	s.logger.Info("catalog reloaded", "categories", cats, "entries", entries, "snippets", snippets)
	s.notifier.Broadcast(notifier.Event{Topic: notifier.TopicCatalog, Kind: "reload"})
}

type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

func (s *Server) purgeTokens(ctx context.Context, p tokenPurger) error {
	ticker := time.NewTicker(TokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := p.PurgeExpiredTokens(ctx)
			if err != nil {
				s.logger.Warn("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("purged revoked tokens", "count", n)
			}
		}
	}
}

func displayHost(host string) string {
	if host == "" || host == "0.0.0.0" {
		return "localhost"
	}
	return host
}
