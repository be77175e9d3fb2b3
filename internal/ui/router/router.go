// Package router sets up HTTP routes for the playground server.
package router

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/internal/catalog"
	"github.com/devplayground/playground/internal/rewrite"
	authFeature "github.com/devplayground/playground/internal/ui/features/auth"
	catalogFeature "github.com/devplayground/playground/internal/ui/features/catalog"
	codeFeature "github.com/devplayground/playground/internal/ui/features/code"
	"github.com/devplayground/playground/internal/ui/features/common"
	enhanceFeature "github.com/devplayground/playground/internal/ui/features/enhance"
	playgroundFeature "github.com/devplayground/playground/internal/ui/features/playground"
	previewFeature "github.com/devplayground/playground/internal/ui/features/preview"
	"github.com/devplayground/playground/internal/ui/notifier"
	"github.com/devplayground/playground/internal/ui/resources"
	"github.com/devplayground/playground/pkg/core"
)

// Deps are the services the routes are built from.
type Deps struct {
	Store        core.Store
	Auth         *auth.Service
	Mediator     *rewrite.Mediator
	Catalog      *catalog.Catalog
	Editors      *common.Editors
	Checker      previewFeature.Checker
	SessionStore sessions.Store
	Notifier     *notifier.Notifier
	IsDev        bool
	// Debounce is the editor's quiet period before an automatic preview.
	Debounce time.Duration
}

// SetupRoutes configures all routes for the server.
func SetupRoutes(router chi.Router, deps Deps) error {
	if deps.IsDev {
		setupReload(router)
	}

	router.NotFound(common.NotFound)
	router.MethodNotAllowed(common.MethodNotAllowed)

	router.Handle("/static/*", resources.Handler())

	if err := playgroundFeature.SetupRoutes(router, deps.Catalog, deps.Editors, deps.Auth, deps.SessionStore, playgroundFeature.Options{
		IsDev:    deps.IsDev,
		Debounce: deps.Debounce,
	}); err != nil {
		return err
	}

	if err := authFeature.SetupRoutes(router, deps.Auth, deps.SessionStore, deps.Notifier); err != nil {
		return err
	}

	if err := codeFeature.SetupRoutes(router, deps.Store, deps.Auth, deps.SessionStore); err != nil {
		return err
	}

	if err := enhanceFeature.SetupRoutes(router, deps.Mediator, deps.Editors, deps.SessionStore); err != nil {
		return err
	}

	if err := previewFeature.SetupRoutes(router, deps.Editors, deps.Checker, deps.SessionStore); err != nil {
		return err
	}

	if err := catalogFeature.SetupRoutes(router, deps.Catalog, deps.Editors, deps.SessionStore, deps.Notifier); err != nil {
		return err
	}

	return nil
}

// reloader pushes a page reload to dev clients. The first client to
// connect after a restart reloads at once so rebuilt assets are used.
type reloader struct {
	first   sync.Once
	trigger chan struct{}
}

func setupReload(router chi.Router) {
	rl := &reloader{trigger: make(chan struct{}, 1)}
	router.Get("/reload", rl.stream)
	router.Get("/hotreload", rl.fire)
}

func (rl *reloader) stream(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	reload := func() { _ = sse.ExecuteScript("window.location.reload()") }

	rl.first.Do(reload)
	select {
	case <-rl.trigger:
		reload()
	case <-r.Context().Done():
	}
}

func (rl *reloader) fire(w http.ResponseWriter, _ *http.Request) {
	select {
	case rl.trigger <- struct{}{}:
	default:
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
