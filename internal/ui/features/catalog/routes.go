// Package catalog serves the example snippet catalog.
package catalog

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	catalogsvc "github.com/devplayground/playground/internal/catalog"
	"github.com/devplayground/playground/internal/ui/features/common"
	"github.com/devplayground/playground/internal/ui/notifier"
)

// SetupRoutes configures routes for the catalog feature.
func SetupRoutes(
	router chi.Router,
	cat *catalogsvc.Catalog,
	editors *common.Editors,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
) error {
	handlers := NewHandlers(cat, editors, sessionStore, notify)

	router.Get("/api/catalog", handlers.Categories)
	router.Get("/api/catalog/{slug}", handlers.Entry)
	router.Get("/ui/catalog/updates", handlers.Updates)
	router.Post("/ui/catalog/{slug}/{index}", handlers.Load)

	return nil
}
