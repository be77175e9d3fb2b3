// Package playground renders the editor page.
package playground

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	authsvc "github.com/devplayground/playground/internal/auth"
	catalogsvc "github.com/devplayground/playground/internal/catalog"
	"github.com/devplayground/playground/internal/ui/features/common"
)

// SetupRoutes configures routes for the playground feature.
func SetupRoutes(
	router chi.Router,
	cat *catalogsvc.Catalog,
	editors *common.Editors,
	svc *authsvc.Service,
	sessionStore sessions.Store,
	opts Options,
) error {
	handlers := NewHandlers(cat, editors, svc, sessionStore, opts)

	router.Get("/", handlers.Page)

	return nil
}
