// Package code provides the saved-snippet endpoints.
package code

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	authsvc "github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/pkg/core"
)

// SetupRoutes configures routes for the code feature. Every route
// requires authentication.
func SetupRoutes(
	router chi.Router,
	store core.SnippetStore,
	svc *authsvc.Service,
	sessionStore sessions.Store,
) error {
	handlers := NewHandlers(store)

	router.Route("/api/code", func(r chi.Router) {
		r.Use(svc.Middleware(sessionStore))
		r.Post("/save", handlers.Save)
		r.Get("/my-codes", handlers.List)
		r.Get("/export/{id}", handlers.Export)
		r.Delete("/delete/{id}", handlers.Delete)
		r.Get("/{id}", handlers.Get)
	})

	return nil
}
