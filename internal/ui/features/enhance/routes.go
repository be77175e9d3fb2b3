// Package enhance exposes the AI rewrite mediator over HTTP.
package enhance

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/devplayground/playground/internal/rewrite"
	"github.com/devplayground/playground/internal/ui/features/common"
)

// SetupRoutes configures routes for the enhance feature.
func SetupRoutes(
	router chi.Router,
	mediator *rewrite.Mediator,
	editors *common.Editors,
	sessionStore sessions.Store,
) error {
	handlers := NewHandlers(mediator, editors, sessionStore)

	router.Post("/api/enhance", handlers.Enhance)
	router.Get("/api/enhance/suggestions", handlers.Suggestions)
	router.Post("/ui/enhance", handlers.EnhanceUI)

	return nil
}
