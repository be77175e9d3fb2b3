// Package auth provides the signup, login and auth-state endpoints.
package auth

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	authsvc "github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/internal/ui/notifier"
)

// SetupRoutes configures routes for the auth feature.
func SetupRoutes(
	router chi.Router,
	svc *authsvc.Service,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
) error {
	handlers := NewHandlers(svc, sessionStore, notify)

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", handlers.Signup)
		r.Post("/login", handlers.Login)

		r.Group(func(r chi.Router) {
			r.Use(svc.Middleware(sessionStore))
			r.Get("/me", handlers.Me)
			r.Post("/logout", handlers.Logout)
			r.Get("/events", handlers.Events)
		})
	})

	return nil
}
