// Package preview serves preview documents and collects their errors.
package preview

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	previewsvc "github.com/devplayground/playground/internal/preview"
	"github.com/devplayground/playground/internal/ui/features/common"
	"github.com/devplayground/playground/pkg/core"
)

// SetupRoutes configures routes for the preview feature. checker may be
// nil when no headless browser is configured.
func SetupRoutes(
	router chi.Router,
	editors *common.Editors,
	checker Checker,
	sessionStore sessions.Store,
) error {
	handlers := NewHandlers(editors, checker, sessionStore)

	router.Post("/api/preview", handlers.Preview)
	router.Post("/api/preview/check", handlers.Check)
	router.Post("/ui/preview", handlers.PreviewUI)
	router.Post("/ui/preview/error", handlers.ReportError)

	return nil
}

// Checker renders a bundle out of process and returns its script errors.
type Checker interface {
	Check(ctx context.Context, bundle core.SourceBundle) ([]core.RenderError, error)
}

var _ Checker = (*previewsvc.HeadlessRenderer)(nil)
