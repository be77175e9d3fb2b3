package preview

import (
	"context"

	"github.com/devplayground/playground/pkg/core"
)

// Renderer realises a bundle in some host and reports script errors
// through an ErrorHandler. Expected failures in user code are never
// returned as errors; the error return is for host failures only.
type Renderer interface {
	Render(ctx context.Context, bundle core.SourceBundle) error
	Close() error
}
