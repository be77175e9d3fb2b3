package common

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/internal/preview"
	"github.com/devplayground/playground/internal/workspace"
	"github.com/devplayground/playground/pkg/core"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const workspaceKey = "workspace"

// Editors ties a browser session to its workspace and preview session.
type Editors struct {
	workspaces *workspace.Registry
	logger     *slog.Logger

	mu       sync.Mutex
	previews map[string]*preview.Session
}

// NewEditors creates an Editors on top of reg. Preview sessions are
// dropped together with their workspace.
func NewEditors(reg *workspace.Registry, logger *slog.Logger) *Editors {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Editors{
		workspaces: reg,
		logger:     logger,
		previews:   make(map[string]*preview.Session),
	}
	reg.OnEvict(e.drop)
	return e
}

// Workspaces returns the underlying registry.
func (e *Editors) Workspaces() *workspace.Registry {
	return e.workspaces
}

// ID returns the editing-session id stored in the cookie session,
// creating and saving one if needed.
func (e *Editors) ID(w http.ResponseWriter, r *http.Request, store sessions.Store) (string, error) {
	sess, err := store.Get(r, auth.SessionName)
	if err != nil && sess == nil {
		return "", err
	}
	if id, ok := sess.Values[workspaceKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[workspaceKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// Workspace returns the workspace for id.
func (e *Editors) Workspace(id string) *workspace.Workspace {
	return e.workspaces.Get(id)
}

// Preview returns the preview session for id, creating it on first use.
func (e *Editors) Preview(id string) *preview.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.previews[id]; ok {
		return s
	}
	s := preview.NewSession(
		preview.WithLogger(e.logger),
		preview.WithErrorHandler(func(surfaceID string, err core.RenderError) {
			e.logger.Info("preview error", slog.String("workspace", id), slog.String("surface", surfaceID), slog.String("message", err.Message))
		}),
	)
	e.previews[id] = s
	return s
}

// Render replaces the preview surface of id with one for bundle.
func (e *Editors) Render(id string, bundle core.SourceBundle) preview.Surface {
	return e.Preview(id).Render(bundle)
}

func (e *Editors) drop(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.previews[id]; ok {
		s.Dispose()
		delete(e.previews, id)
	}
}
