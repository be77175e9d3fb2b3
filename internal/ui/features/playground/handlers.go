package playground

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	authsvc "github.com/devplayground/playground/internal/auth"
	catalogsvc "github.com/devplayground/playground/internal/catalog"
	"github.com/devplayground/playground/internal/ui/features/common"
)

// DefaultDebounce is the quiet period after the last keystroke before the
// editor re-renders the preview.
const DefaultDebounce = 300 * time.Millisecond

// Options tunes the page.
type Options struct {
	IsDev    bool
	Debounce time.Duration
}

// Handlers provides HTTP handlers for the playground feature.
type Handlers struct {
	catalog      *catalogsvc.Catalog
	editors      *common.Editors
	auth         *authsvc.Service
	sessionStore sessions.Store
	opts         Options
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cat *catalogsvc.Catalog, editors *common.Editors, svc *authsvc.Service, sessionStore sessions.Store, opts Options) *Handlers {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Handlers{
		catalog:      cat,
		editors:      editors,
		auth:         svc,
		sessionStore: sessionStore,
		opts:         opts,
	}
}

// Page renders the playground with the caller's workspace already
// previewed, so the first paint needs no round trip.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	id, err := h.editors.ID(w, r, h.sessionStore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	bundle, version := h.editors.Workspace(id).Snapshot()
	surface := h.editors.Render(id, bundle)

	slug := r.URL.Query().Get("entry")
	data := PageData{
		Sidebar: common.SidebarData{
			CatalogTree:   common.BuildCatalogTree(h.catalog.Categories()),
			CurrentSlug:   slug,
			Authenticated: h.authenticated(r),
		},
		Signals:     common.SignalsFor(bundle, version),
		Surface:     surface,
		Suggestions: catalogsvc.Suggestions(),
		Debounce:    h.opts.Debounce,
	}
	data.Signals.Surface = surface.ID
	if entry, ok := h.catalog.Entry(slug); ok {
		data.Entry = &entry
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := common.Page("Editor", h.opts.IsDev, Body(data)).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handlers) authenticated(r *http.Request) bool {
	token := authsvc.TokenFromRequest(r, h.sessionStore)
	if token == "" {
		return false
	}
	_, err := h.auth.Verify(r.Context(), token)
	return err == nil
}
