package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	catalogsvc "github.com/devplayground/playground/internal/catalog"
	"github.com/devplayground/playground/internal/ui/features/common"
	"github.com/devplayground/playground/internal/ui/notifier"
)

// Handlers provides HTTP handlers for the catalog feature.
type Handlers struct {
	catalog      *catalogsvc.Catalog
	editors      *common.Editors
	sessionStore sessions.Store
	notifier     *notifier.Notifier
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cat *catalogsvc.Catalog, editors *common.Editors, sessionStore sessions.Store, notify *notifier.Notifier) *Handlers {
	return &Handlers{
		catalog:      cat,
		editors:      editors,
		sessionStore: sessionStore,
		notifier:     notify,
	}
}

// Categories lists categories and their subcategories without snippets.
func (h *Handlers) Categories(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, h.catalog.Categories())
}

// Entry returns one subcategory with its snippets.
func (h *Handlers) Entry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.catalog.Entry(chi.URLParam(r, "slug"))
	if !ok {
		common.Error(w, http.StatusNotFound, "Catalog entry not found")
		return
	}
	common.JSON(w, http.StatusOK, entry)
}

// Updates is the long-lived SSE endpoint that re-renders the sidebar
// whenever the catalog is reloaded.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			if ev.Topic != notifier.TopicCatalog {
				continue
			}
			sidebar := common.SidebarData{
				CatalogTree: common.BuildCatalogTree(h.catalog.Categories()),
				CurrentSlug: r.URL.Query().Get("entry"),
			}
			if err := sse.PatchElementTempl(common.Sidebar(sidebar)); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// Load copies one catalog snippet into the caller's workspace and
// re-renders the preview.
func (h *Handlers) Load(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.catalog.Entry(chi.URLParam(r, "slug"))
	if !ok {
		common.Error(w, http.StatusNotFound, "Catalog entry not found")
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(entry.Snippets) {
		common.Error(w, http.StatusNotFound, "Catalog snippet not found")
		return
	}

	id, err := h.editors.ID(w, r, h.sessionStore)
	if err != nil {
		common.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	bundle := entry.Snippets[index].Bundle
	version := h.editors.Workspace(id).Edit(bundle)
	surface := h.editors.Render(id, bundle)

	sse := datastar.NewSSE(w, r)
	signals := common.SignalsFor(bundle, version)
	signals.Surface = surface.ID
	if err := sse.MarshalAndPatchSignals(signals); err != nil {
		return
	}
	_ = sse.PatchElementTempl(common.PreviewFrame(surface))
}
