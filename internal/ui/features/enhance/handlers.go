package enhance

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/devplayground/playground/internal/catalog"
	"github.com/devplayground/playground/internal/rewrite"
	"github.com/devplayground/playground/internal/ui/features/common"
	"github.com/devplayground/playground/internal/workspace"
	"github.com/devplayground/playground/pkg/core"
)

// StatusClientClosedRequest answers a rewrite abandoned by the caller.
const StatusClientClosedRequest = 499

// Messages shown when a rewrite cannot be used.
const (
	MessageNotConfigured = "AI enhancement is not configured"
	MessageStale         = "The code changed while the rewrite was running; your edits were kept."
)

// Handlers provides HTTP handlers for the enhance feature.
type Handlers struct {
	mediator     *rewrite.Mediator
	editors      *common.Editors
	sessionStore sessions.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(mediator *rewrite.Mediator, editors *common.Editors, sessionStore sessions.Store) *Handlers {
	return &Handlers{
		mediator:     mediator,
		editors:      editors,
		sessionStore: sessionStore,
	}
}

type enhanceRequest struct {
	Markup      string  `json:"html"`
	Style       string  `json:"css"`
	Script      string  `json:"js"`
	Instruction string  `json:"instruction"`
	Version     *uint64 `json:"version,omitempty"`
}

type enhanceResponse struct {
	Markup  string  `json:"html"`
	Style   string  `json:"css"`
	Script  string  `json:"js"`
	Version *uint64 `json:"version,omitempty"`
}

// StatusFor maps a failed rewrite to its HTTP status.
func StatusFor(res core.RewriteResult) int {
	switch res.Status {
	case core.RewriteApplied:
		return http.StatusOK
	case core.RewriteRejected:
		return http.StatusBadRequest
	case core.RewriteCancelled:
		return StatusClientClosedRequest
	default:
		return http.StatusBadGateway
	}
}

// Enhance rewrites the posted bundle. The endpoint keeps no state; a
// version sent by the client is echoed so it can detect stale results.
func (h *Handlers) Enhance(w http.ResponseWriter, r *http.Request) {
	if !h.mediator.Available() {
		common.Error(w, http.StatusServiceUnavailable, MessageNotConfigured)
		return
	}

	var req enhanceRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bundle := core.SourceBundle{Markup: req.Markup, Style: req.Style, Script: req.Script}
	res := h.mediator.Rewrite(r.Context(), bundle, req.Instruction)
	if !res.OK() {
		common.Error(w, StatusFor(res), res.Reason)
		return
	}

	common.JSON(w, http.StatusOK, enhanceResponse{
		Markup:  res.Bundle.Markup,
		Style:   res.Bundle.Style,
		Script:  res.Bundle.Script,
		Version: req.Version,
	})
}

// Suggestions lists example instructions. They are hints only.
func (h *Handlers) Suggestions(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, catalog.Suggestions())
}

// EnhanceUI rewrites the caller's workspace and patches the page. The
// result is applied only if the workspace did not change meanwhile.
func (h *Handlers) EnhanceUI(w http.ResponseWriter, r *http.Request) {
	var signals common.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		common.Error(w, http.StatusBadRequest, "Invalid signals")
		return
	}

	id, err := h.editors.ID(w, r, h.sessionStore)
	if err != nil {
		common.Error(w, http.StatusInternalServerError, "Server error")
		return
	}
	ws := h.editors.Workspace(id)
	bundle := signals.Bundle()
	base := ws.Edit(bundle)

	sse := datastar.NewSSE(w, r)

	if !h.mediator.Available() {
		_ = sse.PatchElementTempl(common.Toast(MessageNotConfigured))
		return
	}

	res := h.mediator.Rewrite(r.Context(), bundle, signals.Instruction)
	if res.Status == core.RewriteCancelled {
		return
	}

	version, err := ws.Apply(res, base)
	switch {
	case errors.Is(err, workspace.ErrStale):
		_ = sse.PatchElementTempl(common.Toast(MessageStale))
		return
	case err != nil:
		_ = sse.PatchElementTempl(common.Toast(res.Reason))
		return
	}

	next := common.SignalsFor(res.Bundle, version)
	if err := sse.MarshalAndPatchSignals(next); err != nil {
		return
	}
	_ = sse.PatchElementTempl(common.Toast(""))
	_ = sse.PatchElementTempl(common.PreviewFrame(h.editors.Render(id, res.Bundle)))
}
