package preview

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	previewsvc "github.com/devplayground/playground/internal/preview"
	"github.com/devplayground/playground/internal/ui/features/common"
	"github.com/devplayground/playground/pkg/core"
)

// Handlers provides HTTP handlers for the preview feature.
type Handlers struct {
	editors      *common.Editors
	checker      Checker
	sessionStore sessions.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(editors *common.Editors, checker Checker, sessionStore sessions.Store) *Handlers {
	return &Handlers{
		editors:      editors,
		checker:      checker,
		sessionStore: sessionStore,
	}
}

type bundleRequest struct {
	Markup string `json:"html"`
	Style  string `json:"css"`
	Script string `json:"js"`
}

func (b bundleRequest) bundle() core.SourceBundle {
	return core.SourceBundle{Markup: b.Markup, Style: b.Style, Script: b.Script}
}

type previewResponse struct {
	Surface     string                  `json:"surface"`
	Document    string                  `json:"document"`
	Diagnostics []previewsvc.Diagnostic `json:"diagnostics"`
}

type checkResponse struct {
	Errors      []core.RenderError      `json:"errors"`
	Diagnostics []previewsvc.Diagnostic `json:"diagnostics"`
}

type errorReport struct {
	Surface string `json:"surface"`
	Message string `json:"message"`
}

// Preview builds the sandboxed document for a bundle. The client hosts it
// in an iframe with sandbox="allow-scripts". The call is stateless: the
// surface belongs to the caller and no editing session is touched.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	var req bundleRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bundle := req.bundle()
	surface := previewsvc.NewSurface(bundle, time.Now())
	common.JSON(w, http.StatusOK, previewResponse{
		Surface:     surface.ID,
		Document:    surface.Document,
		Diagnostics: nonNil(previewsvc.Diagnose(bundle)),
	})
}

// Check renders a bundle in the headless browser and returns the errors
// its scripts raised.
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		common.Error(w, http.StatusServiceUnavailable, "Headless rendering is not enabled")
		return
	}

	var req bundleRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bundle := req.bundle()
	errs, err := h.checker.Check(r.Context(), bundle)
	switch {
	case errors.Is(err, previewsvc.ErrBrowserUnavailable):
		common.Error(w, http.StatusServiceUnavailable, "Headless rendering is not enabled")
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		common.Error(w, http.StatusBadGateway, "Render failed")
		return
	}
	if errs == nil {
		errs = []core.RenderError{}
	}

	common.JSON(w, http.StatusOK, checkResponse{
		Errors:      errs,
		Diagnostics: nonNil(previewsvc.Diagnose(bundle)),
	})
}

// PreviewUI stores the editors' bundle in the workspace and swaps the
// iframe for a new surface. The old surface is disposed with it.
func (h *Handlers) PreviewUI(w http.ResponseWriter, r *http.Request) {
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

	bundle := signals.Bundle()
	version := h.editors.Workspace(id).Edit(bundle)
	surface := h.editors.Render(id, bundle)

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(common.PreviewFrame(surface)); err != nil {
		return
	}
	if err := sse.MarshalAndPatchSignals(map[string]any{"surface": surface.ID, "version": version}); err != nil {
		return
	}
	_ = sse.PatchElementTempl(Diagnostics(previewsvc.Diagnose(bundle)))
}

// ReportError receives an error forwarded from the page's iframe. Errors
// from a surface that has been replaced are dropped.
func (h *Handlers) ReportError(w http.ResponseWriter, r *http.Request) {
	var report errorReport
	if err := common.DecodeJSON(w, r, &report); err != nil {
		common.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.editors.ID(w, r, h.sessionStore)
	if err != nil {
		common.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	delivered := h.editors.Preview(id).Report(report.Surface, report.Message)
	common.JSON(w, http.StatusOK, map[string]bool{"delivered": delivered})
}

// Diagnostics renders the static syntax problems list.
func Diagnostics(diags []previewsvc.Diagnostic) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := `<ul id="diagnostics" class="diagnostics">`
		for _, d := range diags {
			out += `<li class="diagnostic ` + d.Language + `">` + d.Language + ` ` +
				common.Itoa(d.Line) + `:` + common.Itoa(d.Column) + ` ` + templ.EscapeString(d.Message) + `</li>`
		}
		out += `</ul>`
		_, err := io.WriteString(w, out)
		return err
	})
}

func nonNil(d []previewsvc.Diagnostic) []previewsvc.Diagnostic {
	if d == nil {
		return []previewsvc.Diagnostic{}
	}
	return d
}
