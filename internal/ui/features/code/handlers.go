package code

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/internal/ui/features/common"
	"github.com/devplayground/playground/pkg/core"
)

// Handlers provides HTTP handlers for the code feature.
type Handlers struct {
	store core.SnippetStore
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store core.SnippetStore) *Handlers {
	return &Handlers{store: store}
}

type saveRequest struct {
	Name   string   `json:"name"`
	Tags   []string `json:"tags"`
	Markup string   `json:"html"`
	Style  string   `json:"css"`
	Script string   `json:"js"`
}

// SnippetView is the wire form of a saved snippet.
type SnippetView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags"`
	Markup    string    `json:"html"`
	Style     string    `json:"css"`
	Script    string    `json:"js"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type duplicateResponse struct {
	Message       string `json:"message"`
	SuggestedName string `json:"suggestedName"`
}

func toView(s *core.Snippet) SnippetView {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return SnippetView{
		ID:        s.ID,
		Name:      s.Name,
		Tags:      tags,
		Markup:    s.Bundle.Markup,
		Style:     s.Bundle.Style,
		Script:    s.Bundle.Script,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Save stores the bundle under a name. A taken name answers 409 with
// the first free "<name> (n)" so the client can offer a rename.
func (h *Handlers) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	owner := authsvc.AccountID(ctx)
	bundle := core.SourceBundle{Markup: req.Markup, Style: req.Style, Script: req.Script}

	snippet, err := h.store.SaveSnippet(ctx, owner, req.Name, req.Tags, bundle)
	if errors.Is(err, core.ErrDuplicateName) {
		suggested, nerr := h.store.NextAvailableName(ctx, owner, req.Name)
		if nerr != nil {
			common.WriteStoreError(w, nerr)
			return
		}
		_, msg := common.StoreError(err)
		common.JSON(w, http.StatusConflict, duplicateResponse{Message: msg, SuggestedName: suggested})
		return
	}
	if err != nil {
		common.WriteStoreError(w, err)
		return
	}

	common.JSON(w, http.StatusCreated, toView(snippet))
}

// List returns the caller's snippets, newest first.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.store.ListSnippets(r.Context(), authsvc.AccountID(r.Context()))
	if err != nil {
		common.WriteStoreError(w, err)
		return
	}

	views := make([]SnippetView, 0, len(snippets))
	for _, s := range snippets {
		views = append(views, toView(s))
	}
	common.JSON(w, http.StatusOK, views)
}

// Get returns one of the caller's snippets.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.store.GetSnippet(r.Context(), authsvc.AccountID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteStoreError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, toView(snippet))
}

// Export returns one of the caller's snippets as a Markdown document.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.store.GetSnippet(r.Context(), authsvc.AccountID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteStoreError(w, err)
		return
	}

	doc, err := Markdown(snippet)
	if err != nil {
		common.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+Filename(snippet.Name)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// Delete removes one of the caller's snippets. Another owner's snippet
// answers 404 like a missing one.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSnippet(r.Context(), authsvc.AccountID(r.Context()), chi.URLParam(r, "id")); err != nil {
		common.WriteStoreError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "Snippet deleted successfully"})
}
