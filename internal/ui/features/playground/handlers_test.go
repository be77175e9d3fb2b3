package playground

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/internal/ui/features"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t)
	return NewHandlers(fixture.Catalog, fixture.Editors, fixture.Auth, fixture.SessionStore, Options{IsDev: true}), fixture
}

func TestPage(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantBody []string
		notBody  []string
	}{
		{
			name:   "renders editors and preview",
			target: "/",
			wantBody: []string{
				"<!doctype html>",
				"<title>Editor - Playground</title>",
				`id="sidebar"`,
				`data-bind:html`,
				`data-bind:css`,
				`data-bind:js`,
				`@post('/ui/preview')`,
				`data-on:input__debounce.300ms`,
				`id="preview"`,
				`sandbox="allow-scripts"`,
				"Hello World",
				"/reload",
			},
			notBody: []string{"/api/auth/events", `class="entry"`},
		},
		{
			name:     "lists entry snippets",
			target:   "/?entry=navbar",
			wantBody: []string{`class="entry"`, "/ui/catalog/navbar/0", `<li class="active">`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t)

			rec := httptest.NewRecorder()
			h.Page(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
			for _, not := range tt.notBody {
				assert.NotContains(t, body, not)
			}
		})
	}
}

func TestPage_Authenticated(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	token, _ := fixture.SignUp("ada@example.com")

	// Put the token into the cookie session the way login does.
	login := httptest.NewRecorder()
	require.NoError(t, auth.SaveToSession(login, httptest.NewRequest(http.MethodGet, "/", nil), fixture.SessionStore, token))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.Page(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/auth/events")
	assert.Contains(t, rec.Body.String(), "Saved Codes")
}

func TestPage_KeepsWorkspaceAcrossRequests(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	first := httptest.NewRecorder()
	h.Page(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, first.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range first.Result().Cookies() {
		req.AddCookie(c)
	}
	second := httptest.NewRecorder()
	h.Page(second, req)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, fixture.Editors.Workspaces().Len())
}
