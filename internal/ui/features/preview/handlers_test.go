package preview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	previewsvc "github.com/devplayground/playground/internal/preview"
	"github.com/devplayground/playground/internal/ui/features"
	"github.com/devplayground/playground/pkg/core"
)

type stubChecker struct {
	errs []core.RenderError
	err  error
	got  core.SourceBundle
}

func (s *stubChecker) Check(_ context.Context, bundle core.SourceBundle) ([]core.RenderError, error) {
	s.got = bundle
	return s.errs, s.err
}

func setupRouter(t *testing.T, checker Checker) (chi.Router, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t)
	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, fixture.Editors, checker, fixture.SessionStore))
	return r, fixture
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPreview(t *testing.T) {
	r, _ := setupRouter(t, nil)

	body := `{"html":"<h1>Hi</h1>","css":"h1 { color: red","js":"let = ;"}`
	rec := serve(r, features.JSONRequest(http.MethodPost, "/api/preview", body, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Surface)
	assert.Contains(t, resp.Document, "<h1>Hi</h1>")
	assert.Contains(t, resp.Document, resp.Surface)

	languages := map[string]bool{}
	for _, d := range resp.Diagnostics {
		languages[d.Language] = true
	}
	assert.True(t, languages["JavaScript"])
	assert.True(t, languages["CSS"])
}

func TestPreview_DistinctSurfaces(t *testing.T) {
	r, _ := setupRouter(t, nil)

	seen := map[string]bool{}
	for range 3 {
		rec := serve(r, features.JSONRequest(http.MethodPost, "/api/preview", `{"html":"x"}`, ""))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp previewResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, seen[resp.Surface], "surface ids must be unique")
		seen[resp.Surface] = true
		assert.Empty(t, resp.Diagnostics)
	}
}

func TestPreview_LeavesEditingSessionsAlone(t *testing.T) {
	r, fixture := setupRouter(t, nil)

	live := fixture.Editors.Render("editor-1", core.SourceBundle{Markup: "<p>mine</p>"})

	for range 2 {
		rec := serve(r, features.JSONRequest(http.MethodPost, "/api/preview", `{"html":"<p>theirs</p>"}`, ""))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	session := fixture.Editors.Preview("editor-1")
	assert.True(t, session.IsCurrent(live.ID))
	assert.Equal(t, 0, session.Disposed())
	assert.True(t, session.Report(live.ID, "boom"))
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		checker    Checker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "disabled",
			checker:    nil,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"message":"Headless rendering is not enabled"}`,
		},
		{
			name:       "no browser",
			checker:    &stubChecker{err: previewsvc.ErrBrowserUnavailable},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"message":"Headless rendering is not enabled"}`,
		},
		{
			name:       "render failure",
			checker:    &stubChecker{err: errors.New("crashed")},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"message":"Render failed"}`,
		},
		{
			name:       "reports errors",
			checker:    &stubChecker{errs: []core.RenderError{{Message: "boom"}}},
			wantStatus: http.StatusOK,
			wantBody:   `{"errors":[{"message":"boom"}],"diagnostics":[]}`,
		},
		{
			name:       "clean render",
			checker:    &stubChecker{},
			wantStatus: http.StatusOK,
			wantBody:   `{"errors":[],"diagnostics":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(t, tt.checker)

			rec := serve(r, features.JSONRequest(http.MethodPost, "/api/preview/check", `{"js":"throw new Error('boom')"}`, ""))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestPreviewUI_ReplacesSurface(t *testing.T) {
	r, fixture := setupRouter(t, nil)

	first := serve(r, features.JSONRequest(http.MethodPost, "/ui/preview", `{"html":"<p>one</p>"}`, ""))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), `id="preview"`)
	assert.Contains(t, first.Body.String(), `sandbox="allow-scripts"`)
	assert.Contains(t, first.Body.String(), "datastar-patch-signals")

	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := features.JSONRequest(http.MethodPost, "/ui/preview", `{"html":"<p>two</p>"}`, "")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	second := serve(r, req)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, fixture.Editors.Workspaces().Len())
}

func TestReportError(t *testing.T) {
	_, fixture := setupRouter(t, nil)
	h := NewHandlers(fixture.Editors, nil, fixture.SessionStore)

	// Render once to obtain a live surface for the session.
	rec := httptest.NewRecorder()
	req := features.JSONRequest(http.MethodPost, "/ui/preview", `{"js":"throw 1"}`, "")
	h.PreviewUI(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	id, err := fixture.Editors.ID(httptest.NewRecorder(), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), cookies), fixture.SessionStore)
	require.NoError(t, err)
	live, ok := fixture.Editors.Preview(id).Current()
	require.True(t, ok)

	tests := []struct {
		name    string
		surface string
		want    string
	}{
		{"live surface", live.ID, `{"delivered":true}`},
		{"disposed surface", "stale-surface", `{"delivered":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"surface":"` + tt.surface + `","message":"boom"}`
			rec := httptest.NewRecorder()
			h.ReportError(rec, withCookies(features.JSONRequest(http.MethodPost, "/ui/preview/error", body, ""), cookies))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func withCookies(r *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}
