// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/internal/catalog"
	"github.com/devplayground/playground/internal/rewrite"
	"github.com/devplayground/playground/internal/state"
	"github.com/devplayground/playground/internal/testutil"
	"github.com/devplayground/playground/internal/ui/features/common"
	"github.com/devplayground/playground/internal/ui/notifier"
	"github.com/devplayground/playground/internal/workspace"
	"github.com/devplayground/playground/pkg/core"
)

// TestSecret signs both session cookies and tokens in tests.
const TestSecret = "test-secret-key-32-bytes-long!!"

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Store        *state.SQLStore
	Auth         *auth.Service
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Catalog      *catalog.Catalog
	Editors      *common.Editors

	t *testing.T
}

// SetupTestFixture creates a fixture backed by an in-memory store and the
// embedded catalog seeds.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)

	store, err := state.Open(context.Background(), state.Options{
		DSN:        state.MemoryDSN,
		BcryptCost: bcrypt.MinCost,
		Logger:     logger,
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	issuer, err := auth.NewIssuer(TestSecret, auth.DefaultTokenTTL)
	require.NoError(t, err)

	notify := notifier.New()
	svc := auth.NewService(store, issuer,
		auth.WithLogger(logger),
		auth.WithPublisher(func(ev auth.Event) {
			notify.Broadcast(notifier.Event{Topic: notifier.TopicAuth, Subject: ev.AccountID, Kind: string(ev.Kind)})
		}),
	)

	cat, err := catalog.New("", logger)
	require.NoError(t, err)

	reg := workspace.NewRegistry(workspace.WithInitial(catalog.DefaultBundle), workspace.WithLogger(logger))

	return &TestFixture{
		Store:        store,
		Auth:         svc,
		Notifier:     notify,
		SessionStore: NewTestSessionStore(),
		Catalog:      cat,
		Editors:      common.NewEditors(reg, logger),
		t:            t,
	}
}

// SignUp creates an account and returns its bearer token.
func (f *TestFixture) SignUp(email string) (string, *core.Account) {
	f.t.Helper()
	res, err := f.Auth.Signup(context.Background(), "Test User", email, "password123")
	require.NoError(f.t, err)
	return res.Token, res.Account
}

// Mediator returns a mediator answering every prompt with response.
func Mediator(response string, err error) *rewrite.Mediator {
	return rewrite.NewMediator(rewrite.CompleterFunc(func(context.Context, string) (string, error) {
		return response, err
	}))
}

// JSONRequest builds a request with a JSON body and optional bearer token.
func JSONRequest(method, target, body, token string) *http.Request {
	req, _ := http.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout. The cancel
// func is released when the test ends.
func RequestWithTimeout(t *testing.T, r *http.Request, timeout time.Duration) *http.Request {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	t.Cleanup(cancel)
	return r.WithContext(ctx)
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte(TestSecret))
}
