package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/devplayground/playground/internal/state"
	"github.com/devplayground/playground/internal/testutil"
	"github.com/devplayground/playground/pkg/core"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) publish(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func setupService(t *testing.T) (*Service, *eventLog) {
	t.Helper()
	store, err := state.Open(context.Background(), state.Options{
		DSN:        state.MemoryDSN,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	events := &eventLog{}
	svc := NewService(store, issuer, WithLogger(testutil.NewTestLogger(t)), WithPublisher(events.publish))
	return svc, events
}

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		email    string
		password string
		wantErr  string
	}{
		{name: "valid", fullName: "Ada", email: "ada@example.com", password: "password1"},
		{name: "missing name", fullName: "  ", email: "ada@example.com", password: "password1", wantErr: "Full name is required"},
		{name: "bad email", fullName: "Ada", email: "ada.example.com", password: "password1", wantErr: "Please enter a valid email address"},
		{name: "email without tld", fullName: "Ada", email: "ada@example", password: "password1", wantErr: "Please enter a valid email address"},
		{name: "short password", fullName: "Ada", email: "ada@example.com", password: "short", wantErr: "Password must be at least 8 characters long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignup(tt.fullName, tt.email, tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestService_SignupLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, events := setupService(t)

	res, err := svc.Signup(ctx, "Ada Lovelace", "ada@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ada@example.com", res.Account.Email)

	_, err = svc.Signup(ctx, "Ada Again", "ada@example.com", "password123")
	assert.ErrorIs(t, err, core.ErrAccountExists)

	login, err := svc.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)

	_, errWrong := svc.Login(ctx, "ada@example.com", "wrong-password")
	_, errUnknown := svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, errWrong, core.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, core.ErrInvalidCredentials)

	claims, err := svc.Verify(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, claims.AccountID())

	require.NoError(t, svc.Logout(ctx, claims))
	_, err = svc.Verify(ctx, login.Token)
	assert.ErrorIs(t, err, ErrInvalidToken, "revoked tokens are rejected")

	_, err = svc.Verify(ctx, res.Token)
	assert.NoError(t, err, "other tokens of the same account stay valid")

	assert.Equal(t, []Event{
		{AccountID: res.Account.ID, Kind: EventLogin},
		{AccountID: res.Account.ID, Kind: EventLogin},
		{AccountID: res.Account.ID, Kind: EventLogout},
	}, events.all())
}

func TestService_Middleware(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	cookies := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))

	res, err := svc.Signup(ctx, "Ada", "ada@example.com", "password123")
	require.NoError(t, err)

	revoked, err := svc.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)
	claims, err := svc.Verify(ctx, revoked.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	// Cookie carrying the token, as set by the playground page.
	rec := httptest.NewRecorder()
	require.NoError(t, SaveToSession(rec, httptest.NewRequest(http.MethodGet, "/", nil), cookies, res.Token))
	sessionCookie := rec.Result().Cookies()[0]

	protected := svc.Middleware(cookies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(AccountID(r.Context())))
	}))

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "no token",
			setup:    func(*http.Request) {},
			wantCode: http.StatusUnauthorized,
			wantBody: `{"message":"No token, authorization denied"}`,
		},
		{
			name:     "bearer token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+res.Token) },
			wantCode: http.StatusOK,
			wantBody: res.Account.ID,
		},
		{
			name:     "lower-case scheme",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "bearer "+res.Token) },
			wantCode: http.StatusOK,
			wantBody: res.Account.ID,
		},
		{
			name:     "session cookie",
			setup:    func(r *http.Request) { r.AddCookie(sessionCookie) },
			wantCode: http.StatusOK,
			wantBody: res.Account.ID,
		},
		{
			name:     "invalid token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantCode: http.StatusUnauthorized,
			wantBody: `{"message":"Token is not valid"}`,
		},
		{
			name:     "revoked token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+revoked.Token) },
			wantCode: http.StatusUnauthorized,
			wantBody: `{"message":"Token is not valid"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			protected.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
