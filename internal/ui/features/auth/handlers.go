package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	authsvc "github.com/devplayground/playground/internal/auth"
	"github.com/devplayground/playground/internal/ui/features/common"
	"github.com/devplayground/playground/internal/ui/notifier"
)

// Handlers provides HTTP handlers for the auth feature.
type Handlers struct {
	svc          *authsvc.Service
	sessionStore sessions.Store
	notifier     *notifier.Notifier
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *authsvc.Service, sessionStore sessions.Store, notify *notifier.Notifier) *Handlers {
	return &Handlers{
		svc:          svc,
		sessionStore: sessionStore,
		notifier:     notify,
	}
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authSignals is patched into the page when auth state changes.
type authSignals struct {
	Authenticated bool `json:"authenticated"`
}

// Signup creates an account and answers 201 {token, user}.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.svc.Signup(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		if authsvc.IsValidation(err) {
			common.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		common.WriteStoreError(w, err)
		return
	}

	h.remember(w, r, res.Token)
	common.JSON(w, http.StatusCreated, res)
}

// Login checks credentials and answers 200 {token, user}.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteStoreError(w, err)
		return
	}

	h.remember(w, r, res.Token)
	common.JSON(w, http.StatusOK, res)
}

// Me returns the authenticated account.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	acc, err := h.svc.Account(r.Context(), authsvc.AccountID(r.Context()))
	if err != nil {
		common.WriteStoreError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, acc)
}

// Logout revokes the current token and clears the session cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := authsvc.ClaimsFrom(r.Context())
	if err := h.svc.Logout(r.Context(), claims); err != nil {
		common.WriteStoreError(w, err)
		return
	}

	h.remember(w, r, "")
	common.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Events streams {authenticated} signal patches for the caller's account.
// Each auth event re-verifies the caller's token, so a logout from any
// tab flips every open page.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	claims, _ := authsvc.ClaimsFrom(r.Context())
	token := authsvc.TokenFromRequest(r, h.sessionStore)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(authSignals{Authenticated: true}); err != nil {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			if !ev.Matches(notifier.TopicAuth, claims.AccountID()) {
				continue
			}
			_, err := h.svc.Verify(ctx, token)
			authenticated := err == nil
			if err := sse.MarshalAndPatchSignals(authSignals{Authenticated: authenticated}); err != nil {
				return
			}
			if !authenticated {
				return
			}
		}
	}
}

// remember mirrors the token into the session cookie for the page UI.
func (h *Handlers) remember(w http.ResponseWriter, r *http.Request, token string) {
	if h.sessionStore == nil {
		return
	}
	_ = authsvc.SaveToSession(w, r, h.sessionStore, token)
}
