package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie session used by the playground page.
const SessionName = "playground"

// sessionTokenKey holds the bearer token inside the cookie session.
const sessionTokenKey = "token"

type claimsKey struct{}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the claims stored by Middleware.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// AccountID returns the authenticated account id, or "".
func AccountID(ctx context.Context) string {
	if c, ok := ClaimsFrom(ctx); ok {
		return c.AccountID()
	}
	return ""
}

// TokenFromRequest returns the bearer token from the Authorization
// header or, failing that, from the session cookie.
func TokenFromRequest(r *http.Request, store sessions.Store) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	if store == nil {
		return ""
	}
	sess, err := store.Get(r, SessionName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[sessionTokenKey].(string)
	return token
}

// SaveToSession stores token in the session cookie. An empty token clears it.
func SaveToSession(w http.ResponseWriter, r *http.Request, store sessions.Store, token string) error {
	sess, err := store.Get(r, SessionName)
	if err != nil && sess == nil {
		return err
	}
	if token == "" {
		delete(sess.Values, sessionTokenKey)
	} else {
		sess.Values[sessionTokenKey] = token
	}
	return sess.Save(r, w)
}

// Middleware rejects requests without a valid, unrevoked token with 401.
func (s *Service) Middleware(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, store)
			if token == "" {
				unauthorized(w, "No token, authorization denied")
				return
			}

			claims, err := s.Verify(r.Context(), token)
			if err != nil {
				s.logger.Debug("rejected token", "error", err)
				unauthorized(w, "Token is not valid")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
