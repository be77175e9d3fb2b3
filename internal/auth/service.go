package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/devplayground/playground/pkg/core"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError describes rejected signup input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// EventKind distinguishes auth events.
type EventKind string

// Event kinds.
const (
	EventLogin  EventKind = "login"
	EventLogout EventKind = "logout"
)

// Event reports an auth-state change for one account.
type Event struct {
	AccountID string
	Kind      EventKind
}

// Store is the persistence the auth service needs.
type Store interface {
	core.AccountStore
	core.TokenStore
}

// Result is returned by Signup and Login.
type Result struct {
	Token   string        `json:"token"`
	Account *core.Account `json:"user"`
}

// Service implements signup, login, logout and token verification.
type Service struct {
	store   Store
	issuer  *Issuer
	logger  *slog.Logger
	publish func(Event)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher sets the callback for login and logout events.
func WithPublisher(fn func(Event)) Option {
	return func(s *Service) { s.publish = fn }
}

// NewService creates an auth service.
func NewService(store Store, issuer *Issuer, opts ...Option) *Service {
	s := &Service{
		store:   store,
		issuer:  issuer,
		logger:  slog.New(slog.DiscardHandler),
		publish: func(Event) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateSignup checks signup input.
func ValidateSignup(fullName, email, password string) error {
	switch {
	case strings.TrimSpace(fullName) == "":
		return &ValidationError{Message: "Full name is required"}
	case !emailPattern.MatchString(strings.TrimSpace(email)):
		return &ValidationError{Message: "Please enter a valid email address"}
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return &ValidationError{Message: fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)}
	}
	return nil
}

// Signup creates an account and returns a token for it.
func (s *Service) Signup(ctx context.Context, fullName, email, password string) (*Result, error) {
	if err := ValidateSignup(fullName, email, password); err != nil {
		return nil, err
	}

	acc, err := s.store.CreateAccount(ctx, fullName, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(acc)
}

// Login checks credentials and returns a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	acc, err := s.store.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(acc)
}

// Logout revokes the token described by claims.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	expires := time.Now().Add(s.issuer.TTL())
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := s.store.RevokeToken(ctx, claims.ID, expires); err != nil {
		return err
	}

	s.logger.Debug("logout", "account_id", claims.AccountID())
	s.publish(Event{AccountID: claims.AccountID(), Kind: EventLogout})
	return nil
}

// Verify parses token and rejects revoked tokens.
func (s *Service) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Account loads the account for id.
func (s *Service) Account(ctx context.Context, id string) (*core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *Service) issue(acc *core.Account) (*Result, error) {
	token, _, err := s.issuer.Issue(acc.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("login", "account_id", acc.ID)
	s.publish(Event{AccountID: acc.ID, Kind: EventLogin})
	return &Result{Token: token, Account: acc}, nil
}

// IsValidation reports whether err is a signup validation error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
