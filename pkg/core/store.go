package core

import (
	"context"
	"time"
)

// Account is a registered user. The password hash never leaves the store.
type Account struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultSnippetName is used when a snippet is saved without a name.
const DefaultSnippetName = "Untitled Code"

// Snippet is a named SourceBundle persisted for an owner.
type Snippet struct {
	ID        string
	OwnerID   string
	Name      string
	Tags      []string
	Bundle    SourceBundle
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountStore persists accounts. Implementations hash passwords;
// plaintext passwords are never stored or compared.
type AccountStore interface {
	CreateAccount(ctx context.Context, fullName, email, password string) (*Account, error)
	Authenticate(ctx context.Context, email, password string) (*Account, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
}

// SnippetStore persists snippets scoped by owner.
type SnippetStore interface {
	SaveSnippet(ctx context.Context, ownerID, name string, tags []string, bundle SourceBundle) (*Snippet, error)
	ListSnippets(ctx context.Context, ownerID string) ([]*Snippet, error)
	GetSnippet(ctx context.Context, ownerID, id string) (*Snippet, error)
	DeleteSnippet(ctx context.Context, ownerID, id string) error
	NextAvailableName(ctx context.Context, ownerID, name string) (string, error)
}

// TokenStore records revoked bearer tokens until they expire.
type TokenStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Store is the full persistence boundary used by the server.
type Store interface {
	AccountStore
	SnippetStore
	TokenStore
	Close() error
}
