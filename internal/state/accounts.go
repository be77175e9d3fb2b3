package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/devplayground/playground/pkg/core"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the email is unknown so that both
// failure paths take roughly the same time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("playground-dummy-password"), bcrypt.MinCost)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers a new account, hashing the password.
func (s *SQLStore) CreateAccount(ctx context.Context, fullName, email, password string) (*core.Account, error) {
	email = NormalizeEmail(email)
	fullName = strings.TrimSpace(fullName)

	var one int
	err := s.queryRow(ctx, `SELECT 1 FROM accounts WHERE email = ?`, email).Scan(&one)
	switch {
	case err == nil:
		return nil, core.ErrAccountExists
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to check account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc := &core.Account{
		ID:        generateID(),
		FullName:  fullName,
		Email:     email,
		CreatedAt: s.now(),
	}

	_, err = s.exec(ctx,
		`INSERT INTO accounts (id, full_name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		acc.ID, acc.FullName, acc.Email, string(hash), toUnix(acc.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, core.ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Debug("account created", "account_id", acc.ID)
	return acc, nil
}

// Authenticate checks credentials. Unknown email and wrong password both
// return core.ErrInvalidCredentials.
func (s *SQLStore) Authenticate(ctx context.Context, email, password string) (*core.Account, error) {
	var (
		acc       core.Account
		hash      string
		createdAt int64
	)
	err := s.queryRow(ctx,
		`SELECT id, full_name, email, password_hash, created_at FROM accounts WHERE email = ?`,
		NormalizeEmail(email)).Scan(&acc.ID, &acc.FullName, &acc.Email, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, core.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, core.ErrInvalidCredentials
	}

	acc.CreatedAt = fromUnix(createdAt)
	return &acc, nil
}

// GetAccount returns the account with the given id.
func (s *SQLStore) GetAccount(ctx context.Context, id string) (*core.Account, error) {
	var (
		acc       core.Account
		createdAt int64
	)
	err := s.queryRow(ctx,
		`SELECT id, full_name, email, created_at FROM accounts WHERE id = ?`, id).
		Scan(&acc.ID, &acc.FullName, &acc.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	acc.CreatedAt = fromUnix(createdAt)
	return &acc, nil
}
