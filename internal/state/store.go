// Package state provides persistence for accounts, snippets and revoked
// tokens on top of database/sql.
//
// SQLite (pure Go, modernc.org/sqlite) is the default backend; PostgreSQL is
// reached through the pgx stdlib driver. Queries are written with "?"
// placeholders and rebound for the target dialect.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/devplayground/playground/pkg/core"
)

// Dialect identifies the SQL flavour of the underlying database.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// Options configures Open.
type Options struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// DSN is a file path or ":memory:" for sqlite, a connection URL for postgres.
	DSN string
	// BcryptCost is the password hashing cost. Zero means bcrypt.DefaultCost.
	BcryptCost int
	Logger     *slog.Logger
}

// SQLStore implements core.Store.
type SQLStore struct {
	db         *sql.DB
	dialect    Dialect
	logger     *slog.Logger
	bcryptCost int
	now        func() time.Time
}

var _ core.Store = (*SQLStore)(nil)

// Open connects to the configured database and verifies the connection.
// It does not run migrations; call Migrate for that.
func Open(ctx context.Context, opts Options) (*SQLStore, error) {
	dialect, err := ParseDialect(opts.Driver)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect {
	case DialectSQLite:
		db, err = openSQLite(opts.DSN)
	case DialectPostgres:
		db, err = sql.Open("pgx", opts.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	s := NewWithDB(db, dialect, opts.Logger)
	if opts.BcryptCost != 0 {
		s.bcryptCost = opts.BcryptCost
	}
	s.logger.Debug("store opened", slog.String("dialect", string(dialect)))
	return s, nil
}

// NewWithDB wraps an existing connection. Useful for tests with sqlmock.
func NewWithDB(db *sql.DB, dialect Dialect, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLStore{
		db:         db,
		dialect:    dialect,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ParseDialect maps a driver name to a Dialect. Empty means sqlite.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q (want sqlite or postgres)", driver)
	}
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = MemoryDSN
	}

	if path == MemoryDSN {
		db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
		if err != nil {
			return nil, err
		}
		// Every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
		return db, nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	return sql.Open("sqlite", dsn)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Dialect returns the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// SetClock overrides the store's time source. Used by tests.
func (s *SQLStore) SetClock(now func() time.Time) {
	s.now = now
}

// rebind rewrites "?" placeholders to "$n" for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// isUniqueViolation reports whether err is a unique-constraint failure
// from either backend.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
