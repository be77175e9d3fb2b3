package state

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Migrate runs all pending database migrations for the store's dialect.
func (s *SQLStore) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	return MigrateWithDB(s.db, s.dialect)
}

// MigrateWithDB runs migrations using a raw database connection.
func MigrateWithDB(db *sql.DB, dialect Dialect) error {
	if err := configureGoose(dialect); err != nil {
		return err
	}

	if err := goose.Up(db, migrationsDir(dialect)); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// GetMigrationVersion returns the current migration version.
func (s *SQLStore) GetMigrationVersion() (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	if err := configureGoose(s.dialect); err != nil {
		return 0, err
	}

	return goose.GetDBVersion(s.db)
}

func configureGoose(dialect Dialect) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	name := "sqlite3"
	if dialect == DialectPostgres {
		name = "postgres"
	}
	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

func migrationsDir(dialect Dialect) string {
	return "migrations/" + string(dialect)
}
