package state

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/devplayground/playground/pkg/core"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db, DialectPostgres, nil), mock
}

func TestPostgres_DeleteSnippet(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
		anyErr    bool
	}{
		{
			name: "deleted",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM snippets WHERE id = \$1 AND owner_id = \$2`).
					WithArgs("s1", "u1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM snippets`).
					WithArgs("s1", "u1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: core.ErrNotFound,
		},
		{
			name: "driver error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM snippets`).WillReturnError(assert.AnError)
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := setupMockStore(t)
			tt.setupMock(mock)

			err := store.DeleteSnippet(context.Background(), "u1", "s1")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.ErrorIs(t, err, assert.AnError)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgres_SaveSnippetUniqueViolation(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT 1 FROM snippets WHERE owner_id = \$1 AND name = \$2`).
		WithArgs("u1", "Card").
		WillReturnRows(sqlmock.NewRows([]string{"one"}))
	mock.ExpectExec(`INSERT INTO snippets`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	_, err := store.SaveSnippet(context.Background(), "u1", "Card", nil, core.SourceBundle{})
	assert.ErrorIs(t, err, core.ErrDuplicateName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_IsTokenRevoked(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT 1 FROM revoked_tokens WHERE token_id = \$1`).
		WithArgs("jti").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

	revoked, err := store.IsTokenRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(assert.AnError))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
}
