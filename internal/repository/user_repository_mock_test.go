package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// Exercises the query shapes against a mocked connection so the identity
// statements stay pinned even when the SQLite round-trip tests evolve.
func TestUpdateLastLoginIssuesSingleUpdate(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	db := bun.NewDB(sqldb, pgdialect.New())
	repo := NewUserRepository(newSession(db))

	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateLastLogin(context.Background(), 42, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeRefreshTokenTargetsUnrevokedRows(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	db := bun.NewDB(sqldb, pgdialect.New())
	repo := NewUserRepository(newSession(db))

	mock.ExpectExec("UPDATE refresh_tokens").WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.RevokeRefreshToken(context.Background(), "opaque-token")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
