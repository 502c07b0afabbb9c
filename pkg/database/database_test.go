package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tms-admin/tms-api/pkg/config"
)

func TestOpenUnsupportedProviderFailsFast(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Provider: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database provider")
}

func TestOpenSQLiteDefaultsToEmbeddedFile(t *testing.T) {
	cfg := config.DatabaseConfig{
		Provider:      config.ProviderSQLite,
		Name:          "tms_test",
		SQLiteDataDir: t.TempDir(),
		RetryCount:    1,
		RetryDelay:    10 * time.Millisecond,
	}

	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.PingContext(context.Background()))
}

func TestSQLiteDSN(t *testing.T) {
	dsn := SQLiteDSN(config.DatabaseConfig{Name: "tms_admin", SQLiteDataDir: "/var/lib/tms"})
	assert.True(t, strings.HasPrefix(dsn, "file:"))
	assert.Contains(t, dsn, "tms_admin.db")

	// Missing name falls back to the default database file.
	dsn = SQLiteDSN(config.DatabaseConfig{SQLiteDataDir: "."})
	assert.Contains(t, dsn, "tms_admin.db")
}
