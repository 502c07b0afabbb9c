package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mssqldialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/tms-admin/tms-api/pkg/config"
)

// Open selects exactly one relational backend from the configured provider
// and returns a fully configured Bun session factory for it. Unsupported
// providers fail here, at startup, not at first query.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, db, err := openProvider(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if cfg.QueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := pingWithRetry(ctx, db, cfg.RetryCount, cfg.RetryDelay); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func openProvider(cfg config.DatabaseConfig) (*sql.DB, *bun.DB, error) {
	switch cfg.Provider {
	case config.ProviderPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil

	case config.ProviderMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		sqlDB, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil

	case config.ProviderSQLite:
		sqlDB, err := sql.Open(sqliteshim.ShimName, SQLiteDSN(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil

	case config.ProviderSQLServer:
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		sqlDB, err := sql.Open("sqlserver", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlserver: %w", err)
		}
		return sqlDB, bun.NewDB(sqlDB, mssqldialect.New()), nil

	default:
		return nil, nil, fmt.Errorf("unsupported database provider %q (supported: %s, %s, %s, %s)",
			cfg.Provider, config.ProviderPostgres, config.ProviderMySQL, config.ProviderSQLite, config.ProviderSQLServer)
	}
}

// SQLiteDSN resolves the embedded-storage path: a file named after the
// database inside the configured data directory. An empty data directory
// falls back to the working directory.
func SQLiteDSN(cfg config.DatabaseConfig) string {
	name := cfg.Name
	if name == "" {
		name = "tms_admin"
	}
	return "file:" + filepath.Join(cfg.SQLiteDataDir, name+".db") + "?cache=shared&_pragma=foreign_keys(1)"
}

// pingWithRetry verifies connectivity with a bounded transient-fault retry.
// Retries cover transport flakiness only; once exhausted the failure
// propagates to the caller.
func pingWithRetry(ctx context.Context, db *bun.DB, retries int, delay time.Duration) error {
	if retries < 0 {
		retries = 0
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}

		if attempt < retries {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("database connection test failed after %d attempts: %w", retries+1, err)
}
