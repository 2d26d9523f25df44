package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/popeskul/rentverify/internal/config"
	"github.com/popeskul/rentverify/internal/infrastructure/database"
	"github.com/popeskul/rentverify/internal/infrastructure/migrate"
)

// openMigrated opens a store for the given config with the schema applied.
func openMigrated(t *testing.T, cfg config.DatabaseConfig) *sqlx.DB {
	t.Helper()

	dialect, err := database.NewDialect(cfg)
	require.NoError(t, err)

	require.NoError(t, migrate.NewRunner(dialect).Up())

	db, err := database.Open(context.Background(), dialect)
	require.NoError(t, err)
	return db
}

func setupSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db := openMigrated(t, config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "rent_data.db"),
	})
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupPostgres starts a disposable Postgres and returns a function handing
// out an emptied, migrated database.
func setupPostgres(t *testing.T) func(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db := openMigrated(t, config.DatabaseConfig{Driver: "postgres", URL: dsn})
	t.Cleanup(func() { _ = db.Close() })

	return func(t *testing.T) *sqlx.DB {
		cleanupTestData(t, db)
		return db
	}
}

func cleanupTestData(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec("TRUNCATE TABLE rent_records, payments, outgoing_messages RESTART IDENTITY")
	require.NoError(t, err)
}
