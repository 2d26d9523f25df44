// Package database selects and opens the relational store backing the
// repositories. PostgreSQL and an embedded SQLite file are interchangeable
// behind the Dialect interface; the choice is made once at startup.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/popeskul/rentverify/internal/config"
	"github.com/popeskul/rentverify/internal/repository"
)

const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Dialect describes one backing store.
type Dialect interface {
	// Name is the dialect identifier, also used to pick migrations.
	Name() string
	DriverName() string
	DSN() string
	// Prepare runs any filesystem setup needed before the first connection.
	Prepare() error
	// Configure tunes the connection pool.
	Configure(db *sqlx.DB)
}

// NewDialect returns the dialect selected by the configuration.
func NewDialect(cfg config.DatabaseConfig) (Dialect, error) {
	switch cfg.DriverName() {
	case Postgres:
		return &postgresDialect{cfg: cfg}, nil
	case SQLite:
		return &sqliteDialect{path: cfg.SQLitePath}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects to the store and verifies the connection. A failure to reach
// the store is reported as repository.ErrStorageUnavailable.
func Open(ctx context.Context, d Dialect) (*sqlx.DB, error) {
	if err := d.Prepare(); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}

	db, err := sqlx.Open(d.DriverName(), d.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}
	d.Configure(db)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}

	return db, nil
}
