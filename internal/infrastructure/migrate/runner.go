// Package migrate provides utilities for running database migrations.
package migrate

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file source for migrations
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	dbpkg "github.com/popeskul/rentverify/internal/infrastructure/database"
	"github.com/popeskul/rentverify/migrations"
)

// Runner applies the schema for one dialect. Migrations come from the files
// embedded in the binary unless a directory is given with WithPath.
type Runner struct {
	dialect dbpkg.Dialect
	path    string
	logger  *zap.Logger
}

type Option func(*Runner)

// WithPath reads migrations from <path>/<dialect> on disk.
func WithPath(path string) Option {
	return func(r *Runner) {
		r.path = path
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(dialect dbpkg.Dialect, opts ...Option) *Runner {
	r := &Runner{
		dialect: dialect,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Up executes pending migrations.
func (r *Runner) Up() error {
	return r.with(func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to get version: %w", err)
		}
		if dirty {
			return fmt.Errorf("database is in dirty state at version %d", version)
		}

		r.logger.Info("Database schema up to date",
			zap.String("dialect", r.dialect.Name()),
			zap.Uint("version", version))
		return nil
	})
}

// Down rolls back the given number of migrations.
func (r *Runner) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	return r.with(func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		return nil
	})
}

// Version returns the current migration version.
func (r *Runner) Version() (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := r.with(func(m *migrate.Migrate) error {
		v, d, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		version, dirty = v, d
		return nil
	})
	return version, dirty, err
}

func (r *Runner) with(fn func(m *migrate.Migrate) error) error {
	if err := r.dialect.Prepare(); err != nil {
		return err
	}

	db, err := sql.Open(r.dialect.DriverName(), r.dialect.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			r.logger.Warn("Failed to close migration connection", zap.Error(closeErr))
		}
	}()

	driver, err := r.driver(db)
	if err != nil {
		return err
	}

	m, err := r.migrator(driver)
	if err != nil {
		return err
	}

	return fn(m)
}

func (r *Runner) driver(db *sql.DB) (database.Driver, error) {
	switch r.dialect.Name() {
	case dbpkg.Postgres:
		driver, err := postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres driver: %w", err)
		}
		return driver, nil
	case dbpkg.SQLite:
		driver, err := sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
		}
		return driver, nil
	default:
		return nil, fmt.Errorf("no migration driver for %q", r.dialect.Name())
	}
}

func (r *Runner) migrator(driver database.Driver) (*migrate.Migrate, error) {
	name := r.dialect.Name()

	if r.path != "" {
		m, err := migrate.NewWithDatabaseInstance(
			"file://"+filepath.ToSlash(filepath.Join(r.path, name)),
			name,
			driver,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
		return m, nil
	}

	src, err := iofs.New(migrations.FS, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
