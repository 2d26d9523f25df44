package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type sqliteDialect struct {
	path string
}

func (d *sqliteDialect) Name() string       { return SQLite }
func (d *sqliteDialect) DriverName() string { return "sqlite" }

func (d *sqliteDialect) DSN() string {
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Set("_time_format", "sqlite")
	return "file:" + d.path + "?" + params.Encode()
}

func (d *sqliteDialect) Prepare() error {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sqlite directory %s: %w", dir, err)
	}
	return nil
}

// Configure serializes access through a single connection; SQLite allows one
// writer at a time.
func (d *sqliteDialect) Configure(db *sqlx.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
}
