package database

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/popeskul/rentverify/internal/config"
)

type postgresDialect struct {
	cfg config.DatabaseConfig
}

func (d *postgresDialect) Name() string       { return Postgres }
func (d *postgresDialect) DriverName() string { return "postgres" }
func (d *postgresDialect) DSN() string        { return d.cfg.GetDSN() }
func (d *postgresDialect) Prepare() error     { return nil }

func (d *postgresDialect) Configure(db *sqlx.DB) {
	maxOpen := d.cfg.MaxOpen
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := d.cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = 5
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
}
