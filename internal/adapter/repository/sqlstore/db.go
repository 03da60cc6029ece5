// Package sqlstore implements the fund and NAV repositories over database/sql
// for PostgreSQL (lib/pq) and SQLite (mattn/go-sqlite3).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DB wraps the database connection together with its SQL dialect
type DB struct {
	*sql.DB
	dialect dialect
}

// NewDB opens and pings a database connection
// driver is "postgres" or "sqlite3"; the DSN format is the driver's own,
// e.g. "host=localhost port=5432 user=postgres password=postgres dbname=fundnav sslmode=disable"
// or "file:fundnav.db?_busy_timeout=5000&_fk=1"
func NewDB(driver, dsn string) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Every connection to ":memory:" is a separate database
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: d}, nil
}

// Driver returns the name of the underlying database/sql driver
func (db *DB) Driver() string {
	return db.dialect.driver
}

// EnsureSchema creates the tables and indexes if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, db.dialect.schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// dialect captures the few places the two engines disagree
// Both accept $N placeholders as long as they first appear in ascending order
type dialect struct {
	driver string
	schema string
	// containsFn returns the 1-based position of a substring, 0 when absent; case-sensitive
	containsFn string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverPostgres:
		return dialect{driver: driver, schema: postgresSchema, containsFn: "strpos"}, nil
	case DriverSQLite:
		return dialect{driver: driver, schema: sqliteSchema, containsFn: "instr"}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS funds (
	id         BIGSERIAL PRIMARY KEY,
	code       TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	fund_type  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS fund_navs (
	id               BIGSERIAL PRIMARY KEY,
	fund_id          BIGINT NOT NULL REFERENCES funds(id) ON DELETE CASCADE,
	nav_date         DATE NOT NULL,
	nav              NUMERIC NOT NULL,
	accumulated_nav  NUMERIC,
	daily_change_pct NUMERIC,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (fund_id, nav_date)
);

CREATE INDEX IF NOT EXISTS idx_fund_navs_fund_date ON fund_navs (fund_id, nav_date DESC);
`

// Decimals are stored as TEXT so SQLite never coerces them to REAL
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS funds (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	code       TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	fund_type  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS fund_navs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	fund_id          INTEGER NOT NULL REFERENCES funds(id) ON DELETE CASCADE,
	nav_date         DATE NOT NULL,
	nav              TEXT NOT NULL,
	accumulated_nav  TEXT,
	daily_change_pct TEXT,
	created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (fund_id, nav_date)
);

CREATE INDEX IF NOT EXISTS idx_fund_navs_fund_date ON fund_navs (fund_id, nav_date DESC);
`
