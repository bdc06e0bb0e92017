// Package storage persists batch runs and their result rows. Postgres is
// reached through pgx; SQLite through the pure-Go modernc driver.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect int

const (
	DialectPostgres Dialect = iota + 1
	DialectSQLite
)

// Placeholder returns the bind parameter for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}

	return "?"
}

type DB struct {
	*sql.DB
	Dialect Dialect
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS batch_runs (
		id TEXT PRIMARY KEY,
		profile TEXT NOT NULL,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		matched_count INTEGER NOT NULL DEFAULT 0,
		error_count INTEGER NOT NULL DEFAULT 0,
		failure TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS lookup_results (
		run_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		unit TEXT NOT NULL,
		original TEXT NOT NULL,
		company_name TEXT NOT NULL,
		nzbn TEXT NOT NULL,
		matched_name TEXT NOT NULL,
		directors TEXT NOT NULL,
		PRIMARY KEY (run_id, row_index)
	)`,
}

// Open connects to dsn and makes sure the schema exists. postgres:// and
// postgresql:// URLs use pgx; sqlite://<path>, file: URIs, :memory: and
// paths ending in .db or .sqlite use SQLite.
func Open(ctx context.Context, dsn string) (*DB, error) {
	driver, source, dialect, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if dialect == DialectSQLite {
		// every new :memory: connection would otherwise see an empty database
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}

	db := &DB{DB: conn, Dialect: dialect}

	if err := db.EnsureSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	return nil
}

func parseDSN(dsn string) (driver, source string, dialect Dialect, err error) {
	dsn = strings.TrimSpace(dsn)

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn, DialectPostgres, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), DialectSQLite, nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:",
		strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return "sqlite", dsn, DialectSQLite, nil
	default:
		return "", "", 0, fmt.Errorf("unsupported database dsn %q", dsn)
	}
}
