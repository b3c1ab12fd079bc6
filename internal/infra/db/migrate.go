package db

import (
	"database/sql"
	"fmt"
)

// Dialect selects the SQL flavour used by migrations and the key-value adapters.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// MigrateUp creates the key-value table that backs the recipe store.
func MigrateUp(db *sql.DB, dialect Dialect) error {
	var ddl string
	switch dialect {
	case DialectPostgres:
		ddl = `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	case DialectSQLite:
		ddl = `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	if _, err := db.Exec(ddl); err != nil {
		return err
	}
	return nil
}

// MigrateDown drops the key-value table.
// Use with caution: this deletes every stored recipe collection.
func MigrateDown(db *sql.DB) error {
	_, err := db.Exec(`DROP TABLE IF EXISTS kv_store`)
	return err
}
