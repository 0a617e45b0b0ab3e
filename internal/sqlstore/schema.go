// Package sqlstore provides a SQLite-backed durable store for the entry
// collection with the same whole-collection semantics as the JSON file.
package sqlstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	position          INTEGER PRIMARY KEY,
	id                TEXT NOT NULL UNIQUE,
	creation_date     TEXT NOT NULL,
	modification_date TEXT NOT NULL,
	title             TEXT NOT NULL DEFAULT '',
	url               TEXT,
	note              TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// initialisedKey marks that at least one snapshot has been written, so an
// empty collection can be told apart from one that was never persisted.
const initialisedKey = "initialised"

// DB wraps a sql.DB with entry snapshot operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
