package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	session     TEXT NOT NULL,
	mode        TEXT NOT NULL,
	farm        TEXT NOT NULL,
	field       TEXT NOT NULL,
	track_order TEXT NOT NULL DEFAULT '[]',
	renamed     TEXT NOT NULL DEFAULT '{}',
	deleted     TEXT NOT NULL DEFAULT '[]',
	dirty       INTEGER NOT NULL DEFAULT 0,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (session, mode, farm, field)
);

CREATE INDEX IF NOT EXISTS idx_entries_session ON entries(session);
`

// DB is the SQLite-backed ledger store. Persisting deltas (never
// geometry) lets an operator resume an edit session after a restart.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the ledger database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
