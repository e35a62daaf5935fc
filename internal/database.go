package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS session_kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// OpenDatabase opens (creating if needed) the SQLite database backing the session store.
// Pass ":memory:" for a throwaway database.
func OpenDatabase(path string) (*sqlx.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(sessionSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// KeyValuePair represents a row of session_kv
type KeyValuePair struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// QuerySessionKV returns all rows of session_kv, ordered by key
func QuerySessionKV(db *sqlx.DB) ([]KeyValuePair, error) {
	var pairs []KeyValuePair
	if err := db.Select(&pairs, "SELECT key, value FROM session_kv ORDER BY key"); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return pairs, nil
}
