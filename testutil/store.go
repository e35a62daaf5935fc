package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/iksnae/skillswap/internal"
)

// CreateInMemoryStore returns a session store on a throwaway database
func CreateInMemoryStore(t *testing.T) *internal.SQLiteStore {
	t.Helper()
	db, err := internal.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	store := internal.NewSQLiteStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

// StorePath returns a fresh store path inside a temp directory
func StorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(CreateTempDir(t), "session.db")
}

// SeedStore writes raw session rows to the database at path, bypassing
// SQLiteStore so tests can plant partial or corrupt state. Empty values are
// not written.
func SeedStore(t *testing.T, path, token string, profile any) {
	t.Helper()
	db, err := internal.OpenDatabase(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	put := func(key, value string) {
		if _, err := db.Exec("INSERT OR REPLACE INTO session_kv (key, value) VALUES (?, ?)", key, value); err != nil {
			t.Fatalf("Failed to seed %s: %v", key, err)
		}
	}
	if token != "" {
		put(internal.TokenKey, token)
	}
	switch p := profile.(type) {
	case nil:
	case string:
		put(internal.ProfileKey, p)
	default:
		put(internal.ProfileKey, string(JSONMarshal(t, p)))
	}
}

// ReadStore returns the raw rows stored at path
func ReadStore(t *testing.T, path string) map[string]string {
	t.Helper()
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	pairs, err := internal.QuerySessionKV(db)
	if err != nil {
		t.Fatalf("Failed to read store: %v", err)
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		out[p.Key] = p.Value
	}
	return out
}

// DecodeProfile decodes a stored profile row
func DecodeProfile(t *testing.T, raw string) *internal.UserAccount {
	t.Helper()
	var u internal.UserAccount
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("Failed to decode stored profile: %v", err)
	}
	return &u
}
