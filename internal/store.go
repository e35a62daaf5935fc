package internal

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Keys under which the session is persisted
const (
	TokenKey   = "se-token"
	ProfileKey = "se-user"
)

// SessionStore persists the auth token and the last-known profile.
// Both values are written and cleared together.
type SessionStore interface {
	Load() (token string, profile *UserAccount, err error)
	Save(token string, profile *UserAccount) error
	Clear() error
	Close() error
}

// SQLiteStore is a SessionStore on top of the session_kv table
type SQLiteStore struct {
	db *sqlx.DB
}

var _ SessionStore = (*SQLiteStore)(nil)

// OpenStore opens the session store at path
func OpenStore(path string) (*SQLiteStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StoreError{Op: "open", Key: path, Err: err}
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStore wraps an already opened database
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load returns the stored token and profile. A token without a readable profile
// is returned with a nil profile; a profile without a token is ignored.
func (s *SQLiteStore) Load() (string, *UserAccount, error) {
	token, err := s.get(TokenKey)
	if err != nil {
		return "", nil, err
	}
	if token == "" {
		return "", nil, nil
	}

	raw, err := s.get(ProfileKey)
	if err != nil {
		return "", nil, err
	}
	if raw == "" {
		return token, nil, nil
	}

	var profile UserAccount
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		LogWarn("Ignoring unreadable stored profile: %v", err)
		return token, nil, nil
	}
	return token, &profile, nil
}

func (s *SQLiteStore) get(key string) (string, error) {
	var value string
	err := s.db.Get(&value, "SELECT value FROM session_kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &StoreError{Op: "load", Key: key, Err: err}
	}
	return value, nil
}

// Save writes token then profile in one transaction
func (s *SQLiteStore) Save(token string, profile *UserAccount) error {
	if token == "" {
		return s.Clear()
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT INTO session_kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := tx.Exec(upsert, TokenKey, token); err != nil {
		return &StoreError{Op: "save", Key: TokenKey, Err: err}
	}

	if profile != nil {
		data, err := json.Marshal(profile)
		if err != nil {
			return &StoreError{Op: "save", Key: ProfileKey, Err: err}
		}
		if _, err := tx.Exec(upsert, ProfileKey, string(data)); err != nil {
			return &StoreError{Op: "save", Key: ProfileKey, Err: err}
		}
	} else if _, err := tx.Exec("DELETE FROM session_kv WHERE key = ?", ProfileKey); err != nil {
		return &StoreError{Op: "save", Key: ProfileKey, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	return nil
}

// Clear removes both keys
func (s *SQLiteStore) Clear() error {
	query, args, err := sqlx.In("DELETE FROM session_kv WHERE key IN (?)", []string{TokenKey, ProfileKey})
	if err != nil {
		return &StoreError{Op: "clear", Err: err}
	}
	if _, err := s.db.Exec(s.db.Rebind(query), args...); err != nil {
		return &StoreError{Op: "clear", Err: err}
	}
	return nil
}

// Entries returns the raw stored rows, ordered by key
func (s *SQLiteStore) Entries() ([]KeyValuePair, error) {
	pairs, err := QuerySessionKV(s.db)
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}
	return pairs, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
