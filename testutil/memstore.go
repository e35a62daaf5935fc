package testutil

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/iksnae/skillswap/internal"
)

// MemoryStore is a process-local SessionStore for tests that need no database
type MemoryStore struct {
	mu      sync.Mutex
	token   string
	profile []byte
	// FailSave makes Save fail, for exercising partial-write handling
	FailSave error
}

var _ internal.SessionStore = (*MemoryStore)(nil)

// Load returns the stored session
func (m *MemoryStore) Load() (string, *internal.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", nil, nil
	}
	if m.profile == nil {
		return m.token, nil, nil
	}
	var profile internal.UserAccount
	if err := json.Unmarshal(m.profile, &profile); err != nil {
		return m.token, nil, nil
	}
	return m.token, &profile, nil
}

// Save stores the session
func (m *MemoryStore) Save(token string, profile *internal.UserAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return &internal.StoreError{Op: "save", Err: m.FailSave}
	}
	var data []byte
	if profile != nil {
		var err error
		if data, err = json.Marshal(profile); err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
	}
	m.token, m.profile = token, data
	return nil
}

// Clear removes the session
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.profile = "", nil
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }
