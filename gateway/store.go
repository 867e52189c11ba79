package gateway

import (
	"context"
	"sync"
)

// SessionState is what the gateway needs to resume a session.
type SessionState struct {
	SessionID string
	Seq       int64
}

func (s SessionState) Resumable() bool {
	return s.SessionID != ""
}

// SessionStore persists the gateway session per application, so a restarted
// process can resume instead of identifying again.
type SessionStore interface {
	// Load returns the stored state and false when none is stored.
	Load(ctx context.Context, appID string) (SessionState, bool, error)
	Save(ctx context.Context, appID string, state SessionState) error
	Clear(ctx context.Context, appID string) error
}

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]SessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]SessionState)}
}

func (m *MemoryStore) Load(_ context.Context, appID string) (SessionState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[appID]
	return s, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, appID string, state SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[appID] = state
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, appID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, appID)
	return nil
}
