package session

import (
	"fmt"
	"sort"
	"sync"
)

// Store defines the interface for session bookkeeping
type Store interface {
	// SaveSession adds or replaces a session
	SaveSession(session *Session) error

	// GetSession retrieves a session by ID
	GetSession(id string) (*Session, error)

	// ListSessions returns all sessions, oldest first
	ListSessions() ([]*Session, error)

	// DeleteSession removes a session
	DeleteSession(id string) error

	// Close discards every session
	Close() error
}

// MemoryStore implements Store in process memory. Sessions never outlive
// the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// SaveSession adds or replaces a session
func (m *MemoryStore) SaveSession(session *Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

// GetSession retrieves a session by ID
func (m *MemoryStore) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// ListSessions returns all sessions, oldest first
func (m *MemoryStore) ListSessions() ([]*Session, error) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// DeleteSession removes a session. Deleting an unknown session is not an error.
func (m *MemoryStore) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Close discards every session
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
	return nil
}
