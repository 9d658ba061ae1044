package sessions

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in a process-local map. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[SessionId]Session
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[SessionId]Session),
	}
}

// CreateSession mints a fresh id for userId. Every call yields a distinct id, so a
// user may hold several sessions at once.
func (m *MemoryStore) CreateSession(ctx context.Context, userId string) (string, error) {
	if userId == "" {
		return "", ErrInvalidUserId
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := SessionId(NewSessionId())
	for {
		if _, taken := m.sessions[id]; !taken {
			break
		}
		id = SessionId(NewSessionId())
	}
	m.sessions[id] = Session{Id: id, UserId: userId}
	return id.String(), nil
}

func (m *MemoryStore) UserIdForSessionId(ctx context.Context, sessionId string) (string, error) {
	s, ok := m.Session(sessionId)
	if !ok {
		return "", ErrSessionNotFound
	}
	return s.UserId, nil
}

func (m *MemoryStore) DestroySession(ctx context.Context, sessionId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[SessionId(sessionId)]; !ok || sessionId == "" {
		return ErrSessionNotFound
	}
	delete(m.sessions, SessionId(sessionId))
	return nil
}

// Session returns a copy of the stored record.
func (m *MemoryStore) Session(sessionId string) (Session, bool) {
	if sessionId == "" {
		return Session{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[SessionId(sessionId)]
	return s, ok
}

// Len reports how many records are held, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// replace overwrites an existing record. It is a no-op if the record was destroyed in between.
func (m *MemoryStore) replace(s Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.Id]; !ok {
		return false
	}
	m.sessions[s.Id] = s
	return true
}
