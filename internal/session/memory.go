package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Expired entries are swept
// at most once a minute on write.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	lastGC   time.Time
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]Session{},
		lastGC:   time.Now().UTC(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok || s.Expired(m.now()) {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if now.Sub(m.lastGC) > time.Minute {
		for k, v := range m.sessions {
			if v.Expired(now) {
				delete(m.sessions, k)
			}
		}
		m.lastGC = now
	}
	m.sessions[key] = s
	return nil
}

func (m *MemoryStore) Touch(ctx context.Context, key string, idleExpiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return ErrNotFound
	}
	s.IdleExpiresAt = idleExpiresAt
	m.sessions[key] = s
	return nil
}

func (m *MemoryStore) Destroy(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// Len reports the number of held entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
