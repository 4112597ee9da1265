package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. It backs development
// servers running without Valkey and handler tests.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	data    Data
	expires time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ttl:      DefaultTTL,
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, data *Data) (string, error) {
	token, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	data.CreatedAt = now
	m.sessions[token] = memoryEntry{data: *data, expires: now.Add(m.ttl)}
	return token, nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.sessions, token)
		return nil, nil
	}
	data := e.data
	return &data, nil
}

func (m *MemoryStore) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

var (
	_ Manager = (*Store)(nil)
	_ Manager = (*MemoryStore)(nil)
)
