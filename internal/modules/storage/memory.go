package storage

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryStore returns a process-local Store. Values are lost on restart.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]map[string][]byte)}
}

func (m *memoryStore) Get(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[sessionID][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *memoryStore) Set(_ context.Context, sessionID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[sessionID]
	if !ok {
		s = make(map[string][]byte)
		m.data[sessionID] = s
	}
	s[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryStore) Delete(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.data[sessionID]; ok {
		delete(s, key)
		if len(s) == 0 {
			delete(m.data, sessionID)
		}
	}
	return nil
}
