package ledger

import "sync"

// MemStorage is an in-memory Storage used when no database is configured
// and as a deterministic stub in tests.
type MemStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemStorage() *MemStorage {
	return &MemStorage{values: make(map[string]string)}
}

func (m *MemStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
