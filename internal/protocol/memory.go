package protocol

import "sync"

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]map[string]string
	writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]map[string]string{}}
}

func (m *MemoryStore) SetString(key, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.values[key]
	if !ok {
		k = map[string]string{}
		m.values[key] = k
	}
	k[name] = value
	m.writes++
	return nil
}

// Value returns a stored value and whether it exists.
func (m *MemoryStore) Value(key, name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key][name]
	return v, ok
}

// Snapshot returns a copy of all stored values.
func (m *MemoryStore) Snapshot() map[string]map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string]string, len(m.values))
	for key, names := range m.values {
		c := make(map[string]string, len(names))
		for n, v := range names {
			c[n] = v
		}
		out[key] = c
	}
	return out
}

func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
