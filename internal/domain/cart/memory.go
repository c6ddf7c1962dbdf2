package cart

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store implementation. Suitable for tests and
// single-node deployments where carts need not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	ledgers map[string]Ledger
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledgers: make(map[string]Ledger)}
}

// Get returns a copy of the session's ledger, or an empty ledger.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if l, ok := m.ledgers[sessionID]; ok {
		return l.Clone(), nil
	}
	return make(Ledger), nil
}

// Put replaces the session's ledger with a copy of l.
func (m *MemoryStore) Put(_ context.Context, sessionID string, l Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ledgers[sessionID] = l.Clone()
	return nil
}

// Clear empties the session's ledger.
func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ledgers[sessionID] = make(Ledger)
	return nil
}
