// Package store provides balance store implementations for the race engine:
// an in-memory map for tests and ephemeral hosts, and a Badger-backed store
// for servers that need balances to survive restarts.
package store

import "sync"

// MemoryStore keeps balances in an in-memory map. Unknown accounts read as 0.
type MemoryStore struct {
	mu       sync.RWMutex
	balances map[string]uint64
}

// NewMemoryStore creates an empty in-memory balance store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{balances: make(map[string]uint64)}
}

// Balance returns the balance for an account.
func (s *MemoryStore) Balance(account string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

// SetBalance replaces the balance for an account.
func (s *MemoryStore) SetBalance(account string, balance uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[account] = balance
	return nil
}
