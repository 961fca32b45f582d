package db

import (
	"fmt"
	"sync"

	"github.com/example/asterisk/internal/models"
)

// MemoryVaultStore keeps vault items in a map guarded by a single mutex.
//
// It is neither persistent nor encrypted: a restart loses every item. A
// persistent backend implements VaultStore without touching call sites.
type MemoryVaultStore struct {
	mu    sync.Mutex
	items map[string]models.VaultItem
}

// NewMemoryVaultStore creates an empty store.
func NewMemoryVaultStore() *MemoryVaultStore {
	return &MemoryVaultStore{items: make(map[string]models.VaultItem)}
}

// NewMemoryVaultStoreWithItems creates a store seeded with items keyed by their
// own Key. Items with an empty key are skipped.
func NewMemoryVaultStoreWithItems(items []models.VaultItem) *MemoryVaultStore {
	store := NewMemoryVaultStore()
	for _, item := range items {
		_ = store.Set(item.Key, item)
	}
	return store
}

func (s *MemoryVaultStore) Set(key string, item models.VaultItem) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = item.Clone()
	return nil
}

func (s *MemoryVaultStore) Get(key string) (*models.VaultItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	out := item.Clone()
	return &out, nil
}

func (s *MemoryVaultStore) List() ([]models.VaultItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.VaultItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	return out, nil
}

func (s *MemoryVaultStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(s.items, key)
	return nil
}

func (s *MemoryVaultStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
	return nil
}
