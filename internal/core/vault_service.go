package core

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/asterisk/internal/db"
	"github.com/example/asterisk/internal/models"
)

// vaultService implements the VaultService interface on top of a db.VaultStore.
type vaultService struct {
	store  db.VaultStore
	logger *zap.Logger
	now    func() time.Time

	// Held by every mutation so MarkUsed's read-modify-write never writes back
	// an item that was deleted or replaced in between. Reads use the store's lock.
	mu sync.Mutex
}

// NewVaultService creates a new VaultService backed by store.
func NewVaultService(store db.VaultStore, logger *zap.Logger) VaultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &vaultService{store: store, logger: logger, now: time.Now}
}

// Set replaces the item under key as a whole. Callers that edit an existing
// item are responsible for bumping Metadata.Updated.
func (s *vaultService) Set(key string, item models.VaultItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(key, item); err != nil {
		return fmt.Errorf("failed to set vault item: %w", err)
	}
	s.logger.Debug("Vault item stored", zap.String("key", key), zap.String("category", string(item.Category)))
	return nil
}

func (s *vaultService) Get(key string) (*models.VaultItem, error) {
	item, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get vault item '%s': %w", key, err)
	}
	return item, nil
}

func (s *vaultService) List() ([]models.VaultItem, error) {
	items, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list vault items: %w", err)
	}
	return items, nil
}

func (s *vaultService) ListSorted() ([]models.VaultItem, error) {
	items, err := s.List()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, func(a, b models.VaultItem) int {
		return cmp.Or(cmp.Compare(a.Label, b.Label), cmp.Compare(a.Key, b.Key))
	})
	return items, nil
}

func (s *vaultService) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(key); err != nil {
		return fmt.Errorf("failed to delete vault item: %w", err)
	}
	s.logger.Debug("Vault item deleted", zap.String("key", key))
	return nil
}

func (s *vaultService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear vault: %w", err)
	}
	return nil
}

func (s *vaultService) MarkUsed(key string) (*models.VaultItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get vault item '%s': %w", key, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", db.ErrNotFound, key)
	}

	item.MarkUsed(s.now().UTC())
	if err := s.store.Set(key, *item); err != nil {
		return nil, fmt.Errorf("failed to record vault item usage: %w", err)
	}
	return item, nil
}
