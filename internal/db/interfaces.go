package db

import (
	"errors"

	"github.com/example/asterisk/internal/models"
)

// Errors returned by the storage layer. Callers match them with errors.Is.
var (
	ErrInvalidKey    = errors.New("invalid key")
	ErrNotFound      = errors.New("item not found")
	ErrSerialization = errors.New("serialization error")
	ErrStorage       = errors.New("storage error") // Reserved for persistent backends
)

// VaultStore is the swappable storage contract for vault items.
// Implementations must be safe for concurrent use.
type VaultStore interface {
	// Set inserts or fully replaces the item stored under key.
	// It fails with ErrInvalidKey when key is empty.
	Set(key string, item models.VaultItem) error
	// Get returns nil, nil when key is absent.
	Get(key string) (*models.VaultItem, error)
	// List returns every item in no particular order.
	List() ([]models.VaultItem, error)
	// Delete fails with ErrNotFound when key is absent.
	Delete(key string) error
	Clear() error
}

// Exists reports whether key is present. Errors count as absence.
func Exists(store VaultStore, key string) bool {
	item, err := store.Get(key)
	return err == nil && item != nil
}

// Len returns the number of stored items, or 0 if listing fails.
func Len(store VaultStore) int {
	items, err := store.List()
	if err != nil {
		return 0
	}
	return len(items)
}

// IsEmpty reports whether the store holds no items.
func IsEmpty(store VaultStore) bool {
	return Len(store) == 0
}

// AuditRepository is the append-only storage contract for audit entries.
type AuditRepository interface {
	Append(entry models.AuditEntry) error
	// List returns the page [cursor, cursor+limit) of entries, newest first.
	List(limit, cursor int) (models.AuditPage, error)
	// Get returns nil, nil when no entry has the id.
	Get(id string) (*models.AuditEntry, error)
	Clear() error
	Path() string
}
