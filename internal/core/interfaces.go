package core

import (
	"github.com/example/asterisk/internal/models"
)

// VaultService defines the vault operations shared by the HTTP bridge and the desktop UI.
type VaultService interface {
	Set(key string, item models.VaultItem) error
	Get(key string) (*models.VaultItem, error)
	List() ([]models.VaultItem, error)
	// ListSorted orders items by label, then key, for display.
	ListSorted() ([]models.VaultItem, error)
	Delete(key string) error
	Clear() error
	// MarkUsed bumps the usage counter of the item under key and returns the updated item.
	MarkUsed(key string) (*models.VaultItem, error)
}

// AuditService defines the audit journal operations used by the desktop UI.
type AuditService interface {
	// Append fills in a missing id, timestamp, per-item disposition and summary,
	// then writes the entry. It returns the entry as stored.
	Append(entry models.AuditEntry) (models.AuditEntry, error)
	List(opts ListOptions) (models.AuditPage, error)
	Get(id string) (*models.AuditEntry, error)
	Clear() error
	Path() string
}

// ListOptions selects one page of the audit journal. A zero Limit selects the
// default page size.
type ListOptions struct {
	Limit  int
	Cursor int
}
