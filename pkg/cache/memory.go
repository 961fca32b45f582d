package cache

import (
	"sync"

	"github.com/example/asterisk/internal/models"
)

// MemoryCache is a single-slot SnapshotCache. It keeps no history.
type MemoryCache struct {
	mu     sync.Mutex
	latest *models.FormSnapshot
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Publish(snapshot models.FormSnapshot) {
	snapshot = snapshot.Clone()
	c.mu.Lock()
	c.latest = &snapshot
	c.mu.Unlock()
}

func (c *MemoryCache) Latest() *models.FormSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return nil
	}
	out := c.latest.Clone()
	return &out
}
