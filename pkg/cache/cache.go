package cache

import "github.com/example/asterisk/internal/models"

// SnapshotCache holds the most recently captured form.
type SnapshotCache interface {
	// Publish replaces whatever snapshot is currently held.
	Publish(snapshot models.FormSnapshot)
	// Latest returns a copy of the held snapshot, or nil if none was published.
	Latest() *models.FormSnapshot
}
