package core

import (
	"go.uber.org/zap"

	"github.com/example/asterisk/internal/config"
	"github.com/example/asterisk/internal/db"
	"github.com/example/asterisk/pkg/cache"
	"github.com/example/asterisk/pkg/messagequeue"
)

// State is the shared state reached by both the HTTP bridge and the desktop UI.
// It is built once at startup and handed to each caller; every leaf has its
// own lock, so work on one leaf never waits on another.
type State struct {
	Vault     VaultService
	Snapshots cache.SnapshotCache
	Commands  messagequeue.FillCommandQueue
	Audit     AuditService
}

// NewState wires the in-memory leaves and the file-backed audit journal.
func NewState(cfg *config.Config, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		Vault:     NewVaultService(db.NewMemoryVaultStore(), logger.Named("vault")),
		Snapshots: cache.NewMemoryCache(),
		Commands:  messagequeue.NewMemoryQueue(messagequeue.WithLogger(logger.Named("commands"))),
		Audit:     NewAuditService(db.NewAuditJournal(cfg.AuditLogPath, logger.Named("audit"))),
	}
}
