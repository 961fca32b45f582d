// Package desktop exposes the operations the desktop UI invokes in-process.
// Every call goes through the same shared State as the HTTP bridge.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/asterisk/internal/assist"
	"github.com/example/asterisk/internal/core"
	"github.com/example/asterisk/internal/db"
	"github.com/example/asterisk/internal/models"
)

// DefaultFillCommandTTL is how long a fill command stays pollable.
const DefaultFillCommandTTL = 2 * time.Minute

// ErrAssistUnavailable is returned by AnalyzeField when no analyzer is configured.
var ErrAssistUnavailable = errors.New("field assistant is not configured")

// Commands is the desktop command surface.
type Commands struct {
	state    *core.State
	analyzer assist.Analyzer
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures Commands.
type Option func(*Commands)

// WithAnalyzer enables AnalyzeField.
func WithAnalyzer(a assist.Analyzer) Option {
	return func(c *Commands) { c.analyzer = a }
}

// WithFillCommandTTL overrides DefaultFillCommandTTL. Non-positive values are ignored.
func WithFillCommandTTL(ttl time.Duration) Option {
	return func(c *Commands) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock sets the time source used for fill command timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Commands) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Commands) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCommands creates the command surface over state.
func NewCommands(state *core.State, opts ...Option) *Commands {
	c := &Commands{
		state:  state,
		ttl:    DefaultFillCommandTTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Commands) VaultSet(key string, item models.VaultItem) error {
	return c.state.Vault.Set(key, item)
}

// VaultGet returns nil when key is absent.
func (c *Commands) VaultGet(key string) (*models.VaultItem, error) {
	return c.state.Vault.Get(key)
}

// VaultList returns the items ordered for display.
func (c *Commands) VaultList() ([]models.VaultItem, error) {
	return c.state.Vault.ListSorted()
}

// VaultDelete fails with db.ErrNotFound when key is absent.
func (c *Commands) VaultDelete(key string) error {
	return c.state.Vault.Delete(key)
}

// LatestFormSnapshot returns the last snapshot published by the extension, or nil.
func (c *Commands) LatestFormSnapshot() *models.FormSnapshot {
	return c.state.Snapshots.Latest()
}

// AuditAppend writes entry and returns it with generated fields filled in.
func (c *Commands) AuditAppend(entry models.AuditEntry) (models.AuditEntry, error) {
	return c.state.Audit.Append(entry)
}

// AuditList returns one page of history, newest first. Nil arguments select
// the default page size and the first page.
func (c *Commands) AuditList(limit, cursor *int) (models.AuditPage, error) {
	opts := core.ListOptions{}
	if limit != nil {
		opts.Limit = *limit
	}
	if cursor != nil {
		opts.Cursor = *cursor
	}
	return c.state.Audit.List(opts)
}

func (c *Commands) AuditGet(id string) (*models.AuditEntry, error) {
	return c.state.Audit.Get(id)
}

func (c *Commands) AuditClear() error {
	return c.state.Audit.Clear()
}

func (c *Commands) AuditPath() string {
	return c.state.Audit.Path()
}

// SendFillCommand queues fills for the extension tab on domain. The command
// expires after the configured TTL.
func (c *Commands) SendFillCommand(domain string, url *string, fills []models.FieldFill) (models.FillCommand, error) {
	if domain == "" {
		return models.FillCommand{}, errors.New("target domain is required")
	}
	now := c.now().UTC()
	cmd := models.FillCommand{
		ID:           uuid.NewString(),
		TargetDomain: domain,
		TargetURL:    url,
		Fills:        fills,
		CreatedAt:    now,
		ExpiresAt:    now.Add(c.ttl),
	}
	if cmd.Fills == nil {
		cmd.Fills = []models.FieldFill{}
	}
	if err := c.state.Commands.Publish(cmd); err != nil {
		return models.FillCommand{}, fmt.Errorf("failed to queue fill command: %w", err)
	}
	c.logger.Debug("Fill command sent", zap.String("id", cmd.ID), zap.Time("expiresAt", cmd.ExpiresAt))
	return cmd.Clone(), nil
}

// RecordFill journals a completed fill and bumps the usage counter of every
// applied item whose source is a vault key. Keys that have since been removed
// from the vault are skipped.
func (c *Commands) RecordFill(entry models.AuditEntry) (models.AuditEntry, error) {
	stored, err := c.state.Audit.Append(entry)
	if err != nil {
		return models.AuditEntry{}, err
	}
	for _, item := range stored.Items {
		if !item.Applied || item.Source == "" {
			continue
		}
		if _, err := c.state.Vault.MarkUsed(item.Source); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				continue
			}
			return stored, err
		}
	}
	return stored, nil
}

// AnalyzeField asks the configured assistant which vault key fits the field.
func (c *Commands) AnalyzeField(ctx context.Context, req assist.FieldRequest) (assist.Suggestion, error) {
	if c.analyzer == nil {
		return assist.Suggestion{}, ErrAssistUnavailable
	}
	return c.analyzer.AnalyzeField(ctx, req)
}
