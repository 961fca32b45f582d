package messagequeue

import (
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/asterisk/internal/models"
)

// ErrInvalidCommand is returned by Publish for a command without an ID.
var ErrInvalidCommand = errors.New("fill command id is required")

// MemoryQueue is an in-memory FillCommandQueue.
//
// Expiry is evaluated lazily: Poll hides commands whose expiry has passed,
// and Publish drops them while it holds the lock. There is no background
// sweep, so the slice length says nothing about how many commands are live.
type MemoryQueue struct {
	mu       sync.Mutex
	commands []models.FillCommand
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a MemoryQueue.
type Option func(*MemoryQueue)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(q *MemoryQueue) { q.now = now }
}

// WithLogger sets the logger used for queue events.
func WithLogger(logger *zap.Logger) Option {
	return func(q *MemoryQueue) { q.logger = logger }
}

// NewMemoryQueue creates an empty queue.
func NewMemoryQueue(opts ...Option) *MemoryQueue {
	q := &MemoryQueue{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *MemoryQueue) Publish(cmd models.FillCommand) error {
	if cmd.ID == "" {
		return ErrInvalidCommand
	}
	cmd = cmd.Clone()

	q.mu.Lock()
	now := q.now()
	q.commands = slices.DeleteFunc(q.commands, func(existing models.FillCommand) bool {
		return existing.ID == cmd.ID || existing.Expired(now)
	})
	q.commands = append(q.commands, cmd)
	q.mu.Unlock()

	q.logger.Info("Fill command queued",
		zap.String("id", cmd.ID),
		zap.String("domain", cmd.TargetDomain),
		zap.Int("fields", len(cmd.Fills)),
	)
	return nil
}

func (q *MemoryQueue) Poll(domain string) []models.FillCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	out := []models.FillCommand{}
	for _, cmd := range q.commands {
		if cmd.Expired(now) {
			continue
		}
		if domain != "" && cmd.TargetDomain != domain {
			continue
		}
		out = append(out, cmd.Clone())
	}
	return out
}

func (q *MemoryQueue) Acknowledge(id string) {
	q.mu.Lock()
	q.commands = slices.DeleteFunc(q.commands, func(cmd models.FillCommand) bool {
		return cmd.ID == id
	})
	q.mu.Unlock()

	q.logger.Info("Fill command completed", zap.String("id", id))
}
