package db

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/example/asterisk/internal/models"
)

// Pagination bounds for AuditJournal.List.
const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 100
)

// AuditJournal is an append-only audit log stored as newline-delimited JSON.
//
// Lines are never rewritten, so a crash mid-write can only damage the last
// line. Readers parse every line independently and skip the ones that fail,
// keeping the rest of the journal available. Every read is a full scan.
type AuditJournal struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewAuditJournal creates a journal backed by the file at path. The file and its
// parent directory are created on first append.
func NewAuditJournal(path string, logger *zap.Logger) *AuditJournal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditJournal{path: path, logger: logger}
}

// Path returns the backing file path.
func (j *AuditJournal) Path() string {
	return j.path
}

// Append writes entry as a new line at the end of the journal.
func (j *AuditJournal) Append(entry models.AuditEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: failed to serialize audit entry: %v", ErrSerialization, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	// A torn final line would otherwise absorb this record too.
	torn, err := endsWithoutNewline(file)
	if err != nil {
		return fmt.Errorf("failed to inspect audit log: %w", err)
	}
	if torn {
		line = append([]byte{'\n'}, line...)
	}
	line = append(line, '\n')

	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	j.logger.Info("Audit entry logged", zap.String("id", entry.ID), zap.String("domain", entry.Domain))
	return nil
}

// List returns one page of entries sorted by creation time, newest first.
// A limit of zero or less selects DefaultAuditPageSize; larger limits are capped
// at MaxAuditPageSize. NextCursor is nil when the page reaches the end.
func (j *AuditJournal) List(limit, cursor int) (models.AuditPage, error) {
	if limit <= 0 {
		limit = DefaultAuditPageSize
	}
	limit = min(limit, MaxAuditPageSize)
	cursor = max(cursor, 0)

	j.mu.Lock()
	entries, err := j.readAll()
	j.mu.Unlock()
	if err != nil {
		return models.AuditPage{Items: []models.AuditEntry{}}, err
	}

	// Stable keeps scan order for equal timestamps.
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].CreatedAt.After(entries[b].CreatedAt)
	})

	page := models.AuditPage{Items: []models.AuditEntry{}}
	if cursor >= len(entries) {
		return page, nil
	}
	end := min(cursor+limit, len(entries))
	page.Items = entries[cursor:end]
	if end < len(entries) {
		next := end
		page.NextCursor = &next
	}
	return page, nil
}

// Get returns the first entry with the given id, or nil if none matches.
func (j *AuditJournal) Get(id string) (*models.AuditEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var found *models.AuditEntry
	err := j.scan(func(entry models.AuditEntry) bool {
		if entry.ID == id {
			found = &entry
			return false
		}
		return true
	})
	return found, err
}

// Clear deletes the journal file. A missing file is not an error.
func (j *AuditJournal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear audit log: %w", err)
	}
	j.logger.Info("Audit log cleared", zap.String("path", j.path))
	return nil
}

func (j *AuditJournal) readAll() ([]models.AuditEntry, error) {
	entries := []models.AuditEntry{}
	err := j.scan(func(entry models.AuditEntry) bool {
		entries = append(entries, entry)
		return true
	})
	return entries, err
}

// scan feeds every parseable entry to fn in file order until fn returns false.
// Blank lines are ignored and malformed lines are logged and skipped.
// The caller must hold j.mu.
func (j *AuditJournal) scan(fn func(models.AuditEntry) bool) error {
	file, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for lineNo := 1; ; lineNo++ {
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("failed to read audit log: %w", readErr)
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var entry models.AuditEntry
			if err := json.Unmarshal(trimmed, &entry); err != nil {
				j.logger.Warn("Skipping malformed audit entry",
					zap.String("path", j.path),
					zap.Int("line", lineNo),
					zap.Error(err),
				)
			} else if !fn(entry) {
				return nil
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
	}
}

// endsWithoutNewline reports whether a non-empty file's last byte is not '\n'.
func endsWithoutNewline(file *os.File) (bool, error) {
	info, err := file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
