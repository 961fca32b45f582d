package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/asterisk/internal/db"
	"github.com/example/asterisk/internal/models"
)

// auditService implements the AuditService interface.
type auditService struct {
	repo db.AuditRepository
	now  func() time.Time
}

// NewAuditService creates a new AuditService that stores entries in repo.
func NewAuditService(repo db.AuditRepository) AuditService {
	return &auditService{repo: repo, now: time.Now}
}

func (s *auditService) Append(entry models.AuditEntry) (models.AuditEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	items := make([]models.AuditItem, len(entry.Items))
	copy(items, entry.Items)
	entry.Items = items
	for i := range entry.Items {
		if entry.Items[i].Disposition == "" {
			entry.Items[i].Disposition = models.DispositionFor(entry.Items[i].Confidence)
		}
		if entry.Items[i].Redaction == "" {
			entry.Items[i].Redaction = models.RedactionMasked
		}
	}
	if entry.Summary.IsZero() {
		entry.Summary = models.SummarizeItems(entry.Items)
	}

	if err := s.repo.Append(entry); err != nil {
		return models.AuditEntry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}
	return entry, nil
}

func (s *auditService) List(opts ListOptions) (models.AuditPage, error) {
	page, err := s.repo.List(opts.Limit, opts.Cursor)
	if err != nil {
		return page, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return page, nil
}

func (s *auditService) Get(id string) (*models.AuditEntry, error) {
	entry, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entry '%s': %w", id, err)
	}
	return entry, nil
}

func (s *auditService) Clear() error {
	if err := s.repo.Clear(); err != nil {
		return fmt.Errorf("failed to clear audit log: %w", err)
	}
	return nil
}

func (s *auditService) Path() string {
	return s.repo.Path()
}
