package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Disposition is the policy bucket a field falls into based on match confidence.
type Disposition string

const (
	DispositionSafe    Disposition = "safe"
	DispositionReview  Disposition = "review"
	DispositionBlocked Disposition = "blocked"
)

// Confidence thresholds for DispositionFor.
const (
	SafeConfidence   = 0.85
	ReviewConfidence = 0.5
)

// DispositionFor maps a match confidence to its disposition.
func DispositionFor(confidence float64) Disposition {
	switch {
	case confidence >= SafeConfidence:
		return DispositionSafe
	case confidence >= ReviewConfidence:
		return DispositionReview
	default:
		return DispositionBlocked
	}
}

func (d *Disposition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Disposition(s) {
	case DispositionSafe, DispositionReview, DispositionBlocked:
		*d = Disposition(s)
		return nil
	}
	return fmt.Errorf("invalid disposition: %s", s)
}

// RedactionLevel is how much of a value the audit trail shows.
type RedactionLevel string

const (
	RedactionNone    RedactionLevel = "none"
	RedactionPartial RedactionLevel = "partial"
	RedactionMasked  RedactionLevel = "masked"
)

const maskedValue = "••••"

func (r *RedactionLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch RedactionLevel(s) {
	case RedactionNone, RedactionPartial, RedactionMasked:
		*r = RedactionLevel(s)
		return nil
	}
	return fmt.Errorf("invalid redaction level: %s", s)
}

// Redact renders value at the given level. Partial keeps the first and last
// rune of values longer than four runes and masks everything in between;
// shorter values are masked entirely. Empty values stay empty.
func Redact(value string, level RedactionLevel) string {
	if value == "" {
		return ""
	}
	switch level {
	case RedactionNone:
		return value
	case RedactionPartial:
		runes := []rune(value)
		if len(runes) <= 4 {
			return maskedValue
		}
		return string(runes[0]) + strings.Repeat("•", len(runes)-2) + string(runes[len(runes)-1])
	default:
		return maskedValue
	}
}

// AuditItem is the per-field record of an autofill operation.
type AuditItem struct {
	FieldID          string         `json:"fieldId"`
	Label            string         `json:"label"`
	Kind             string         `json:"kind"`
	Confidence       float64        `json:"confidence"`
	Disposition      Disposition    `json:"disposition"`
	Applied          bool           `json:"applied"`
	Source           string         `json:"source"` // Vault key that provided the value
	OldValueRedacted string         `json:"oldValueRedacted"`
	NewValueRedacted string         `json:"newValueRedacted"`
	Redaction        RedactionLevel `json:"redaction"`
	UserConfirmed    bool           `json:"userConfirmed"`
	Notes            *string        `json:"notes,omitempty"`
}

// AuditSummary holds the counts for one audit entry.
type AuditSummary struct {
	PlannedCount  uint32 `json:"plannedCount"`
	AppliedCount  uint32 `json:"appliedCount"`
	BlockedCount  uint32 `json:"blockedCount"`
	ReviewedCount uint32 `json:"reviewedCount"`
}

// IsZero reports whether no counts were set.
func (s AuditSummary) IsZero() bool {
	return s == AuditSummary{}
}

// SummarizeItems derives the summary counts from the item list.
func SummarizeItems(items []AuditItem) AuditSummary {
	summary := AuditSummary{PlannedCount: uint32(len(items))}
	for _, item := range items {
		if item.Applied {
			summary.AppliedCount++
		}
		switch item.Disposition {
		case DispositionBlocked:
			summary.BlockedCount++
		case DispositionReview:
			summary.ReviewedCount++
		}
	}
	return summary
}

// AuditEntry is an immutable record of one completed fill operation.
type AuditEntry struct {
	ID          string       `json:"id"`
	CreatedAt   time.Time    `json:"createdAt"`
	URL         string       `json:"url"`
	Domain      string       `json:"domain"`
	Fingerprint string       `json:"fingerprint"`
	Summary     AuditSummary `json:"summary"`
	Items       []AuditItem  `json:"items"`
}

// AuditPage is one page of a cursor-paginated audit listing.
type AuditPage struct {
	Items      []AuditEntry `json:"items"`
	NextCursor *int         `json:"nextCursor"`
}
