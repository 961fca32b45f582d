package models

import "time"

// FieldFill is a single field instruction: write Value into the field with FieldID.
type FieldFill struct {
	FieldID string `json:"fieldId" binding:"required"`
	Value   string `json:"value"`
}

// FillCommand tells the extension which values to write into a form on a domain.
type FillCommand struct {
	ID           string      `json:"id" binding:"required"` // Caller-assigned, used for dedup
	TargetDomain string      `json:"targetDomain" binding:"required"`
	TargetURL    *string     `json:"targetUrl,omitempty"`
	Fills        []FieldFill `json:"fills" binding:"required,dive"`
	CreatedAt    time.Time   `json:"createdAt" binding:"required"`
	ExpiresAt    time.Time   `json:"expiresAt" binding:"required"`
}

// Expired reports whether the command is no longer visible at now.
// A command expiring exactly at now is already expired.
func (c FillCommand) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Clone returns a deep copy of the command.
func (c FillCommand) Clone() FillCommand {
	out := c
	out.TargetURL = cloneString(c.TargetURL)
	out.Fills = cloneSlice(c.Fills)
	return out
}
