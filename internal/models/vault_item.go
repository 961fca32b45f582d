package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// VaultCategory groups vault items for display.
type VaultCategory string

const (
	CategoryIdentity  VaultCategory = "identity"
	CategoryContact   VaultCategory = "contact"
	CategoryAddress   VaultCategory = "address"
	CategoryFinancial VaultCategory = "financial"
	CategoryCustom    VaultCategory = "custom"
)

// Valid reports whether c is one of the known categories.
func (c VaultCategory) Valid() bool {
	switch c {
	case CategoryIdentity, CategoryContact, CategoryAddress, CategoryFinancial, CategoryCustom:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown categories so a malformed item never reaches the store.
func (c *VaultCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !VaultCategory(s).Valid() {
		return fmt.Errorf("invalid category: %s", s)
	}
	*c = VaultCategory(s)
	return nil
}

// ProvenanceSource describes how a value was acquired.
type ProvenanceSource string

const (
	SourceUserEntered ProvenanceSource = "user_entered"
	SourceImported    ProvenanceSource = "imported"
	SourceAutofilled  ProvenanceSource = "autofilled"
)

// Valid reports whether s is one of the known sources.
func (s ProvenanceSource) Valid() bool {
	switch s {
	case SourceUserEntered, SourceImported, SourceAutofilled:
		return true
	}
	return false
}

func (s *ProvenanceSource) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !ProvenanceSource(raw).Valid() {
		return fmt.Errorf("invalid source: %s", raw)
	}
	*s = ProvenanceSource(raw)
	return nil
}

// Provenance tracks where a piece of data came from and when.
type Provenance struct {
	Source     ProvenanceSource `json:"source" binding:"required"`
	Timestamp  time.Time        `json:"timestamp" binding:"required"`
	Confidence float64          `json:"confidence" binding:"gte=0,lte=1"`
	Origin     *string          `json:"origin"` // Source URL or file path, if any
}

// VaultMetadata records when and how often an item was used.
type VaultMetadata struct {
	Created    time.Time  `json:"created" binding:"required"`
	Updated    time.Time  `json:"updated" binding:"required"`
	LastUsed   *time.Time `json:"last_used"`
	UsageCount uint32     `json:"usage_count"`
}

// VaultItem is a single fact stored in the user's vault.
type VaultItem struct {
	Key        string        `json:"key"`
	Value      string        `json:"value"`
	Label      string        `json:"label"`
	Category   VaultCategory `json:"category" binding:"required"`
	Provenance Provenance    `json:"provenance"`
	Metadata   VaultMetadata `json:"metadata"`
}

// NewVaultItem creates an item whose metadata is stamped with now.
func NewVaultItem(key, value, label string, category VaultCategory, provenance Provenance, now time.Time) VaultItem {
	return VaultItem{
		Key:        key,
		Value:      value,
		Label:      label,
		Category:   category,
		Provenance: provenance,
		Metadata: VaultMetadata{
			Created: now,
			Updated: now,
		},
	}
}

// UpdateValue replaces the value and bumps the updated timestamp.
func (i *VaultItem) UpdateValue(value string, now time.Time) {
	i.Value = value
	i.Metadata.Updated = now
}

// MarkUsed increments the usage counter and stamps the last-used time.
func (i *VaultItem) MarkUsed(now time.Time) {
	i.Metadata.LastUsed = &now
	i.Metadata.UsageCount++
}

// Clone returns a deep copy; the optional fields are pointers and must not be shared.
func (i VaultItem) Clone() VaultItem {
	out := i
	if i.Provenance.Origin != nil {
		origin := *i.Provenance.Origin
		out.Provenance.Origin = &origin
	}
	if i.Metadata.LastUsed != nil {
		lastUsed := *i.Metadata.LastUsed
		out.Metadata.LastUsed = &lastUsed
	}
	return out
}
