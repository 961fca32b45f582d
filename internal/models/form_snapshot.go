package models

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// SelectOption is one choice of a <select> field.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldNode describes a single form field as seen by the extension.
type FieldNode struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Label        string         `json:"label"`
	Type         string         `json:"type"`
	Semantic     string         `json:"semantic"`
	Required     bool           `json:"required"`
	Validation   *string        `json:"validation,omitempty"`
	Autocomplete *string        `json:"autocomplete,omitempty"`
	MaxLength    *uint32        `json:"maxLength,omitempty"`
	MinLength    *uint32        `json:"minLength,omitempty"`
	Placeholder  *string        `json:"placeholder,omitempty"`
	InputMode    *string        `json:"inputMode,omitempty"`
	Options      []SelectOption `json:"options,omitzero"` // Nil is omitted, empty is kept
}

// FormFingerprint summarizes the structure of a form so it can be recognized later.
type FormFingerprint struct {
	FieldCount    uint32   `json:"fieldCount"`
	FieldTypes    []string `json:"fieldTypes"`
	RequiredCount uint32   `json:"requiredCount"`
	Hash          string   `json:"hash"`
}

// FormSnapshot is a point-in-time capture of a web form.
type FormSnapshot struct {
	URL         string          `json:"url" binding:"required"`
	Domain      string          `json:"domain" binding:"required"`
	Title       string          `json:"title"`
	CapturedAt  time.Time       `json:"capturedAt" binding:"required"`
	Fingerprint FormFingerprint `json:"fingerprint"`
	Fields      []FieldNode     `json:"fields" binding:"required"`
}

// ComputeFingerprint derives a fingerprint from the field list. The hash covers
// field order, type, name and required flag, so relabelling a field keeps the
// same fingerprint while adding or reordering fields changes it.
func ComputeFingerprint(fields []FieldNode) FormFingerprint {
	fp := FormFingerprint{
		FieldCount: uint32(len(fields)),
		FieldTypes: make([]string, 0, len(fields)),
	}
	var structure strings.Builder
	for _, f := range fields {
		fp.FieldTypes = append(fp.FieldTypes, f.Type)
		if f.Required {
			fp.RequiredCount++
		}
		structure.WriteString(strings.Join([]string{f.Type, f.Name, strconv.FormatBool(f.Required)}, "\x1f"))
		structure.WriteString("\x1e")
	}
	sum := blake3.Sum256([]byte(structure.String()))
	fp.Hash = hex.EncodeToString(sum[:16])
	return fp
}

// Clone returns a deep copy of the snapshot.
func (s FormSnapshot) Clone() FormSnapshot {
	out := s
	out.Fingerprint.FieldTypes = cloneSlice(s.Fingerprint.FieldTypes)
	if s.Fields != nil {
		out.Fields = make([]FieldNode, len(s.Fields))
		for i, f := range s.Fields {
			out.Fields[i] = f.clone()
		}
	}
	return out
}

func (f FieldNode) clone() FieldNode {
	out := f
	out.Validation = cloneString(f.Validation)
	out.Autocomplete = cloneString(f.Autocomplete)
	out.Placeholder = cloneString(f.Placeholder)
	out.InputMode = cloneString(f.InputMode)
	out.MaxLength = cloneUint32(f.MaxLength)
	out.MinLength = cloneUint32(f.MinLength)
	out.Options = cloneSlice(f.Options)
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUint32(p *uint32) *uint32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneSlice copies s, keeping nil and empty distinct so JSON output is unchanged.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
