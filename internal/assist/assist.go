// Package assist asks a language model which vault key an ambiguous form field
// expects. It is optional: the bridge and the vault never depend on it.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// NoReasoning is reported when the model omits its reasoning.
const NoReasoning = "No reasoning provided"

// ErrInvalidResponse is returned when the model's reply is not the expected JSON object.
var ErrInvalidResponse = errors.New("invalid model response")

// FieldRequest describes the field to classify and the vault keys on offer.
type FieldRequest struct {
	Label         string   `json:"label"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Placeholder   *string  `json:"placeholder,omitempty"`
	Semantic      *string  `json:"semantic,omitempty"`
	AvailableKeys []string `json:"availableKeys"`
}

// Suggestion is the model's answer. VaultKey is nil when nothing matched or
// when the model proposed a key that was not offered.
type Suggestion struct {
	VaultKey   *string `json:"vaultKey"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Analyzer classifies a single field.
type Analyzer interface {
	AnalyzeField(ctx context.Context, req FieldRequest) (Suggestion, error)
}

// BuildPrompt renders the instruction sent to the model for req.
func BuildPrompt(req FieldRequest) string {
	placeholder := "(none)"
	if req.Placeholder != nil {
		placeholder = *req.Placeholder
	}
	semantic := "unknown"
	if req.Semantic != nil {
		semantic = *req.Semantic
	}

	var b strings.Builder
	b.WriteString("You are analyzing a form field to determine which user data it expects.\n\n")
	b.WriteString("Field information:\n")
	fmt.Fprintf(&b, "- Label: %q\n", req.Label)
	fmt.Fprintf(&b, "- Name attribute: %q\n", req.Name)
	fmt.Fprintf(&b, "- Input type: %q\n", req.Type)
	fmt.Fprintf(&b, "- Placeholder: %s\n", placeholder)
	fmt.Fprintf(&b, "- Semantic hint: %s\n\n", semantic)
	b.WriteString("Available vault data keys:\n")
	b.WriteString(strings.Join(req.AvailableKeys, ", "))
	b.WriteString("\n\n")
	b.WriteString(`Task: Determine which vault key (if any) should be used to fill this field.

Respond ONLY with valid JSON in this exact format:
{"vaultKey": "keyName", "confidence": 0.85, "reasoning": "explanation"}

Or if no match:
{"vaultKey": null, "confidence": 0.0, "reasoning": "explanation"}

Confidence scale:
- 0.80-0.90: Strong semantic match
- 0.60-0.80: Likely match but some ambiguity
- 0.40-0.60: Possible match, low confidence
- 0.0-0.40: No clear match

If no vault key matches, set vaultKey to null. Be conservative with confidence scores.`)
	return b.String()
}

// ParseResponse decodes the model's reply. A surrounding markdown code fence is
// tolerated. Keys outside availableKeys are dropped.
func ParseResponse(text string, availableKeys []string) (Suggestion, error) {
	var raw struct {
		VaultKey   *string  `json:"vaultKey"`
		Confidence *float64 `json:"confidence"`
		Reasoning  *string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	s := Suggestion{Reasoning: NoReasoning}
	if raw.VaultKey != nil && slices.Contains(availableKeys, *raw.VaultKey) {
		key := *raw.VaultKey
		s.VaultKey = &key
	}
	if raw.Confidence != nil {
		s.Confidence = *raw.Confidence
	}
	if raw.Reasoning != nil {
		s.Reasoning = *raw.Reasoning
	}
	return s, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop an info string such as "json".
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
