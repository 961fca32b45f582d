package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestVaultItem_JSONContract(t *testing.T) {
	origin := "https://example.com/signup"
	item := NewVaultItem("email", "a@b.c", "Email", CategoryContact, Provenance{
		Source:     SourceUserEntered,
		Timestamp:  testNow,
		Confidence: 1,
		Origin:     &origin,
	}, testNow)

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "contact", raw["category"])
	provenance := raw["provenance"].(map[string]any)
	assert.Equal(t, "user_entered", provenance["source"])
	metadata := raw["metadata"].(map[string]any)
	assert.Contains(t, metadata, "last_used")
	assert.Nil(t, metadata["last_used"])
	assert.EqualValues(t, 0, metadata["usage_count"])

	var decoded VaultItem
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, item, decoded)
}

func TestVaultItem_RejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"category", `{"key":"k","category":"pets","provenance":{"source":"imported"}}`},
		{"source", `{"key":"k","category":"custom","provenance":{"source":"guessed"}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var item VaultItem
			assert.Error(t, json.Unmarshal([]byte(tc.body), &item))
		})
	}
}

func TestVaultItem_MarkUsedAndUpdate(t *testing.T) {
	item := NewVaultItem("phone", "555", "Phone", CategoryContact, Provenance{Source: SourceImported, Timestamp: testNow}, testNow)

	later := testNow.Add(time.Hour)
	item.MarkUsed(later)
	item.MarkUsed(later)
	require.NotNil(t, item.Metadata.LastUsed)
	assert.Equal(t, later, *item.Metadata.LastUsed)
	assert.EqualValues(t, 2, item.Metadata.UsageCount)

	item.UpdateValue("556", later)
	assert.Equal(t, "556", item.Value)
	assert.Equal(t, later, item.Metadata.Updated)
	assert.Equal(t, testNow, item.Metadata.Created)
}

func TestVaultItem_CloneDoesNotShare(t *testing.T) {
	origin := "file.csv"
	item := NewVaultItem("k", "v", "L", CategoryCustom, Provenance{Source: SourceImported, Origin: &origin}, testNow)
	item.MarkUsed(testNow)

	clone := item.Clone()
	*clone.Provenance.Origin = "other.csv"
	*clone.Metadata.LastUsed = testNow.Add(time.Hour)

	assert.Equal(t, "file.csv", *item.Provenance.Origin)
	assert.Equal(t, testNow, *item.Metadata.LastUsed)
}

func TestDispositionFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Disposition
	}{
		{1, DispositionSafe},
		{0.85, DispositionSafe},
		{0.849, DispositionReview},
		{0.5, DispositionReview},
		{0.49, DispositionBlocked},
		{0, DispositionBlocked},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DispositionFor(tc.confidence), "confidence %v", tc.confidence)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name  string
		value string
		level RedactionLevel
		want  string
	}{
		{"none keeps value", "secret", RedactionNone, "secret"},
		{"partial keeps ends", "alice@example.com", RedactionPartial, "a•••••••••••••••m"},
		{"partial short value", "abcd", RedactionPartial, "••••"},
		{"partial multibyte", "Zoë Ünal", RedactionPartial, "Z••••••l"},
		{"masked", "4111111111111111", RedactionMasked, "••••"},
		{"empty stays empty", "", RedactionMasked, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Redact(tc.value, tc.level))
		})
	}
}

func TestAuditEntry_RejectsUnknownEnums(t *testing.T) {
	var d Disposition
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &d))

	var r RedactionLevel
	assert.Error(t, json.Unmarshal([]byte(`"hidden"`), &r))
	require.NoError(t, json.Unmarshal([]byte(`"partial"`), &r))
	assert.Equal(t, RedactionPartial, r)
}

func TestSummarizeItems(t *testing.T) {
	items := []AuditItem{
		{FieldID: "a", Disposition: DispositionSafe, Applied: true},
		{FieldID: "b", Disposition: DispositionReview, Applied: true},
		{FieldID: "c", Disposition: DispositionBlocked},
		{FieldID: "d", Disposition: DispositionReview},
	}

	summary := SummarizeItems(items)

	assert.Equal(t, AuditSummary{PlannedCount: 4, AppliedCount: 2, BlockedCount: 1, ReviewedCount: 2}, summary)
	assert.False(t, summary.IsZero())
	assert.True(t, AuditSummary{}.IsZero())
}

func TestAuditPage_NullCursor(t *testing.T) {
	data, err := json.Marshal(AuditPage{Items: []AuditEntry{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"nextCursor":null}`, string(data))
}

func TestComputeFingerprint(t *testing.T) {
	fields := []FieldNode{
		{ID: "f1", Name: "email", Label: "Email", Type: "email", Required: true},
		{ID: "f2", Name: "phone", Label: "Phone", Type: "tel"},
	}

	fp := ComputeFingerprint(fields)

	assert.EqualValues(t, 2, fp.FieldCount)
	assert.EqualValues(t, 1, fp.RequiredCount)
	assert.Equal(t, []string{"email", "tel"}, fp.FieldTypes)
	assert.Len(t, fp.Hash, 32)

	relabelled := []FieldNode{fields[0], fields[1]}
	relabelled[0].Label = "E-mail address"
	assert.Equal(t, fp.Hash, ComputeFingerprint(relabelled).Hash)

	reordered := []FieldNode{fields[1], fields[0]}
	assert.NotEqual(t, fp.Hash, ComputeFingerprint(reordered).Hash)
}

func TestComputeFingerprint_Empty(t *testing.T) {
	fp := ComputeFingerprint(nil)

	assert.Zero(t, fp.FieldCount)
	assert.NotNil(t, fp.FieldTypes)
	assert.NotEmpty(t, fp.Hash)
}

func TestFormSnapshot_CloneDoesNotShare(t *testing.T) {
	maxLen := uint32(10)
	snapshot := FormSnapshot{
		URL:    "https://example.com/form",
		Domain: "example.com",
		Fields: []FieldNode{{ID: "f1", Type: "select", MaxLength: &maxLen, Options: []SelectOption{{Value: "a", Label: "A"}}}},
	}
	snapshot.Fingerprint = ComputeFingerprint(snapshot.Fields)

	clone := snapshot.Clone()
	clone.Fields[0].ID = "changed"
	*clone.Fields[0].MaxLength = 99
	clone.Fields[0].Options[0].Label = "changed"
	clone.Fingerprint.FieldTypes[0] = "changed"

	assert.Equal(t, "f1", snapshot.Fields[0].ID)
	assert.EqualValues(t, 10, *snapshot.Fields[0].MaxLength)
	assert.Equal(t, "A", snapshot.Fields[0].Options[0].Label)
	assert.Equal(t, "select", snapshot.Fingerprint.FieldTypes[0])
}

func TestFormSnapshot_OptionalFieldsOmitted(t *testing.T) {
	data, err := json.Marshal(FieldNode{ID: "f1", Type: "text"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "maxLength")
	assert.NotContains(t, raw, "options")
	assert.Contains(t, raw, "required")
}

func TestFieldNode_EmptyOptionsSurvive(t *testing.T) {
	var node FieldNode
	require.NoError(t, json.Unmarshal([]byte(`{"id":"f1","type":"select","options":[]}`), &node))
	require.NotNil(t, node.Options)

	data, err := json.Marshal(FormSnapshot{Fields: []FieldNode{node}}.Clone().Fields[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"options":[]`)
}

func TestFillCommand_Expired(t *testing.T) {
	cmd := FillCommand{ID: "c1", ExpiresAt: testNow}

	assert.True(t, cmd.Expired(testNow), "expiry instant is exclusive")
	assert.True(t, cmd.Expired(testNow.Add(time.Second)))
	assert.False(t, cmd.Expired(testNow.Add(-time.Nanosecond)))
}

func TestFillCommand_CloneKeepsEmptyFills(t *testing.T) {
	cmd := FillCommand{ID: "c1", Fills: []FieldFill{}}

	data, err := json.Marshal(cmd.Clone())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fills":[]`)
	assert.NotContains(t, string(data), "targetUrl")
}
