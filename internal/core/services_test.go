package core

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/example/asterisk/internal/config"
	"github.com/example/asterisk/internal/db"
	"github.com/example/asterisk/internal/models"
)

var serviceNow = time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)

func item(key, label string) models.VaultItem {
	return models.NewVaultItem(key, "value-"+key, label, models.CategoryIdentity,
		models.Provenance{Source: models.SourceUserEntered, Timestamp: serviceNow, Confidence: 1}, serviceNow)
}

func TestVaultService_WrapsStoreErrors(t *testing.T) {
	svc := NewVaultService(db.NewMemoryVaultStore(), zaptest.NewLogger(t))

	assert.ErrorIs(t, svc.Set("", item("", "x")), db.ErrInvalidKey)
	assert.ErrorIs(t, svc.Delete("missing"), db.ErrNotFound)

	got, err := svc.Get("missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestVaultService_ListSorted(t *testing.T) {
	svc := NewVaultService(db.NewMemoryVaultStoreWithItems([]models.VaultItem{
		item("phone", "Phone"),
		item("lastName", "Last name"),
		item("firstName", "First name"),
		item("b", "Alias"),
		item("a", "Alias"),
	}), nil)

	items, err := svc.ListSorted()
	require.NoError(t, err)

	keys := []string{}
	for _, i := range items {
		keys = append(keys, i.Key)
	}
	assert.Equal(t, []string{"a", "b", "firstName", "lastName", "phone"}, keys)
}

func TestVaultService_MarkUsed(t *testing.T) {
	store := db.NewMemoryVaultStoreWithItems([]models.VaultItem{item("email", "Email")})
	svc := NewVaultService(store, zaptest.NewLogger(t)).(*vaultService)
	svc.now = func() time.Time { return serviceNow.Add(time.Hour) }

	updated, err := svc.MarkUsed("email")
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated.Metadata.UsageCount)

	stored, err := store.Get("email")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.Metadata.UsageCount)
	require.NotNil(t, stored.Metadata.LastUsed)
	assert.Equal(t, serviceNow.Add(time.Hour), *stored.Metadata.LastUsed)

	_, err = svc.MarkUsed("missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestVaultService_MarkUsedConcurrent(t *testing.T) {
	store := db.NewMemoryVaultStoreWithItems([]models.VaultItem{item("email", "Email")})
	svc := NewVaultService(store, nil)

	var wg sync.WaitGroup
	for range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.MarkUsed("email")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := svc.Get("email")
	require.NoError(t, err)
	assert.EqualValues(t, 40, stored.Metadata.UsageCount)
}

// interleavingStore runs onGet once, from inside the first Get, to simulate a
// request landing in the middle of a read-modify-write.
type interleavingStore struct {
	db.VaultStore
	once  sync.Once
	onGet func()
}

func (s *interleavingStore) Get(key string) (*models.VaultItem, error) {
	item, err := s.VaultStore.Get(key)
	s.once.Do(s.onGet)
	return item, err
}

// startConcurrent runs op on another goroutine and gives it a moment to run
// before returning. The returned channel closes when op is done.
func startConcurrent(op func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		op()
	}()
	select {
	case <-done:
	case <-time.After(20 * time.Millisecond):
	}
	return done
}

func TestVaultService_MarkUsedDoesNotResurrectDeletedItem(t *testing.T) {
	store := &interleavingStore{VaultStore: db.NewMemoryVaultStoreWithItems([]models.VaultItem{item("email", "Email")})}
	svc := NewVaultService(store, zaptest.NewLogger(t))
	var deleted <-chan struct{}
	store.onGet = func() {
		deleted = startConcurrent(func() { assert.NoError(t, svc.Delete("email")) })
	}

	_, err := svc.MarkUsed("email")
	require.NoError(t, err)
	<-deleted

	got, err := svc.Get("email")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVaultService_MarkUsedKeepsConcurrentReplace(t *testing.T) {
	old := item("email", "Email")
	old.Value = "old@b.com"
	store := &interleavingStore{VaultStore: db.NewMemoryVaultStoreWithItems([]models.VaultItem{old})}
	svc := NewVaultService(store, zaptest.NewLogger(t))
	replacement := item("email", "Email")
	replacement.Value = "new@b.com"
	var replaced <-chan struct{}
	store.onGet = func() {
		replaced = startConcurrent(func() { assert.NoError(t, svc.Set("email", replacement)) })
	}

	_, err := svc.MarkUsed("email")
	require.NoError(t, err)
	<-replaced

	got, err := svc.Get("email")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new@b.com", got.Value)
}

func newAuditService(t *testing.T) AuditService {
	t.Helper()
	return NewAuditService(db.NewAuditJournal(filepath.Join(t.TempDir(), "audit.jsonl"), zaptest.NewLogger(t)))
}

func TestAuditService_AppendFillsDefaults(t *testing.T) {
	svc := newAuditService(t)
	items := []models.AuditItem{
		{FieldID: "email", Confidence: 0.95, Applied: true},
		{FieldID: "company", Confidence: 0.6},
		{FieldID: "ssn", Confidence: 0.1},
	}

	stored, err := svc.Append(models.AuditEntry{URL: "https://a.example/form", Domain: "a.example", Items: items})
	require.NoError(t, err)

	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, stored.CreatedAt.Location())
	assert.Equal(t, models.DispositionSafe, stored.Items[0].Disposition)
	assert.Equal(t, models.DispositionReview, stored.Items[1].Disposition)
	assert.Equal(t, models.DispositionBlocked, stored.Items[2].Disposition)
	assert.Equal(t, models.RedactionMasked, stored.Items[0].Redaction)
	assert.Equal(t, models.AuditSummary{PlannedCount: 3, AppliedCount: 1, BlockedCount: 1, ReviewedCount: 1}, stored.Summary)

	// The caller's slice is left alone.
	assert.Empty(t, items[0].Disposition)

	got, err := svc.Get(stored.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stored.Summary, got.Summary)
}

func TestAuditService_AppendKeepsProvidedFields(t *testing.T) {
	svc := newAuditService(t)
	entry := models.AuditEntry{
		ID:        "fixed-id",
		CreatedAt: serviceNow,
		Summary:   models.AuditSummary{PlannedCount: 9},
		Items:     []models.AuditItem{{FieldID: "f", Confidence: 0.99, Disposition: models.DispositionReview, Redaction: models.RedactionNone}},
	}

	stored, err := svc.Append(entry)
	require.NoError(t, err)

	assert.Equal(t, "fixed-id", stored.ID)
	assert.Equal(t, serviceNow, stored.CreatedAt)
	assert.EqualValues(t, 9, stored.Summary.PlannedCount)
	assert.Equal(t, models.DispositionReview, stored.Items[0].Disposition)
	assert.Equal(t, models.RedactionNone, stored.Items[0].Redaction)
}

func TestAuditService_AppendNilItems(t *testing.T) {
	svc := newAuditService(t)

	stored, err := svc.Append(models.AuditEntry{Domain: "a.example"})
	require.NoError(t, err)
	assert.NotNil(t, stored.Items)

	page, err := svc.List(ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.NotNil(t, page.Items[0].Items)
}

func TestAuditService_ListAndClear(t *testing.T) {
	svc := newAuditService(t)
	for i := range 3 {
		_, err := svc.Append(models.AuditEntry{CreatedAt: serviceNow.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	page, err := svc.List(ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotNil(t, page.NextCursor)

	page, err = svc.List(ListOptions{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Nil(t, page.NextCursor)

	require.NoError(t, svc.Clear())
	page, err = svc.List(ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestNewState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	state := NewState(&config.Config{AuditLogPath: path}, nil)

	assert.Equal(t, path, state.Audit.Path())
	assert.Nil(t, state.Snapshots.Latest())
	assert.Empty(t, state.Commands.Poll(""))
	items, err := state.Vault.List()
	require.NoError(t, err)
	assert.Empty(t, items)
}
