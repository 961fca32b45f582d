package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/example/asterisk/internal/api"
	"github.com/example/asterisk/internal/config"
	"github.com/example/asterisk/internal/core"
	"github.com/example/asterisk/internal/db"
	"github.com/example/asterisk/internal/models"
)

// setupEnv points the CLI at a temporary journal and a quiet logger.
func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	t.Setenv("ASTERISK_AUDIT_LOG_PATH", path)
	t.Setenv("ASTERISK_LOG_LEVEL", "error")
	t.Setenv("ASTERISK_LISTEN_ADDR", config.DefaultListenAddr)
	t.Setenv("ASTERISK_ANTHROPIC_API_KEY", "")
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_Usage(t *testing.T) {
	setupEnv(t)

	_, stderr, err := runCLI(t)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, "Usage: asteriskctl")

	_, stderr, err = runCLI(t, "bogus")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, `unknown command "bogus"`)
}

func TestRun_AuditPath(t *testing.T) {
	path := setupEnv(t)

	stdout, _, err := runCLI(t, "audit", "path")

	require.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(stdout))
}

func TestRun_AuditListGetClear(t *testing.T) {
	path := setupEnv(t)
	journal := db.NewAuditJournal(path, nil)
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, journal.Append(models.AuditEntry{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour), Items: []models.AuditItem{}}))
	}

	stdout, _, err := runCLI(t, "audit", "list", "--limit", "2")
	require.NoError(t, err)
	var page models.AuditPage
	require.NoError(t, json.Unmarshal([]byte(stdout), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "new", page.Items[0].ID)
	require.NotNil(t, page.NextCursor)

	stdout, _, err = runCLI(t, "audit", "list", "--cursor", "2")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "old", page.Items[0].ID)

	stdout, _, err = runCLI(t, "audit", "get", "mid")
	require.NoError(t, err)
	var entry models.AuditEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entry))
	assert.Equal(t, "mid", entry.ID)

	_, _, err = runCLI(t, "audit", "get", "nope")
	assert.ErrorContains(t, err, "not found")

	_, _, err = runCLI(t, "audit", "clear")
	require.NoError(t, err)
	stdout, _, err = runCLI(t, "audit", "list")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"nextCursor":null}`, stdout)
}

func TestRun_FillSendsToBridge(t *testing.T) {
	setupEnv(t)
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	state := core.NewState(&config.Config{AuditLogPath: filepath.Join(t.TempDir(), "bridge.jsonl")}, logger)
	bridge := httptest.NewServer(api.NewBridgeServer(state, logger).Handler())
	defer bridge.Close()
	t.Setenv("ASTERISK_LISTEN_ADDR", strings.TrimPrefix(bridge.URL, "http://"))

	stdout, _, err := runCLI(t, "fill", "--domain", "a.example", "--field", "f1=Alice", "--field", "f2=a=b")
	require.NoError(t, err)

	var sent models.FillCommand
	require.NoError(t, json.Unmarshal([]byte(stdout), &sent))
	polled := state.Commands.Poll("a.example")
	require.Len(t, polled, 1)
	assert.Equal(t, sent.ID, polled[0].ID)
	assert.Equal(t, []models.FieldFill{{FieldID: "f1", Value: "Alice"}, {FieldID: "f2", Value: "a=b"}}, polled[0].Fills)
	assert.Nil(t, polled[0].TargetURL)
}

func TestRun_FillValidation(t *testing.T) {
	setupEnv(t)

	_, _, err := runCLI(t, "fill", "--field", "f1=x")
	assert.ErrorContains(t, err, "--domain")

	_, _, err = runCLI(t, "fill", "--domain", "a.example", "--field", "novalue")
	assert.ErrorContains(t, err, "ID=VALUE")
}

func TestRun_AnalyzeWithoutKey(t *testing.T) {
	setupEnv(t)

	_, _, err := runCLI(t, "analyze", "--label", "Email", "--keys", "email,phone")

	assert.ErrorContains(t, err, "ASTERISK_ANTHROPIC_API_KEY")
}
