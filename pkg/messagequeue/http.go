package messagequeue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/asterisk/internal/models"
)

const fillCommandsPath = "/v1/fill-commands"

// HTTPQueue is a FillCommandQueue client for a queue served by a running
// bridge. It lets a separate process hand commands to the extension.
//
// Poll and Acknowledge have no error return; transport failures are logged
// and reported as an empty result.
type HTTPQueue struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPQueue creates a client for the bridge at addr (host:port or a full URL).
func NewHTTPQueue(addr string, client *http.Client, logger *zap.Logger) *HTTPQueue {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPQueue{baseURL: strings.TrimRight(addr, "/"), client: client, logger: logger}
}

func (q *HTTPQueue) Publish(cmd models.FillCommand) error {
	if cmd.ID == "" {
		return ErrInvalidCommand
	}
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encoding fill command: %w", err)
	}
	resp, err := q.client.Post(q.baseURL+fillCommandsPath, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("publishing fill command: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (q *HTTPQueue) Poll(domain string) []models.FillCommand {
	target := q.baseURL + fillCommandsPath
	if domain != "" {
		target += "?" + url.Values{"domain": {domain}}.Encode()
	}
	resp, err := q.client.Get(target)
	if err != nil {
		q.logger.Warn("Polling fill commands failed", zap.Error(err))
		return []models.FillCommand{}
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		q.logger.Warn("Polling fill commands failed", zap.Error(err))
		return []models.FillCommand{}
	}

	commands := []models.FillCommand{}
	if err := json.NewDecoder(resp.Body).Decode(&commands); err != nil {
		q.logger.Warn("Decoding fill commands failed", zap.Error(err))
		return []models.FillCommand{}
	}
	return commands
}

func (q *HTTPQueue) Acknowledge(id string) {
	target := q.baseURL + fillCommandsPath + "?" + url.Values{"id": {id}}.Encode()
	req, err := http.NewRequest(http.MethodDelete, target, nil)
	if err != nil {
		q.logger.Warn("Acknowledging fill command failed", zap.String("id", id), zap.Error(err))
		return
	}
	resp, err := q.client.Do(req)
	if err != nil {
		q.logger.Warn("Acknowledging fill command failed", zap.String("id", id), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		q.logger.Warn("Acknowledging fill command failed", zap.String("id", id), zap.Error(err))
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return fmt.Errorf("bridge returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
}
