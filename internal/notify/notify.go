// Package notify posts backup and restore outcomes to an operator webhook.
// Delivery is best-effort; a failed notification never fails the operation
// it reports on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/venuekit/backupd/internal/config"
)

// Event describes one finished coordinator operation.
type Event struct {
	Operation  string    `json:"operation"` // backup, restore
	Status     string    `json:"status"`    // success, failed, skipped
	Provenance string    `json:"provenance,omitempty"`
	BackupID   string    `json:"backup_id,omitempty"`
	SizeBytes  int64     `json:"size_bytes,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	Error      string    `json:"error,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Webhook POSTs events as JSON.
type Webhook struct {
	URL     string
	Headers map[string]string
}

func (w Webhook) Notify(ctx context.Context, event Event) error {
	body, _ := json.Marshal(event)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// FromConfig returns nil when no webhook is configured.
func FromConfig(cfg config.NotifyConfig) Notifier {
	if cfg.WebhookURL == "" {
		return nil
	}
	return Webhook{URL: cfg.WebhookURL, Headers: cfg.Headers}
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
