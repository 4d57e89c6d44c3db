// Package notify delivers fall events to external alerting endpoints.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rohanpai/fallwatch/internal/store"
)

// defaultTimeout bounds a single webhook delivery. Notification is
// best-effort and must never stall the camera loop.
const defaultTimeout = 10 * time.Second

// WebhookNotifier POSTs fall events as JSON to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier targeting the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// eventPayload is the wire format for a delivered event.
type eventPayload struct {
	ID         string          `json:"id"`
	CameraID   string          `json:"camera_id"`
	Timestamp  string          `json:"timestamp"`
	Confidence float64         `json:"confidence"`
	Severity   string          `json:"severity"`
	Details    json.RawMessage `json:"details"`
}

// Notify delivers one event. Non-2xx responses are errors so the caller
// can log the failure.
func (n *WebhookNotifier) Notify(event *store.FallEvent) error {
	payload := eventPayload{
		ID:         event.ID,
		CameraID:   event.CameraID,
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
		Confidence: event.Confidence,
		Severity:   string(event.Severity),
		Details:    json.RawMessage(event.Details),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	resp, err := n.client.Post(n.url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to deliver event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
