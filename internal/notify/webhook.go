package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookPublisher POSTs notifications as JSON to an arbitrary endpoint.
type WebhookPublisher struct {
	url    string
	client *http.Client
}

func NewWebhookPublisher(url string) *WebhookPublisher {
	return &WebhookPublisher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *WebhookPublisher) Name() string { return "webhook" }

func (p *WebhookPublisher) Publish(ctx context.Context, subject, message string) error {
	body, err := json.Marshal(map[string]string{
		"subject": subject,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("webhook: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: HTTP %d", resp.StatusCode)
	}
	return nil
}
