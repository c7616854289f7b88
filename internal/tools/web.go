package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultMaxFetchBytes = 50 * 1024

// HTTPGetTool fetches text from a URL, for web pages and JSON APIs.
type HTTPGetTool struct {
	client *http.Client
}

func NewHTTPGetTool() *HTTPGetTool {
	return &HTTPGetTool{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *HTTPGetTool) Name() string        { return "http_get" }
func (t *HTTPGetTool) Description() string { return "Fetch text from a URL (http/https)" }
func (t *HTTPGetTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "Target URL"},
			"max_bytes": {"type": "integer", "description": "Max bytes to read (default 50KB)"}
		},
		"required": ["url"]
	}`)
}

func (t *HTTPGetTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		URL      string `json:"url"`
		MaxBytes int    `json:"max_bytes"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}
	if p.URL == "" {
		return "", fmt.Errorf("url is required")
	}
	maxBytes := p.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxFetchBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "tickbot/0.1")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	// Read one extra byte so truncation is detectable.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxBytes {
		return string(body[:maxBytes]) + "\n...[truncated]...", nil
	}
	return string(body), nil
}
