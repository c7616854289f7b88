// Package notify delivers fire-and-forget job completion notifications.
// Dispatch never fails its caller: publish errors are logged and swallowed.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// StatusSuccess and StatusError are the two notification outcomes.
	StatusSuccess = "success"
	StatusError   = "error"

	maxResultLen   = 1000
	truncationMark = "...(truncated)"
)

// Record is the notification body. It is transient and never persisted.
type Record struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Result    string `json:"result,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Publisher is one notification backend.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, subject, message string) error
}

// Dispatcher fans a notification out to all configured publishers.
type Dispatcher struct {
	publishers []Publisher
	now        func() time.Time
}

func NewDispatcher(publishers ...Publisher) *Dispatcher {
	return &Dispatcher{publishers: publishers, now: time.Now}
}

// Notify publishes a completion record. It never returns an error and
// never panics; with no publishers configured it is a logged no-op.
// Results longer than 1000 characters are truncated with a marker.
func (d *Dispatcher) Notify(ctx context.Context, jobID, status, message, result string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("notify: publish panicked", "job", jobID, "panic", r)
		}
	}()

	if len(d.publishers) == 0 {
		slog.Warn("notify: no notification endpoint configured, skipping", "job", jobID)
		return
	}

	rec := Record{
		JobID:     jobID,
		Status:    status,
		Message:   message,
		Result:    Truncate(result),
		Timestamp: d.now().Format(time.RFC3339),
	}

	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		slog.Error("notify: failed to encode record", "job", jobID, "error", err)
		return
	}

	subject := fmt.Sprintf("Agent Job %s: %s", strings.ToUpper(status), jobID)
	for _, p := range d.publishers {
		if err := p.Publish(ctx, subject, string(body)); err != nil {
			slog.Error("notify: publish failed", "publisher", p.Name(), "job", jobID, "error", err)
			continue
		}
		slog.Info("notify: notification sent", "publisher", p.Name(), "job", jobID, "status", status)
	}
}

// Truncate caps s at 1000 characters, appending a marker when cut.
// The limit counts runes, not bytes, so multibyte results are never
// split mid-character.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxResultLen {
		return s
	}
	return string([]rune(s)[:maxResultLen]) + truncationMark
}
