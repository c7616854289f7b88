package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SleepTool suspends the current job for N seconds. The wait is
// cooperative and does not stall other in-flight jobs.
type SleepTool struct{}

func NewSleepTool() *SleepTool { return &SleepTool{} }

func (t *SleepTool) Name() string        { return "sleep_seconds" }
func (t *SleepTool) Description() string { return "Sleep for N seconds, then report how long we slept" }
func (t *SleepTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"seconds": {"type": "integer", "description": "Seconds to sleep (default 3)"}
		}
	}`)
}

func (t *SleepTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Seconds int `json:"seconds"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return "", fmt.Errorf("invalid parameters: %w", err)
		}
	}
	seconds := p.Seconds
	if seconds <= 0 {
		seconds = 3
	}

	select {
	case <-time.After(time.Duration(seconds) * time.Second):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("Slept %d seconds", seconds), nil
}
