package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CurrentTimeTool returns the current time in a requested IANA timezone.
type CurrentTimeTool struct {
	now func() time.Time
}

func NewCurrentTimeTool() *CurrentTimeTool {
	return &CurrentTimeTool{now: time.Now}
}

func (t *CurrentTimeTool) Name() string { return "current_time" }
func (t *CurrentTimeTool) Description() string {
	return "Return the current time in ISO8601 for the given timezone"
}
func (t *CurrentTimeTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"tz": {"type": "string", "description": "IANA timezone (default: Asia/Tokyo)"}
		}
	}`)
}

func (t *CurrentTimeTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		TZ string `json:"tz"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return "", fmt.Errorf("invalid parameters: %w", err)
		}
	}
	if p.TZ == "" {
		p.TZ = "Asia/Tokyo"
	}

	loc, err := time.LoadLocation(p.TZ)
	if err != nil {
		return "", fmt.Errorf("unknown timezone %q: %w", p.TZ, err)
	}
	return t.now().In(loc).Format(time.RFC3339), nil
}
