package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coopco/tickbot/internal/schedule"
)

// DefaultTimezone applies when the model omits the timezone argument.
const DefaultTimezone = "Asia/Tokyo"

// UpdateScheduleTool lets the agent set its own next execution time and
// the instruction its future self should receive. Every failure is
// reported as a descriptive string so the surrounding agent loop keeps
// going; this tool never returns an error.
type UpdateScheduleTool struct {
	mutator *schedule.Mutator
}

func NewUpdateScheduleTool(mutator *schedule.Mutator) *UpdateScheduleTool {
	return &UpdateScheduleTool{mutator: mutator}
}

func (t *UpdateScheduleTool) Name() string { return "update_next_schedule" }
func (t *UpdateScheduleTool) Description() string {
	return "Update the schedule to set the next execution time and input for this agent. " +
		"Use this to schedule when this agent should run next and what instruction it should receive."
}
func (t *UpdateScheduleTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"next_execution": {
				"type": "string",
				"description": "ISO8601 datetime (e.g. '2025-12-27T10:30:00') or relative time like '+30m', '+2h', '+1d'"
			},
			"next_input": {
				"type": "string",
				"description": "Instruction for the next execution. Use this to tell your future self what to do next time."
			},
			"timezone": {
				"type": "string",
				"description": "IANA timezone for the schedule expression (default: Asia/Tokyo)"
			}
		},
		"required": ["next_execution"]
	}`)
}

func (t *UpdateScheduleTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		NextExecution string `json:"next_execution"`
		NextInput     string `json:"next_input"`
		Timezone      string `json:"timezone"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Sprintf("Failed to update schedule: invalid parameters: %v", err), nil
	}
	if p.Timezone == "" {
		p.Timezone = DefaultTimezone
	}

	res, err := t.mutator.Reschedule(ctx, p.NextExecution, p.NextInput, p.Timezone)
	if err != nil {
		return fmt.Sprintf("Failed to update schedule: %v", err), nil
	}

	parts := []string{
		"Schedule updated successfully!",
		fmt.Sprintf("- Schedule: %s (group: %s)", res.Name, res.Group),
		fmt.Sprintf("- Next execution: %s", res.Expression),
		fmt.Sprintf("- Timezone: %s", res.Timezone),
	}
	if res.NextInput != "" {
		preview := res.NextInput
		// Rune-counted so a multibyte instruction is never cut mid-character.
		if r := []rune(preview); len(r) > 100 {
			preview = string(r[:100]) + "..."
		}
		parts = append(parts, fmt.Sprintf("- Next input: %s", preview))
	}
	parts = append(parts, fmt.Sprintf("- ARN: %s", res.ScheduleARN))

	return strings.Join(parts, "\n"), nil
}
