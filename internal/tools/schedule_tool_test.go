package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/coopco/tickbot/internal/schedule"
)

func newScheduleTool(t *testing.T) (*UpdateScheduleTool, *schedule.MemoryStore) {
	t.Helper()
	store := schedule.NewMemoryStore()
	store.Put(&schedule.Definition{
		Name:       "agent-schedule",
		Group:      "default",
		Expression: "at(2024-12-31T23:00:00)",
		Timezone:   "Asia/Tokyo",
		Target: schedule.Target{
			Input: `{"Payload":"{\"action\":\"start\",\"input\":\"first run\"}"}`,
		},
	})

	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, loc)

	mutator := schedule.NewMutator(schedule.MutatorConfig{
		Store: store,
		Name:  "agent-schedule",
		Now:   func() time.Time { return now },
	})
	return NewUpdateScheduleTool(mutator), store
}

func TestUpdateScheduleToolSuccess(t *testing.T) {
	tool, _ := newScheduleTool(t)

	out, err := tool.Execute(context.Background(), json.RawMessage(
		`{"next_execution":"+30m","next_input":"next step"}`))
	if err != nil {
		t.Fatalf("Execute must never return an error, got %v", err)
	}
	if !strings.Contains(out, "Schedule updated successfully!") {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "at(2025-01-01T00:30:00)") {
		t.Errorf("output missing new expression: %s", out)
	}
	if !strings.Contains(out, "Asia/Tokyo") {
		t.Errorf("output missing timezone: %s", out)
	}
	if !strings.Contains(out, "next step") {
		t.Errorf("output missing next input: %s", out)
	}
	if !strings.Contains(out, "ARN:") {
		t.Errorf("output missing ARN: %s", out)
	}
}

func TestUpdateScheduleToolFailureIsString(t *testing.T) {
	tool, _ := newScheduleTool(t)

	// Not strictly future, bad unit, empty spec, malformed arguments.
	cases := []string{
		`{"next_execution":"+0m"}`,
		`{"next_execution":"+30s"}`,
		`{"next_execution":""}`,
		`not json`,
	}
	for _, args := range cases {
		out, err := tool.Execute(context.Background(), json.RawMessage(args))
		if err != nil {
			t.Errorf("Execute(%s) returned error %v; failures must be strings", args, err)
		}
		if !strings.HasPrefix(out, "Failed to update schedule:") {
			t.Errorf("Execute(%s) = %q, want failure description", args, out)
		}
	}
}

func TestUpdateScheduleToolLongInputPreview(t *testing.T) {
	tool, _ := newScheduleTool(t)

	long := strings.Repeat("x", 200)
	out, err := tool.Execute(context.Background(), json.RawMessage(
		`{"next_execution":"+1h","next_input":"`+long+`"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, strings.Repeat("x", 100)+"...") {
		t.Errorf("expected 100-char preview, got: %s", out)
	}
	if strings.Contains(out, strings.Repeat("x", 101)) {
		t.Errorf("preview not truncated at 100 chars")
	}
}

func TestUpdateScheduleToolMultibyteInputPreview(t *testing.T) {
	tool, _ := newScheduleTool(t)

	// 120 characters but 360 bytes; the preview counts characters.
	long := strings.Repeat("実", 120)
	out, err := tool.Execute(context.Background(), json.RawMessage(
		`{"next_execution":"+1h","next_input":"`+long+`"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, strings.Repeat("実", 100)+"...") {
		t.Errorf("expected 100-char preview, got: %s", out)
	}
	if !utf8.ValidString(out) {
		t.Error("preview produced invalid UTF-8")
	}
}

func TestUpdateScheduleToolDefaultTimezone(t *testing.T) {
	tool, _ := newScheduleTool(t)

	out, _ := tool.Execute(context.Background(), json.RawMessage(`{"next_execution":"+5m"}`))
	if !strings.Contains(out, "Timezone: Asia/Tokyo") {
		t.Errorf("expected default timezone in output: %s", out)
	}
}
