package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPGetTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "hello from the server")
	}))
	defer srv.Close()

	tool := NewHTTPGetTool()
	out, err := tool.Execute(context.Background(), json.RawMessage(`{"url":"`+srv.URL+`"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "hello from the server" {
		t.Errorf("out = %q", out)
	}
}

func TestHTTPGetToolTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("a", 500))
	}))
	defer srv.Close()

	tool := NewHTTPGetTool()
	out, err := tool.Execute(context.Background(), json.RawMessage(
		`{"url":"`+srv.URL+`","max_bytes":100}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasSuffix(out, "...[truncated]...") {
		t.Errorf("expected truncation marker, got %q", out)
	}
	if !strings.HasPrefix(out, strings.Repeat("a", 100)) {
		t.Errorf("expected first 100 bytes preserved")
	}
}

func TestHTTPGetToolErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tool := NewHTTPGetTool()
	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"url":"`+srv.URL+`"}`)); err == nil {
		t.Error("expected error for HTTP 404")
	}
	if _, err := tool.Execute(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing url")
	}
}

func TestCurrentTimeTool(t *testing.T) {
	tool := NewCurrentTimeTool()
	loc, _ := time.LoadLocation("Asia/Tokyo")
	fixed := time.Date(2025, 1, 1, 9, 0, 0, 0, loc)
	tool.now = func() time.Time { return fixed }

	out, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "2025-01-01T09:00:00+09:00" {
		t.Errorf("out = %q", out)
	}

	out, err = tool.Execute(context.Background(), json.RawMessage(`{"tz":"UTC"}`))
	if err != nil {
		t.Fatalf("Execute(UTC): %v", err)
	}
	if out != "2025-01-01T00:00:00Z" {
		t.Errorf("out = %q", out)
	}

	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"tz":"Not/AZone"}`)); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestSleepToolCancellable(t *testing.T) {
	tool := NewSleepTool()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tool.Execute(ctx, json.RawMessage(`{"seconds":60}`)); err == nil {
		t.Error("expected context error after cancellation")
	}
}
