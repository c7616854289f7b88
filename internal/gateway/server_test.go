package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coopco/tickbot/internal/task"
)

// slowEngine blocks until released, recording the inputs it was given.
type slowEngine struct {
	mu      sync.Mutex
	inputs  []string
	release chan struct{}
}

func newSlowEngine() *slowEngine {
	return &slowEngine{release: make(chan struct{})}
}

func (e *slowEngine) Invoke(_ context.Context, input string) (string, error) {
	e.mu.Lock()
	e.inputs = append(e.inputs, input)
	e.mu.Unlock()
	<-e.release
	return "done", nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, string, string, string) {}

func newTestGateway() (*Gateway, *slowEngine) {
	engine := newSlowEngine()
	orch := task.NewOrchestrator(engine, noopNotifier{})
	return New(orch, "127.0.0.1:0"), engine
}

func postInvocation(t *testing.T, g *Gateway, body string) (*httptest.ResponseRecorder, InvocationResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(body))
	rr := httptest.NewRecorder()
	g.Router().ServeHTTP(rr, req)

	var resp InvocationResponse
	if rr.Code == http.StatusOK {
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rr, resp
}

func TestInvocationStart(t *testing.T) {
	g, engine := newTestGateway()
	defer close(engine.release)

	rr, resp := postInvocation(t, g, `{"action":"start","job_id":"job-1","input":"do research"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp.Status != "started" {
		t.Errorf("status = %q, want started", resp.Status)
	}
	if resp.TaskHandle == 0 {
		t.Error("expected a task handle")
	}

	// The response arrived while the engine was still running (or not
	// yet started) — the entrypoint never waits for the job.
	deadline := time.Now().Add(2 * time.Second)
	for {
		engine.mu.Lock()
		n := len(engine.inputs)
		engine.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("engine was never invoked")
		}
		time.Sleep(5 * time.Millisecond)
	}

	engine.mu.Lock()
	if engine.inputs[0] != "do research" {
		t.Errorf("engine input = %q", engine.inputs[0])
	}
	engine.mu.Unlock()
}

func TestInvocationDefaults(t *testing.T) {
	g, engine := newTestGateway()
	defer close(engine.release)

	_, resp := postInvocation(t, g, `{"action":"start"}`)
	if resp.Status != "started" {
		t.Fatalf("status = %q", resp.Status)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		engine.mu.Lock()
		if len(engine.inputs) == 1 {
			got := engine.inputs[0]
			engine.mu.Unlock()
			if got != defaultInput {
				t.Errorf("default input = %q", got)
			}
			return
		}
		engine.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("engine was never invoked")
}

func TestInvocationNoop(t *testing.T) {
	g, engine := newTestGateway()
	defer close(engine.release)

	for _, body := range []string{`{"action":"stop"}`, `{"action":""}`, `{}`} {
		rr, resp := postInvocation(t, g, body)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d", body, rr.Code)
		}
		if resp.Status != "noop" {
			t.Errorf("%s: status = %q, want noop", body, resp.Status)
		}
		if resp.TaskHandle != 0 {
			t.Errorf("%s: noop must not carry a handle", body)
		}
	}
}

func TestInvocationBadBody(t *testing.T) {
	g, engine := newTestGateway()
	defer close(engine.release)

	rr, _ := postInvocation(t, g, `not json at all`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestPing(t *testing.T) {
	g, engine := newTestGateway()
	defer close(engine.release)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	g.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
}
