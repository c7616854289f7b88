package task

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// blockingEngine blocks Invoke until released, so tests can observe state
// while a job is in flight.
type blockingEngine struct {
	entered  chan struct{}
	release  chan struct{}
	result   string
	err      error
	panicMsg string
}

func newBlockingEngine(result string, err error) *blockingEngine {
	return &blockingEngine{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		result:  result,
		err:     err,
	}
}

func (e *blockingEngine) Invoke(ctx context.Context, _ string) (string, error) {
	close(e.entered)
	select {
	case <-e.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	return e.result, e.err
}

// recordingNotifier captures notifications, optionally panicking first.
type recordingNotifier struct {
	mu       sync.Mutex
	statuses []string
	results  []string
	panics   bool
	done     chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, 8)}
}

func (n *recordingNotifier) Notify(_ context.Context, _, status, _, result string) {
	n.mu.Lock()
	n.statuses = append(n.statuses, status)
	n.results = append(n.results, result)
	n.mu.Unlock()
	n.done <- struct{}{}
	if n.panics {
		panic("notifier exploded")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestStartReturnsBeforeEngineCompletes(t *testing.T) {
	engine := newBlockingEngine("ok", nil)
	notifier := newRecordingNotifier()
	o := NewOrchestrator(engine, notifier)

	handle := o.Start(context.Background(), Job{ID: "job-1", Input: "do work"})
	if handle == 0 {
		t.Fatal("expected a non-zero handle")
	}

	// The caller already has its handle; the engine has not finished.
	<-engine.entered
	if status, ok := o.Status(handle); !ok || status != StatusRunning {
		t.Errorf("status while in flight = %q, ok=%v", status, ok)
	}

	close(engine.release)
	<-notifier.done
	waitFor(t, func() bool { return o.Active() == 0 })

	if notifier.statuses[0] != "success" {
		t.Errorf("notification status = %q", notifier.statuses[0])
	}
	if notifier.results[0] != "ok" {
		t.Errorf("notification result = %q", notifier.results[0])
	}
}

func TestHandlesAreUniquePerJob(t *testing.T) {
	engine := newBlockingEngine("ok", nil)
	o := NewOrchestrator(engine, newRecordingNotifier())

	seen := make(map[int64]bool)
	for i := 0; i < 10; i++ {
		h := o.Start(context.Background(), Job{ID: fmt.Sprintf("job-%d", i)})
		if seen[h] {
			t.Fatalf("handle %d issued twice", h)
		}
		seen[h] = true
	}
	if o.Active() != 10 {
		t.Errorf("active = %d, want 10", o.Active())
	}
}

func TestReleaseOnEngineFailure(t *testing.T) {
	engine := newBlockingEngine("", fmt.Errorf("model exploded"))
	notifier := newRecordingNotifier()
	o := NewOrchestrator(engine, notifier)

	o.Start(context.Background(), Job{ID: "job-err"})
	<-engine.entered
	close(engine.release)

	<-notifier.done
	waitFor(t, func() bool { return o.Active() == 0 })

	if notifier.statuses[0] != "error" {
		t.Errorf("notification status = %q, want error", notifier.statuses[0])
	}
}

func TestReleaseWhenNotifierPanics(t *testing.T) {
	engine := newBlockingEngine("ok", nil)
	notifier := newRecordingNotifier()
	notifier.panics = true
	o := NewOrchestrator(engine, notifier)

	o.Start(context.Background(), Job{ID: "job-panic"})
	<-engine.entered
	close(engine.release)

	<-notifier.done
	// Slot release must survive a panicking notification path.
	waitFor(t, func() bool { return o.Active() == 0 })
}

func TestReleaseWhenEnginePanics(t *testing.T) {
	engine := newBlockingEngine("", nil)
	engine.panicMsg = "engine exploded"
	notifier := newRecordingNotifier()
	o := NewOrchestrator(engine, notifier)

	handle := o.Start(context.Background(), Job{ID: "job-engine-panic"})
	<-engine.entered
	close(engine.release)

	// A panicking engine is a failed run: error notification, then release.
	<-notifier.done
	waitFor(t, func() bool { return o.Active() == 0 })

	if notifier.statuses[0] != "error" {
		t.Errorf("notification status = %q, want error", notifier.statuses[0])
	}
	if status, ok := o.Status(handle); ok && status != StatusFailed {
		t.Errorf("status after engine panic = %q, want failed", status)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	o := NewOrchestrator(newBlockingEngine("ok", nil), newRecordingNotifier())

	// Releasing an unknown handle must not crash.
	o.Release(42)
	o.Release(42)
}

func TestDelayBeforeInvoke(t *testing.T) {
	engine := newBlockingEngine("ok", nil)
	notifier := newRecordingNotifier()
	o := NewOrchestrator(engine, notifier)

	start := time.Now()
	o.Start(context.Background(), Job{ID: "job-delay", DelaySeconds: 1})

	<-engine.entered
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("engine invoked after %v, want >= 1s delay", elapsed)
	}
	close(engine.release)
	<-notifier.done
}

func TestCancelDuringDelayStillReleases(t *testing.T) {
	engine := newBlockingEngine("ok", nil)
	o := NewOrchestrator(engine, newRecordingNotifier())

	ctx, cancel := context.WithCancel(context.Background())
	o.Start(ctx, Job{ID: "job-cancel", DelaySeconds: 60})
	cancel()

	waitFor(t, func() bool { return o.Active() == 0 })

	select {
	case <-engine.entered:
		t.Error("engine must not be invoked after cancellation during delay")
	default:
	}
}
