// Package task owns the background job lifecycle: non-blocking dispatch,
// per-job run state, and guaranteed handle release.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status is the lifecycle state of one job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one unit of background work.
type Job struct {
	ID           string
	Input        string
	DelaySeconds int
}

// Engine is the opaque reasoning engine: one call per job, may take
// arbitrary time, may fail. Retries are not this package's concern.
type Engine interface {
	Invoke(ctx context.Context, input string) (string, error)
}

// Notifier reports job completion. Implementations must never fail the
// caller; see the notify package.
type Notifier interface {
	Notify(ctx context.Context, jobID, status, message, result string)
}

type entry struct {
	job       Job
	status    Status
	startedAt time.Time
}

// Orchestrator registers jobs under fresh handles and launches runners
// without waiting for them. The handle table is an owned map, not a
// global; handles are process-local and never reused within a process.
type Orchestrator struct {
	engine   Engine
	notifier Notifier

	mu    sync.Mutex
	next  int64
	tasks map[int64]*entry
}

func NewOrchestrator(engine Engine, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		engine:   engine,
		notifier: notifier,
		tasks:    make(map[int64]*entry),
	}
}

// Start registers job under a new handle, launches the runner in its own
// goroutine, and returns the handle immediately. It never blocks on job
// execution.
func (o *Orchestrator) Start(ctx context.Context, job Job) int64 {
	o.mu.Lock()
	o.next++
	handle := o.next
	o.tasks[handle] = &entry{job: job, status: StatusPending, startedAt: time.Now()}
	o.mu.Unlock()

	slog.Info("task: job dispatched", "job", job.ID, "handle", handle, "delay", job.DelaySeconds)
	go o.run(ctx, handle, job)
	return handle
}

// Release removes bookkeeping for a finished task. Releasing an absent
// handle is a no-op, so a double release cannot crash.
func (o *Orchestrator) Release(handle int64) {
	o.mu.Lock()
	_, ok := o.tasks[handle]
	delete(o.tasks, handle)
	o.mu.Unlock()

	if !ok {
		slog.Warn("task: release of unknown handle", "handle", handle)
		return
	}
	slog.Info("task: handle released", "handle", handle)
}

// Active returns the number of in-flight jobs.
func (o *Orchestrator) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tasks)
}

// Status reports the current status of a handle.
func (o *Orchestrator) Status(handle int64) (Status, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.tasks[handle]
	if !ok {
		return "", false
	}
	return e.status, true
}

func (o *Orchestrator) setStatus(handle int64, status Status) {
	o.mu.Lock()
	if e, ok := o.tasks[handle]; ok {
		e.status = status
	}
	o.mu.Unlock()
}
