package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coopco/tickbot/internal/notify"
)

// run executes one job: optional delay, one engine invocation, completion
// notification. The handle is released in a deferred block so it happens
// exactly once no matter how the run ends, including a panicking notifier.
func (o *Orchestrator) run(ctx context.Context, handle int64, job Job) {
	defer func() {
		if r := recover(); r != nil {
			// A panicking engine is still a failed run: notify, then release.
			slog.Error("task: job panicked", "job", job.ID, "handle", handle, "panic", r)
			o.setStatus(handle, StatusFailed)
			o.notifyFailure(ctx, job.ID, fmt.Sprintf("agent run failed: %v", r))
		}
		o.Release(handle)
		slog.Info("task: job finished and slot released", "job", job.ID, "handle", handle)
	}()

	if job.DelaySeconds > 0 {
		select {
		case <-time.After(time.Duration(job.DelaySeconds) * time.Second):
		case <-ctx.Done():
			slog.Warn("task: cancelled during delay", "job", job.ID, "handle", handle)
			return
		}
	}

	o.setStatus(handle, StatusRunning)
	slog.Info("task: starting background run", "job", job.ID, "input", job.Input)

	result, err := o.engine.Invoke(ctx, job.Input)
	if err != nil {
		// The engine's failure ends here: notify and absorb.
		o.setStatus(handle, StatusFailed)
		slog.Error("task: job failed", "job", job.ID, "error", err)
		o.notifyFailure(ctx, job.ID, fmt.Sprintf("agent run failed: %v", err))
		return
	}

	o.setStatus(handle, StatusCompleted)
	slog.Info("task: job completed", "job", job.ID, "result", notify.Truncate(result))
	o.notifier.Notify(ctx, job.ID, notify.StatusSuccess, "agent run completed", result)
}

// notifyFailure reports a failed run, absorbing a panicking notifier so
// the caller's release defer always completes.
func (o *Orchestrator) notifyFailure(ctx context.Context, jobID, message string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task: failure notification panicked", "job", jobID, "panic", r)
		}
	}()
	o.notifier.Notify(ctx, jobID, notify.StatusError, message, "")
}
