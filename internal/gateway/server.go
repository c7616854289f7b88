// Package gateway exposes the caller-facing entrypoint over HTTP. The
// only synchronous contract is POST /invocations: it acknowledges that a
// job started and never reports the job's eventual outcome.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coopco/tickbot/internal/task"
)

const (
	defaultJobID = "mvp"
	defaultInput = "Say hello and show current_time."
)

// InvocationRequest is the caller's request object.
type InvocationRequest struct {
	Action  string `json:"action"`
	JobID   string `json:"job_id,omitempty"`
	Input   string `json:"input,omitempty"`
	Seconds int    `json:"seconds,omitempty"`
}

// InvocationResponse acknowledges a dispatch. TaskHandle is only set
// when Status is "started".
type InvocationResponse struct {
	Status     string `json:"status"`
	TaskHandle int64  `json:"task_handle,omitempty"`
}

// Gateway is the HTTP entrypoint in front of the task orchestrator.
type Gateway struct {
	orch *task.Orchestrator
	addr string
}

func New(orch *task.Orchestrator, addr string) *Gateway {
	return &Gateway{orch: orch, addr: addr}
}

// Router builds the chi mux with all routes wired.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/ping", g.handlePing())
	r.Post("/invocations", g.handleInvocation())
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              g.addr,
		Handler:           g.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway: listening", "addr", g.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleInvocation starts a background job and responds immediately.
// Any action other than "start" is acknowledged as a noop.
func (g *Gateway) handleInvocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InvocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if req.Action != "start" {
			json.NewEncoder(w).Encode(InvocationResponse{Status: "noop"}) //nolint:errcheck
			return
		}

		job := task.Job{
			ID:           req.JobID,
			Input:        req.Input,
			DelaySeconds: req.Seconds,
		}
		if job.ID == "" {
			job.ID = defaultJobID
		}
		if job.Input == "" {
			job.Input = defaultInput
		}
		if job.DelaySeconds < 0 {
			job.DelaySeconds = 0
		}

		// The job outlives this request; it must not die with r.Context().
		handle := g.orch.Start(context.WithoutCancel(r.Context()), job)

		json.NewEncoder(w).Encode(InvocationResponse{ //nolint:errcheck
			Status:     "started",
			TaskHandle: handle,
		})
	}
}

// handlePing reports liveness and the number of in-flight jobs.
func (g *Gateway) handlePing() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"status": "healthy",
			"active": g.orch.Active(),
		})
	}
}
