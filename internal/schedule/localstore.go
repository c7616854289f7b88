package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

// FireFunc receives a due schedule definition. Implementations typically
// decode the target payload and dispatch a background job.
type FireFunc func(ctx context.Context, def *Definition)

// LocalStore is a file-persisted Store with its own dispatch loop: a
// periodic poll fires schedules whose at(...) instant has arrived, then
// disables them (one-shot semantics). It lets a self-rescheduling chain
// run end-to-end without an external scheduler service.
type LocalStore struct {
	path     string
	interval time.Duration
	onFire   FireFunc

	mu        sync.Mutex
	defs      map[string]*Definition
	scheduler *robfigcron.Cron
}

// NewLocalStore creates a store persisting to path. pollInterval controls
// how often due schedules are checked (default 15s).
func NewLocalStore(path string, pollInterval time.Duration, onFire FireFunc) *LocalStore {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	return &LocalStore{
		path:     path,
		interval: pollInterval,
		onFire:   onFire,
		defs:     make(map[string]*Definition),
	}
}

// SetOnFire installs the fire callback after construction, for wiring
// order where the dispatch target depends on this store. Must be called
// before Start.
func (s *LocalStore) SetOnFire(f FireFunc) {
	s.onFire = f
}

func (s *LocalStore) Get(_ context.Context, name, group string) (*Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.defs[group+"/"+name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, group, name)
	}
	return def.Clone(), nil
}

func (s *LocalStore) Update(_ context.Context, def *Definition) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := def.Identity()
	if _, ok := s.defs[key]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	stored := def.Clone()
	// An update carries a fresh at(...) instant, so the one-shot is armed
	// again even when the written-back definition still says DISABLED
	// from the fire that triggered this reschedule.
	stored.State = "ENABLED"
	s.defs[key] = stored
	if err := s.saveLocked(); err != nil {
		return "", fmt.Errorf("persist schedule store: %w", err)
	}
	return arnFor(stored), nil
}

// Put seeds or replaces a definition and persists immediately.
func (s *LocalStore) Put(def *Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[def.Identity()] = def.Clone()
	return s.saveLocked()
}

// Load reads persisted definitions from disk. A missing file is not an error.
func (s *LocalStore) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schedule store: %w", err)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse schedule store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs = make(map[string]*Definition, len(file.Schedules))
	for i := range file.Schedules {
		def := file.Schedules[i]
		s.defs[def.Identity()] = &def
	}
	return nil
}

// Start begins the dispatch loop. No-op when no fire callback is set.
func (s *LocalStore) Start(ctx context.Context) error {
	if s.onFire == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler != nil {
		return nil
	}

	s.scheduler = robfigcron.New()
	_, err := s.scheduler.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.fireDue(ctx)
	})
	if err != nil {
		s.scheduler = nil
		return fmt.Errorf("register schedule poll: %w", err)
	}
	s.scheduler.Start()
	slog.Info("schedule: local dispatch loop started", "interval", s.interval, "path", s.path)
	return nil
}

// Stop halts the dispatch loop, waiting for an in-flight poll.
func (s *LocalStore) Stop() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()

	if scheduler != nil {
		<-scheduler.Stop().Done()
		slog.Info("schedule: local dispatch loop stopped")
	}
}

// fireDue fires every enabled schedule whose instant has arrived, then
// disables it so one at(...) expression triggers exactly one dispatch.
func (s *LocalStore) fireDue(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	var due []*Definition
	for _, def := range s.defs {
		if def.State == "DISABLED" {
			continue
		}
		at, err := ParseAtExpression(def.Expression, def.Timezone)
		if err != nil {
			slog.Warn("schedule: skipping unparseable expression",
				"schedule", def.Identity(), "expression", def.Expression, "error", err)
			continue
		}
		if at.After(now) {
			continue
		}
		def.State = "DISABLED"
		due = append(due, def.Clone())
	}
	if len(due) > 0 {
		if err := s.saveLocked(); err != nil {
			slog.Error("schedule: failed to persist fired state", "error", err)
		}
	}
	s.mu.Unlock()

	for _, def := range due {
		slog.Info("schedule: firing", "schedule", def.Identity(), "expression", def.Expression)
		go s.onFire(ctx, def)
	}
}

// saveLocked persists the current definitions. Caller must hold s.mu.
func (s *LocalStore) saveLocked() error {
	schedules := make([]Definition, 0, len(s.defs))
	for _, def := range s.defs {
		schedules = append(schedules, *def.Clone())
	}

	data, err := json.MarshalIndent(storeFile{Schedules: schedules}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

type storeFile struct {
	Schedules []Definition `json:"schedules"`
}

// ParseAtExpression extracts the instant from an "at(YYYY-MM-DDTHH:MM:SS)"
// expression, interpreted in the given IANA timezone (UTC when empty).
func ParseAtExpression(expr, timezone string) (time.Time, error) {
	inner, ok := strings.CutPrefix(expr, "at(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return time.Time{}, fmt.Errorf("not an at(...) expression: %q", expr)
	}
	inner = strings.TrimSuffix(inner, ")")

	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("unknown timezone %q: %w", timezone, err)
		}
		loc = l
	}
	return time.ParseInLocation(exprLayout, inner, loc)
}
