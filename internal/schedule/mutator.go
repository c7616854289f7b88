package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/semaphore"

	"github.com/coopco/tickbot/internal/timespec"
)

const (
	// DefaultGroup is used when no schedule group is configured.
	DefaultGroup = "default"

	// exprLayout is the instant format inside an at(...) expression.
	exprLayout = "2006-01-02T15:04:05"

	// envelopeKey is the Target.Input field holding the serialized inner payload.
	envelopeKey = "Payload"

	// inputKey is the only inner payload field this package rewrites.
	inputKey = "input"
)

// Mutator performs the get-then-update cycle against the schedule store.
// The read-modify-write is not atomic; correctness relies on one chain of
// self-rescheduling jobs holding scheduling authority per identity.
type Mutator struct {
	store Store
	name  string
	group string
	sem   *semaphore.Weighted
	now   func() time.Time
}

// MutatorConfig holds dependencies and identity for a Mutator.
type MutatorConfig struct {
	Store Store
	Name  string
	Group string

	// MaxStoreCalls bounds concurrent store round-trips (default 4).
	MaxStoreCalls int64

	// Now overrides the clock, for tests.
	Now func() time.Time
}

func NewMutator(cfg MutatorConfig) *Mutator {
	group := cfg.Group
	if group == "" {
		group = DefaultGroup
	}
	maxCalls := cfg.MaxStoreCalls
	if maxCalls <= 0 {
		maxCalls = 4
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Mutator{
		store: cfg.Store,
		name:  cfg.Name,
		group: group,
		sem:   semaphore.NewWeighted(maxCalls),
		now:   now,
	}
}

// Reschedule resolves nextExecution ("+30m" relative or an absolute
// timestamp) against the given IANA timezone, validates it is strictly
// in the future, and rewrites the stored definition: new expression,
// new timezone, optionally a new inner-payload input. Every other field
// of the fetched definition is written back verbatim. An empty nextInput
// leaves the target payload untouched.
func (m *Mutator) Reschedule(ctx context.Context, nextExecution, nextInput, timezone string) (*Result, error) {
	if m.name == "" {
		return nil, ErrConfigMissing
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", timespec.ErrInvalidFormat, timezone)
	}
	now := m.now().In(loc)

	next, err := resolveInstant(nextExecution, now, loc)
	if err != nil {
		return nil, err
	}
	if !next.After(now) {
		return nil, fmt.Errorf("%w: provided %s, current %s",
			ErrPastOrPresentTime, next.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	// One slot covers the whole read-modify-write so a burst of tool
	// calls cannot exhaust the store with interleaved half-cycles.
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer m.sem.Release(1)

	def, err := m.store.Get(ctx, m.name, m.group)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get: %v", ErrStoreUnavailable, err)
	}

	def.Expression = fmt.Sprintf("at(%s)", next.Format(exprLayout))
	def.Timezone = timezone

	if nextInput != "" {
		spliced, err := spliceInput(def.Target.Input, nextInput)
		if err != nil {
			return nil, err
		}
		def.Target.Input = spliced
	}

	arn, err := m.store.Update(ctx, def)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: update: %v", ErrStoreUnavailable, err)
	}

	return &Result{
		ScheduleARN: arn,
		Expression:  def.Expression,
		Timezone:    timezone,
		Name:        m.name,
		Group:       m.group,
		NextInput:   nextInput,
	}, nil
}

// resolveInstant turns a relative spec or absolute timestamp into an
// instant. Zone-less absolute timestamps are interpreted in loc.
func resolveInstant(spec string, now time.Time, loc *time.Location) (time.Time, error) {
	if strings.HasPrefix(spec, "+") {
		d, err := timespec.Parse(spec)
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(d), nil
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation(exprLayout, spec, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q is neither '+<N><m|h|d>' nor an ISO8601 timestamp",
		timespec.ErrInvalidFormat, spec)
}

// spliceInput unwraps the two-level target payload, rewrites only the
// inner input field, and re-serializes both levels. sjson edits in place,
// so every sibling key and the existing key order survive untouched.
func spliceInput(envelope, nextInput string) (string, error) {
	inner := gjson.Get(envelope, envelopeKey)
	if !inner.Exists() {
		return "", fmt.Errorf("target input has no %q field", envelopeKey)
	}

	newInner, err := sjson.Set(inner.String(), inputKey, nextInput)
	if err != nil {
		return "", fmt.Errorf("rewrite inner payload: %w", err)
	}

	newEnvelope, err := sjson.Set(envelope, envelopeKey, newInner)
	if err != nil {
		return "", fmt.Errorf("rewrite envelope: %w", err)
	}
	return newEnvelope, nil
}
