package schedule

import "errors"

// Sentinel errors for the reschedule operation. The scheduling tool
// converts all of these into descriptive failure strings; none of them
// ever decides a job's own success or failure.
var (
	// ErrPastOrPresentTime means the resolved instant is not strictly
	// in the future. The mutator never publishes an elapsed schedule.
	ErrPastOrPresentTime = errors.New("next execution time must be in the future")

	// ErrConfigMissing means the schedule identity itself is not configured.
	ErrConfigMissing = errors.New("schedule name is not configured")

	// ErrNotFound means the identity is configured but absent in the store.
	ErrNotFound = errors.New("schedule not found")

	// ErrStoreUnavailable wraps transient read/write failures from the store.
	ErrStoreUnavailable = errors.New("schedule store unavailable")
)
