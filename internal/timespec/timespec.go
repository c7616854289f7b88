// Package timespec parses the compact relative-time grammar used by the
// scheduling tool: "+30m", "+2h", "+1d".
package timespec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidFormat is returned when a spec does not match +<N><m|h|d>.
var ErrInvalidFormat = errors.New("invalid relative time format")

var relPattern = regexp.MustCompile(`^\+(\d+)([mhdMHD])$`)

// Parse converts a relative time spec into a duration. Units are
// minutes, hours, and days (24h); no fractional values.
func Parse(spec string) (time.Duration, error) {
	m := relPattern.FindStringSubmatch(spec)
	if m == nil {
		return 0, fmt.Errorf("%w: %q (use '+30m', '+2h', '+1d')", ErrInvalidFormat, spec)
	}

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, spec, err)
	}

	switch m[2] {
	case "m", "M":
		return time.Duration(value) * time.Minute, nil
	case "h", "H":
		return time.Duration(value) * time.Hour, nil
	default:
		return time.Duration(value) * 24 * time.Hour, nil
	}
}
