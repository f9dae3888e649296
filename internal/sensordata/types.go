package sensordata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reading is a single stored sensor measurement.
//
// The timestamp is assigned by the server at append time, in unix
// seconds. Cubes do not carry reliable clocks.
type Reading struct {
	CubeID    string  `json:"cube_id" db:"cube_id"`
	Timestamp int64   `json:"timestamp" db:"timestamp"`
	Value     float64 `json:"value" db:"value"`
}

// Filter narrows a reading query.
//
// CubeID is optional; empty matches all cubes. Start and End are unix
// seconds with zero meaning unbounded on that side. As a consequence
// the epoch second itself (1970-01-01T00:00:00Z) cannot be used as a
// bound; readings are timestamped at append time, so no stored reading
// can predate the server anyway.
type Filter struct {
	CubeID string
	Start  int64
	End    int64
}

// Validate checks the filter's cube ID (when present) and window order.
func (f Filter) Validate() error {
	if f.CubeID != "" {
		if err := uuid.Validate(f.CubeID); err != nil {
			return fmt.Errorf("%w: %q is not a valid UUID", ErrInvalidCubeID, f.CubeID)
		}
	}
	if f.Start != 0 && f.End != 0 && f.Start > f.End {
		return fmt.Errorf("%w: %d > %d", ErrInvalidTimeRange, f.Start, f.End)
	}
	return nil
}

// timeLayouts are the accepted textual timestamp formats, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02",
}

// ParseTimeBound converts a query string into unix seconds.
//
// Accepts an empty string (unbounded, returns 0), a decimal unix-seconds
// value, or any of the textual layouts above. Returns ErrInvalidTimestamp
// for anything else.
func ParseTimeBound(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		if unix < 0 {
			return 0, fmt.Errorf("%w: negative unix time %q", ErrInvalidTimestamp, s)
		}
		return unix, nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// ParseFilter builds a validated Filter from raw query inputs.
func ParseFilter(cubeID, start, end string) (Filter, error) {
	startUnix, err := ParseTimeBound(start)
	if err != nil {
		return Filter{}, fmt.Errorf("parsing start: %w", err)
	}
	endUnix, err := ParseTimeBound(end)
	if err != nil {
		return Filter{}, fmt.Errorf("parsing end: %w", err)
	}

	f := Filter{CubeID: cubeID, Start: startUnix, End: endUnix}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}
