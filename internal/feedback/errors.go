package feedback

import "errors"

// Sentinel errors for feedback operations.
// Use errors.Is() to check for these errors.
var (
	// ErrBandMismatch indicates thresholds and colors differ in length.
	ErrBandMismatch = errors.New("feedback: thresholds and colors must have equal length")

	// ErrBandOrder indicates thresholds are not strictly ascending.
	ErrBandOrder = errors.New("feedback: thresholds must be strictly ascending")

	// ErrWindowNotFound indicates no readings have been observed for the cube.
	ErrWindowNotFound = errors.New("feedback: no window for cube")
)
