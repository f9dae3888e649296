package sensordata

import "errors"

// Sentinel errors for sensor data operations.
// Use errors.Is() to check for these errors.
var (
	// ErrUnknownCube indicates a reading or query referenced a cube that
	// is not registered.
	ErrUnknownCube = errors.New("sensordata: unknown cube")

	// ErrInvalidCubeID indicates a query filter carried a malformed
	// cube ID, as opposed to a well-formed one that is not registered.
	ErrInvalidCubeID = errors.New("sensordata: invalid cube id")

	// ErrInvalidTimestamp indicates a time bound could not be parsed.
	ErrInvalidTimestamp = errors.New("sensordata: invalid timestamp")

	// ErrInvalidTimeRange indicates the window start is after its end.
	ErrInvalidTimeRange = errors.New("sensordata: start is after end")
)
