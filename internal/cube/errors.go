package cube

import "errors"

// Sentinel errors for cube operations.
// Use errors.Is() to check for these errors.
var (
	// ErrCubeNotFound indicates the requested cube does not exist.
	ErrCubeNotFound = errors.New("cube: not found")

	// ErrCubeExists indicates a cube with the same ID is already registered.
	ErrCubeExists = errors.New("cube: already exists")

	// ErrInvalidCubeID indicates the cube ID is not a valid UUID.
	ErrInvalidCubeID = errors.New("cube: invalid cube ID")

	// ErrInvalidLocation indicates the location is empty or too long.
	ErrInvalidLocation = errors.New("cube: invalid location")
)
