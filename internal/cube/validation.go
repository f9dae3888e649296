package cube

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxLocationLength caps location strings. Locations feed into MQTT
// topic segments and database rows; unbounded input is rejected early.
const maxLocationLength = 128

// ValidateID checks that a cube ID is a well-formed UUID.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCubeID)
	}
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("%w: %q is not a valid UUID", ErrInvalidCubeID, id)
	}
	return nil
}

// ValidateLocation checks that a location is non-empty and within bounds.
// Leading and trailing whitespace does not count toward content.
func ValidateLocation(location string) error {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLocation)
	}
	if len(location) > maxLocationLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidLocation, maxLocationLength)
	}
	return nil
}

// Validate checks all fields of a cube.
// Returns the first validation error encountered.
func Validate(c Cube) error {
	if err := ValidateID(c.ID); err != nil {
		return err
	}
	return ValidateLocation(c.Location)
}
