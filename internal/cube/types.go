package cube

// Cube represents a registered field device.
//
// The ID is assigned by the device itself (a UUID burned in at
// provisioning time) and the location is free-form text describing where
// the cube is installed ("living-room", "floor-2/kitchen").
type Cube struct {
	ID       string `json:"id" db:"id"`
	Location string `json:"location" db:"location"`
}

// BatchStatus describes the outcome of one entry in a batch add.
type BatchStatus string

// Batch entry outcomes.
const (
	// BatchAdded indicates the cube was persisted and registered.
	BatchAdded BatchStatus = "added"

	// BatchExists indicates a cube with the same ID was already registered.
	BatchExists BatchStatus = "exists"

	// BatchInvalid indicates the cube failed validation.
	BatchInvalid BatchStatus = "invalid"

	// BatchFailed indicates a persistence error.
	BatchFailed BatchStatus = "failed"
)

// BatchResult reports the outcome of a single cube in a batch add.
// A batch continues past individual failures; callers inspect the
// results to see which cubes were actually registered.
type BatchResult struct {
	Cube   Cube        `json:"cube"`
	Status BatchStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// Succeeded reports whether this entry was registered.
func (r BatchResult) Succeeded() bool {
	return r.Status == BatchAdded
}
