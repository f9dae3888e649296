package ingest

import "errors"

// Sentinel errors for ingestion operations.
// Use errors.Is() to check for these errors.
var (
	// ErrUnknownTopic indicates a message arrived on a topic that maps
	// to no known variant.
	ErrUnknownTopic = errors.New("ingest: unknown topic")

	// ErrMalformedPayload indicates a message body could not be decoded.
	ErrMalformedPayload = errors.New("ingest: malformed payload")

	// ErrMissingValue indicates a sensor payload lacked its value field.
	ErrMissingValue = errors.New("ingest: missing value field")

	// ErrNotConnected indicates a pipeline operation that requires an
	// active broker connection.
	ErrNotConnected = errors.New("ingest: not connected")
)
