package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/cube-core/internal/cube"
	"github.com/nerrad567/cube-core/internal/infrastructure/mqtt"
)

// Designated air-quality sensor. Readings from this sensor type feed the
// LED feedback loop, and its payloads carry the value under "iaq" rather
// than the generic "value" field.
const (
	AirQualitySensor = "bme680"
	airQualityField  = "iaq"
	genericField     = "value"
)

// Kind tags a decoded message variant.
type Kind int

// Message variants.
const (
	// KindUnknown is a message on an unrecognised topic.
	KindUnknown Kind = iota

	// KindLifecycle is a cube lifecycle announcement.
	KindLifecycle

	// KindReading is a sensor reading.
	KindReading
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindLifecycle:
		return "lifecycle"
	case KindReading:
		return "reading"
	default:
		return "unknown"
	}
}

// Lifecycle is a decoded cube lifecycle announcement.
type Lifecycle struct {
	Action string
	Cube   cube.Cube
}

// Reading is a decoded sensor reading, value already extracted from the
// sensor-type-specific payload field.
type Reading struct {
	SensorType string
	CubeID     string
	Location   string
	Value      float64
}

// AirQuality reports whether this reading came from the designated
// air-quality sensor.
func (r Reading) AirQuality() bool {
	return r.SensorType == AirQualitySensor
}

// Message is the tagged union of decoded variants. Exactly one of
// Lifecycle/Reading is set, according to Kind.
type Message struct {
	Kind      Kind
	Lifecycle *Lifecycle
	Reading   *Reading
}

// Decode classifies a raw MQTT message into a tagged variant.
//
// Lifecycle bodies are JSON cubes ({"id": ..., "location": ...}); the
// delete action accepts a body with only the ID. Sensor bodies are JSON
// objects carrying the reading under "iaq" for the air-quality sensor
// and "value" for everything else.
//
// Returns ErrUnknownTopic for topics outside the cube/sensor hierarchy
// and ErrMalformedPayload/ErrMissingValue for undecodable bodies.
func Decode(topic string, payload []byte) (Message, error) {
	topics := mqtt.Topics{}

	if action, ok := topics.ParseLifecycle(topic); ok {
		return decodeLifecycle(action, payload)
	}

	if sensorType, cubeID, location, ok := topics.ParseSensorData(topic); ok {
		return decodeReading(sensorType, cubeID, location, payload)
	}

	return Message{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
}

func decodeLifecycle(action string, payload []byte) (Message, error) {
	var c cube.Cube
	if err := json.Unmarshal(payload, &c); err != nil {
		return Message{}, fmt.Errorf("%w: lifecycle body: %w", ErrMalformedPayload, err)
	}
	if c.ID == "" {
		return Message{}, fmt.Errorf("%w: lifecycle body missing id", ErrMalformedPayload)
	}

	return Message{
		Kind:      KindLifecycle,
		Lifecycle: &Lifecycle{Action: action, Cube: c},
	}, nil
}

func decodeReading(sensorType, cubeID, location string, payload []byte) (Message, error) {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Message{}, fmt.Errorf("%w: sensor body: %w", ErrMalformedPayload, err)
	}

	field := genericField
	if sensorType == AirQualitySensor {
		field = airQualityField
	}

	raw, ok := fields[field]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q not in %s payload", ErrMissingValue, field, sensorType)
	}
	value, ok := raw.(float64)
	if !ok {
		return Message{}, fmt.Errorf("%w: %q is not numeric", ErrMalformedPayload, field)
	}

	return Message{
		Kind: KindReading,
		Reading: &Reading{
			SensorType: sensorType,
			CubeID:     cubeID,
			Location:   location,
			Value:      value,
		},
	}, nil
}
