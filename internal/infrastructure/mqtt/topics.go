package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the Cube Core MQTT hierarchy.
//
// Cubes publish readings under sensor/ and listen for commands under
// actuator/. Lifecycle announcements (a cube joining, moving, or leaving
// the installation) arrive under cube/.
const (
	// TopicPrefixCube is the base for cube lifecycle topics.
	TopicPrefixCube = "cube"

	// TopicPrefixSensor is the base for sensor reading topics.
	TopicPrefixSensor = "sensor"

	// TopicPrefixActuator is the base for actuator command topics.
	TopicPrefixActuator = "actuator"

	// TopicPrefixSystem is the base for Cube Core system topics.
	TopicPrefixSystem = "cubecore/system"
)

// Lifecycle actions carried on cube/{action} topics.
const (
	LifecycleCreate = "create"
	LifecycleUpdate = "update"
	LifecycleDelete = "delete"
)

// Topics provides builders and parsers for Cube Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	sub := topics.CubeSensorData("a3f1...-uuid")
//	// Returns: "sensor/+/a3f1...-uuid/#"
type Topics struct{}

// CubeLifecycle returns the wildcard pattern for all cube lifecycle
// announcements. This is the default subscription held while the system
// is unconfigured.
//
// Pattern: cube/#
func (Topics) CubeLifecycle() string {
	return TopicPrefixCube + "/#"
}

// CubeAction returns the lifecycle topic for a specific action.
//
// Example: cube/create
func (Topics) CubeAction(action string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixCube, action)
}

// CubeSensorData returns the pattern matching every sensor reading
// published by a single cube, regardless of sensor type or location.
//
// Pattern: sensor/+/{cubeID}/#
func (Topics) CubeSensorData(cubeID string) string {
	return fmt.Sprintf("%s/+/%s/#", TopicPrefixSensor, cubeID)
}

// SensorData returns the concrete topic a cube publishes a reading on.
//
// Example: sensor/bme680/550e8400-e29b-41d4-a716-446655440000/living-room
func (Topics) SensorData(sensorType, cubeID, location string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicPrefixSensor, sensorType, cubeID, location)
}

// Actuator returns the command topic for a named actuator on a cube.
//
// Example: actuator/hue/550e8400-e29b-41d4-a716-446655440000/living-room
func (Topics) Actuator(name, cubeID, location string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicPrefixActuator, name, cubeID, location)
}

// SystemStatus returns the retained status topic used for online/offline
// announcements and the Last Will and Testament.
//
// Example: cubecore/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// ParseLifecycle extracts the action from a cube lifecycle topic.
//
// Returns the action (create/update/delete) and true, or "" and false if
// the topic is not a recognised lifecycle topic.
func (Topics) ParseLifecycle(topic string) (action string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 2 || parts[0] != TopicPrefixCube {
		return "", false
	}
	switch parts[1] {
	case LifecycleCreate, LifecycleUpdate, LifecycleDelete:
		return parts[1], true
	default:
		return "", false
	}
}

// ParseSensorData extracts the sensor type, cube ID, and location from a
// sensor reading topic. The location may itself contain slashes; everything
// after the cube ID is joined back together.
//
// Returns false if the topic does not match sensor/{type}/{cubeID}/{location}.
func (Topics) ParseSensorData(topic string) (sensorType, cubeID, location string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[0] != TopicPrefixSensor {
		return "", "", "", false
	}
	if parts[1] == "" || parts[2] == "" || parts[3] == "" {
		return "", "", "", false
	}
	return parts[1], parts[2], strings.Join(parts[3:], "/"), true
}
