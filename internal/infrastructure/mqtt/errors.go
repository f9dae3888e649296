package mqtt

import "errors"

// Sentinel errors for MQTT operations.
// Use errors.Is() to check for these errors.
var (
	// ErrConnectionFailed indicates the initial broker connection failed.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected indicates an operation was attempted while disconnected.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrPublishFailed indicates a publish operation failed.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed indicates a subscribe operation failed.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed indicates an unsubscribe operation failed.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidTopic indicates an empty or malformed topic.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrInvalidQoS indicates a QoS level outside 0-2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level")
)
