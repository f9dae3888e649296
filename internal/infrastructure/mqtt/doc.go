// Package mqtt provides the MQTT transport layer for Cube Core.
//
// It wraps paho.mqtt.golang with connection management, automatic
// reconnection with exponential backoff, subscription tracking, and
// panic-safe message handlers.
//
// # Connection Lifecycle
//
// Connect() establishes the initial connection and configures a Last Will
// and Testament so other services can detect an unexpected shutdown.
// Subscriptions registered via Subscribe() are tracked internally and
// restored automatically whenever the connection is re-established.
//
// # Topic Hierarchy
//
// Cube Core uses three topic families:
//
//	cube/{action}                          - cube lifecycle (create/update/delete)
//	sensor/{type}/{cubeID}/{location}      - sensor readings published by cubes
//	actuator/{name}/{cubeID}/{location}    - actuator commands published by Core
//
// The Topics type provides builders and parsers so topic strings are never
// assembled by hand outside this package.
//
// # Thread Safety
//
// All Client methods are safe for concurrent use. Message handlers run
// in goroutines owned by the paho library and are wrapped with panic
// recovery; a panicking handler is logged and dropped without affecting
// the connection.
package mqtt
