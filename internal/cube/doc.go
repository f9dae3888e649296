// Package cube implements the device registry for Cube Core.
//
// A cube is a field device identified by a UUID, installed at a named
// location, publishing sensor readings over MQTT. The registry is the
// authoritative record of which cubes belong to the installation and
// therefore which per-cube sensor topics the ingestion pipeline should
// hold subscriptions for.
//
// # Architecture
//
// The package follows the repository pattern:
//
//   - Repository: persistence interface (SQLite implementation provided)
//   - Registry: thread-safe cached wrapper around Repository
//
// The Registry accepts an optional Subscriber. When set, cube additions
// and removals are mirrored into MQTT topic subscriptions so readings
// from registered cubes start and stop flowing with registry membership.
//
// # Validation
//
// Cube IDs must be valid UUIDs and locations must be non-empty. Both are
// validated on every write path; persistence is never reached with bad
// input.
package cube
