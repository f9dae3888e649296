// Package ingest connects the MQTT transport to the domain layer.
//
// It owns three pieces:
//
//   - Message decoding: raw topic/payload pairs are classified into
//     tagged variants (lifecycle announcement, sensor reading, unknown)
//     before any business logic sees them.
//
//   - Subscription management: an idempotent manager tracks which
//     per-cube sensor topics and which lifecycle wildcard are held,
//     keeping subscriptions in lockstep with registry membership and
//     with the configured/unconfigured state of the system.
//
//   - The pipeline: a small state machine (disconnected, connecting,
//     connected) that dispatches decoded messages to the registry, the
//     sensor store, and the feedback loop. Every message is handled
//     under its own timeout; a handler failure is logged and the
//     message dropped, never crashing the pipeline.
//
// The pipeline is deliberately explicit about its dependencies - it is
// constructed with everything it touches and holds no package-level
// state, so tests can assemble it from mocks.
package ingest
