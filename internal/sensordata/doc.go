// Package sensordata stores and queries sensor readings.
//
// Readings arrive from the ingestion pipeline and are persisted with a
// server-assigned timestamp; device clocks are never trusted. SQLite is
// the system of record, with rows removed automatically when the owning
// cube is deleted from the registry.
//
// Queries filter by cube and by an optional time window. Window bounds
// accept RFC 3339, RFC 1123, or unix-second timestamps; an inverted
// window (start after end) is rejected before the database is touched.
package sensordata
