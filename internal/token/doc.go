// Package token manages API access keys.
//
// Cube Core authenticates HTTP clients with opaque bearer keys rather
// than signed claims; a key is a UUID with the dashes stripped, stored
// server-side with a creation time and optional TTL. Two well-known
// tokens exist: the server token supplied during setup (its presence
// marks the system as configured) and the app token minted for the
// dashboard at the same moment.
package token
