package token

import "errors"

// Sentinel errors for token operations.
// Use errors.Is() to check for these errors.
var (
	// ErrTokenNotFound indicates no token matched the name or key.
	ErrTokenNotFound = errors.New("token: not found")

	// ErrTokenExpired indicates the token's TTL has elapsed.
	ErrTokenExpired = errors.New("token: expired")

	// ErrInvalidToken indicates an empty or malformed token.
	ErrInvalidToken = errors.New("token: invalid")
)
