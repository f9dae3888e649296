package token

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known token names.
const (
	// NameServer is the token supplied by the installer during setup.
	// Its presence marks the system as configured.
	NameServer = "server"

	// NameApp is the token minted for the dashboard during setup.
	NameApp = "app"
)

// Token is a stored API access key.
//
// Created is unix seconds; TTL is a lifetime in seconds with zero
// meaning the token never expires.
type Token struct {
	Name    string `json:"name" db:"name"`
	Key     string `json:"key" db:"key"`
	Created int64  `json:"created" db:"created"`
	TTL     int64  `json:"ttl" db:"ttl"`
}

// Expired reports whether the token's TTL has elapsed at the given time.
func (t Token) Expired(now time.Time) bool {
	if t.TTL <= 0 {
		return false
	}
	return now.Unix() > t.Created+t.TTL
}

// GenerateKey produces a new opaque access key: a random UUID with the
// dashes stripped (32 hex characters).
func GenerateKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
