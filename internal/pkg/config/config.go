package config

import (
	"io"
	"time"
)

// DurationConfig reads integer values as durations in a fixed unit.
type DurationConfig interface {
	// GetSecond reads key as a number of seconds. Missing or malformed values yield zero.
	GetSecond(key string) time.Duration
	// GetMinute reads key as a number of minutes. Missing or malformed values yield zero.
	GetMinute(key string) time.Duration
}

// Config is the read-only view of application settings.
//
// Lookups never fail: a missing or malformed key returns the zero value, so
// callers apply their own fallbacks.
type Config interface {
	io.Closer
	DurationConfig

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetBinary reads a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray reads a comma separated list. Empty elements are dropped.
	GetArray(key string) []string

	// GetMap reads "k1:v1,k2:v2" pairs.
	GetMap(key string) map[string]string
}
