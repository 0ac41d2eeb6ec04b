package domain

import (
	"strings"
	"time"
)

// KeyDelimiter joins the identifying path segments of a cache key.
const KeyDelimiter = "|"

// CacheKey identifies one unit of cacheable work. Two invocations produce
// the same key iff their path segments, variance fingerprint, and active
// override fingerprint are all equal.
type CacheKey struct {
	// Segments are the identifying path, e.g. ["bundle","css","Article1"].
	Segments []string
	// Variance is the combined fingerprint of the settings object, the input
	// artifact, and the active override filter, if any.
	Variance string
}

// String returns the canonical serialized form of the key.
func (k CacheKey) String() string {
	if k.Variance == "" {
		return strings.Join(k.Segments, KeyDelimiter)
	}
	return strings.Join(k.Segments, KeyDelimiter) + KeyDelimiter + "#" + k.Variance
}

// Child returns a key scoped beneath this key's segments.
func (k CacheKey) Child(segments ...string) CacheKey {
	child := make([]string, 0, len(k.Segments)+len(segments))
	child = append(child, k.Segments...)
	child = append(child, segments...)
	return CacheKey{Segments: child}
}

// CacheEntry is the persisted record for a cache key.
type CacheEntry struct {
	Key       string    `json:"key"`
	Success   bool      `json:"success"`
	Payload   []byte    `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}
