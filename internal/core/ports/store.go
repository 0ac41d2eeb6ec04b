package ports

import "go.trai.ch/smelt/internal/core/domain"

// CacheStore defines the interface for the durable key -> artifact store.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Lookup retrieves the entry for a key.
	// Returns nil, nil on a miss.
	Lookup(key domain.CacheKey) (*domain.CacheEntry, error)

	// Commit persists an entry under the key. Safe to call concurrently for
	// different keys; idempotent for identical key+payload.
	Commit(key domain.CacheKey, entry domain.CacheEntry) error

	// Close releases the cache lock.
	Close() error
}
