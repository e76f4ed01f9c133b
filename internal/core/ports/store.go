package ports

import "go.trai.ch/symdex/internal/core/domain"

// CacheStore is the persisted mapping from relative file path to cache entry.
// Implementations must be safe for concurrent use.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Get returns a copy of the entry for path.
	Get(path string) (*domain.CacheEntry, bool)

	// Put replaces the entry for path.
	Put(path string, entry domain.CacheEntry) error

	// Remove deletes the entry for path and reports whether it existed.
	Remove(path string) (bool, error)

	// Clear removes every entry, including the persisted representation.
	Clear() error

	// Keys returns the paths of all entries.
	Keys() []string

	// SizeBytes returns the footprint of the persisted representation.
	SizeBytes() int64

	// Flush persists pending changes.
	Flush() error

	// Close flushes and releases the store.
	Close() error
}
