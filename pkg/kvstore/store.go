// Package kvstore provides the key-value store boundary shared by the
// cache service and the cost guard. Implementations must be safe for
// concurrent use.
package kvstore

import (
	"context"
	"time"
)

// Store is the narrow key-value contract the governance layer depends on.
//
// A zero TTL means the entry does not expire. IncrByFloat must be atomic
// with respect to other increments of the same key; it is the only
// primitive mutated concurrently by multiple callers.
type Store interface {
	// Get retrieves a raw value. The second return reports presence;
	// an expired or missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a raw value, overwriting any previous entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// IncrByFloat atomically adds delta to a numeric counter, creating it
	// at delta if absent, and refreshes its expiry. Returns the new value.
	IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error)

	// GetFloat reads a numeric counter. A missing key is (0, false, nil).
	GetFloat(ctx context.Context, key string) (float64, bool, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}
