package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get on a cache miss. Callers fall back to the
// durable store; a miss is never an internal error.
var ErrNotFound = errors.New("cache: key not found")

// Store is the shared expiring key-value tier fronting the durable store.
// The session store is the sole writer of session entries; the rate limiter
// owns its counter keys.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error

	// Increment bumps a counter key, starting the window's TTL on first use,
	// and returns the new count.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}
