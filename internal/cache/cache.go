// Package cache provides the time-to-live verdict cache that collapses
// repeated checks for one handle into a single upstream call sequence.
package cache

import (
	"context"
	"time"
)

// Cache stores computed values under string keys for a bounded lifetime.
//
// GetOrCompute returns the cached value when an unexpired entry exists,
// otherwise it invokes compute and stores the result for ttl. A failed
// compute stores nothing and the failure is propagated unchanged.
// Concurrent misses for one key may each invoke compute; the last write
// wins, which is acceptable because entries are whole-value replacements.
type Cache[T any] interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error)
}
