package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// Memory is an in-process Cache for single-instance deployments and tests.
// Expired entries are replaced lazily on the next access; there is no sweeper
// and no size bound.
type Memory[T any] struct {
	entries map[string]memoryEntry[T]
	logger  *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
}

// NewMemory creates an empty in-memory cache.
func NewMemory[T any](logger *zap.Logger) *Memory[T] {
	return &Memory[T]{
		entries: make(map[string]memoryEntry[T]),
		logger:  logger.Named("memory_cache"),
		now:     time.Now,
	}
}

// GetOrCompute implements Cache. The lock is released while compute runs so
// one slow upstream sequence cannot stall lookups for other keys.
func (m *Memory[T]) GetOrCompute(
	ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (T, error),
) (T, error) {
	m.mu.Lock()

	if entry, ok := m.entries[key]; ok && m.now().Before(entry.expiresAt) {
		m.mu.Unlock()
		m.logger.Debug("Cache hit", zap.String("key", key))

		return entry.value, nil
	}

	m.mu.Unlock()

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry[T]{
		value:     value,
		expiresAt: m.now().Add(ttl),
	}
	m.mu.Unlock()

	m.logger.Debug("Cache store", zap.String("key", key), zap.Duration("ttl", ttl))

	return value, nil
}
