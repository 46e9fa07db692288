package cache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Redis is a Cache backed by a shared Redis instance so multiple processes
// serve from one entry per handle. Values are stored as sonic-encoded JSON
// with a server-side expiry.
type Redis[T any] struct {
	client rueidis.Client
	logger *zap.Logger
	prefix string
}

// NewRedis creates a Redis-backed cache. All keys are namespaced by prefix.
func NewRedis[T any](client rueidis.Client, prefix string, logger *zap.Logger) *Redis[T] {
	return &Redis[T]{
		client: client,
		logger: logger.Named("redis_cache"),
		prefix: prefix,
	}
}

// GetOrCompute implements Cache. Redis read or write failures degrade to
// computing fresh values rather than failing the request; only compute
// failures propagate.
func (r *Redis[T]) GetOrCompute(
	ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (T, error),
) (T, error) {
	var zero T

	fullKey := r.prefix + key

	data, err := r.client.Do(ctx, r.client.B().Get().Key(fullKey).Build()).AsBytes()
	switch {
	case err == nil:
		var value T
		if err := sonic.Unmarshal(data, &value); err == nil {
			r.logger.Debug("Cache hit", zap.String("key", fullKey))

			return value, nil
		}

		// Undecodable entries are recomputed and overwritten below
		r.logger.Warn("Discarding undecodable cache entry", zap.String("key", fullKey))
	case rueidis.IsRedisNil(err):
	default:
		r.logger.Warn("Failed to read from Redis", zap.String("key", fullKey), zap.Error(err))
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := sonic.Marshal(value)
	if err != nil {
		r.logger.Warn("Failed to encode cache value", zap.String("key", fullKey), zap.Error(err))

		return value, nil
	}

	setErr := r.client.Do(ctx,
		r.client.B().Set().Key(fullKey).Value(rueidis.BinaryString(encoded)).Ex(ttl).Build(),
	).Error()
	if setErr != nil {
		r.logger.Warn("Failed to store cache entry", zap.String("key", fullKey), zap.Error(setErr))

		return value, nil
	}

	r.logger.Debug("Cache store", zap.String("key", fullKey), zap.Duration("ttl", ttl))

	return value, nil
}
