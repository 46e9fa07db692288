package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errCompute = errors.New("compute failed")

func TestMemoryGetOrCompute(t *testing.T) {
	t.Parallel()

	t.Run("computes once within ttl", func(t *testing.T) {
		t.Parallel()

		m := NewMemory[string](zap.NewNop())

		calls := 0
		compute := func(context.Context) (string, error) {
			calls++
			return "verdict", nil
		}

		value, err := m.GetOrCompute(t.Context(), "santa", time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, "verdict", value)

		value, err = m.GetOrCompute(t.Context(), "santa", time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, "verdict", value)
		assert.Equal(t, 1, calls)
	})

	t.Run("distinct keys are independent", func(t *testing.T) {
		t.Parallel()

		m := NewMemory[string](zap.NewNop())

		calls := 0
		compute := func(context.Context) (string, error) {
			calls++
			return "value", nil
		}

		_, err := m.GetOrCompute(t.Context(), "alice", time.Hour, compute)
		require.NoError(t, err)
		_, err = m.GetOrCompute(t.Context(), "bob", time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("failure stores nothing", func(t *testing.T) {
		t.Parallel()

		m := NewMemory[string](zap.NewNop())

		calls := 0
		_, err := m.GetOrCompute(t.Context(), "santa", time.Hour, func(context.Context) (string, error) {
			calls++
			return "", errCompute
		})
		require.ErrorIs(t, err, errCompute)

		// The next call recomputes instead of serving a cached failure
		value, err := m.GetOrCompute(t.Context(), "santa", time.Hour, func(context.Context) (string, error) {
			calls++
			return "recovered", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "recovered", value)
		assert.Equal(t, 2, calls)
	})

	t.Run("expiry boundary", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 12, 24, 12, 0, 0, 0, time.UTC)

		m := NewMemory[string](zap.NewNop())
		m.now = func() time.Time { return now }

		calls := 0
		compute := func(context.Context) (string, error) {
			calls++
			return "verdict", nil
		}

		_, err := m.GetOrCompute(t.Context(), "santa", 24*time.Hour, compute)
		require.NoError(t, err)

		// One nanosecond before expiry is still a hit
		now = now.Add(24*time.Hour - time.Nanosecond)
		_, err = m.GetOrCompute(t.Context(), "santa", 24*time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)

		// Exactly at expiry is a miss
		now = now.Add(time.Nanosecond)
		_, err = m.GetOrCompute(t.Context(), "santa", 24*time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})
}
