package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounter_Incr(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCounter().WithClock(func() time.Time { return now })

	for want := int64(1); want <= 4; want++ {
		got, err := c.Incr(ctx, "producers:user:1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemoryCounter_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCounter().WithClock(func() time.Time { return now })

	_, err := c.Incr(ctx, "producers:user:1", time.Minute)
	require.NoError(t, err)
	_, err = c.Incr(ctx, "producers:user:1", time.Minute)
	require.NoError(t, err)

	got, err := c.Incr(ctx, "producers:user:2", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestMemoryCounter_WindowExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCounter().WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		_, err := c.Incr(ctx, "k", time.Minute)
		require.NoError(t, err)
	}

	// Just inside the window: the bucket survives.
	now = now.Add(59 * time.Second)
	got, err := c.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)

	// Past the original expiry: a fresh window starts at 1.
	now = now.Add(2 * time.Minute)
	got, err = c.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestMemoryCounter_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewMemoryCounter()
	_, err := c.Incr(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
