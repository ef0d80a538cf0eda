package ratelimit

import (
	"context"
	"sync"
	"time"
)

// bucket is one key's window state.
type bucket struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounter is the in-process fallback Counter used when no
// distributed cache is configured. It is exact for a single process and
// approximate under horizontal scale-out, since each process counts only
// its own traffic. That tradeoff is accepted: the fallback exists so the
// limiter keeps working without external dependencies, not to hold a hard
// global bound.
type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewMemoryCounter creates an in-process Counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// WithClock substitutes the clock, for tests.
func (c *MemoryCounter) WithClock(now func() time.Time) *MemoryCounter {
	c.now = now
	return c
}

// Incr increments the key's bucket, resetting it to {count: 1, expiry:
// now+window} when absent or expired.
func (c *MemoryCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	b, ok := c.buckets[key]
	if !ok || !b.expiresAt.After(now) {
		c.buckets[key] = &bucket{count: 1, expiresAt: now.Add(window)}
		return 1, nil
	}

	b.count++
	return b.count, nil
}
