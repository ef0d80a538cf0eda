// Package ratelimit provides the windowed request counter behind the
// generic rate limiter: an atomic increment scoped to a rolling time
// window, with interchangeable redis-backed and in-process
// implementations.
package ratelimit

import (
	"context"
	"time"
)

// Counter atomically increments a windowed counter and returns the count
// after the increment. The first increment of a window arms its expiry;
// later increments within the window never extend it.
//
// Implementations must make the increment-and-arm a single atomic step: a
// read-then-write pair would let two concurrent callers both observe
// count 1 and each re-arm the expiry, silently stretching the window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
