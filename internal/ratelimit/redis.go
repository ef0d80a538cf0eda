package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments the key and arms its expiry only when this call
// created the window. One script, one round trip: INCR followed by a
// separate EXPIRE would race concurrent callers into re-arming the window.
var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// keyPrefix namespaces limiter keys in the shared cache.
const keyPrefix = "ratelimit:"

// RedisCounter is the distributed Counter implementation, shared by every
// process behind the load balancer.
type RedisCounter struct {
	client redis.Scripter
}

// NewRedisCounter creates a Counter backed by the given redis client.
func NewRedisCounter(client redis.Scripter) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr runs the atomic increment script. window is truncated to whole
// seconds, minimum one.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	seconds := int64(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	result, err := incrScript.Run(ctx, c.client, []string{keyPrefix + key}, seconds).Int64()
	if err != nil {
		return 0, fmt.Errorf("rate limit increment failed for key %q: %w", key, err)
	}
	return result, nil
}
