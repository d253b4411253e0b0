package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter is the SharedCounter backing the LLM limiter across gateway
// replicas: a single INCR per key, with the TTL set only on the increment
// that creates the key so the window doesn't get pushed back by later hits.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter dials addr lazily; go-redis only opens a connection on
// first command, so a bad address surfaces as a failed Incr, not here.
func NewRedisCounter(addr string) *RedisCounter {
	return &RedisCounter{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, bool) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	if count == 1 {
		r.client.Expire(ctx, key, ttl)
	}
	return count, true
}

func (r *RedisCounter) Close() error { return r.client.Close() }
