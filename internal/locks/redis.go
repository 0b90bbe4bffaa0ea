package locks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLock is a SetNX-based processing lease. It guards handlers that must
// not run twice concurrently for the same key; expired leases fall through to
// the handler's own idempotency checks.
type RedisLock struct {
	client *redis.Client
	prefix string
}

func NewRedisLock(client *redis.Client, prefix string) *RedisLock {
	return &RedisLock{client: client, prefix: prefix}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+key, "1", ttl).Result()
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
