package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter allows limit submissions per address within a fixed window.
// Counters live under "rate_limit:{ip}" and expire with the window.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// ErrSharedKeyspace means the limiter would write its counters into the
// database that holds unnamespaced content keys.
var ErrSharedKeyspace = errors.New("rate limit redis shares the content keyspace")

// SharesKeyspace reports whether two redis:// URLs address the same server
// and logical database.
func SharesKeyspace(a, b string) (bool, error) {
	optA, err := redis.ParseURL(a)
	if err != nil {
		return false, fmt.Errorf("parse redis url: %w", err)
	}
	optB, err := redis.ParseURL(b)
	if err != nil {
		return false, fmt.Errorf("parse redis url: %w", err)
	}
	return optA.Addr == optB.Addr && optA.DB == optB.DB, nil
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: int64(limit), window: window}
}

func rateLimitKey(ip string) string {
	return "rate_limit:" + ip
}

func (l *RedisLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	key := rateLimitKey(ip)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return count <= l.limit, nil
}
