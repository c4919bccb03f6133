package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares failure counters across instances.
type RedisLimiter struct {
	redis  redis.UniversalClient
	config Config
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{redis: client, config: cfg, prefix: "login:fail:"}
}

func (l *RedisLimiter) key(k string) string {
	return l.prefix + k
}

func (l *RedisLimiter) Check(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, l.key(key)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read login counter: %w", err)
	}
	if count >= l.config.MaxAttempts {
		return ErrRateLimited
	}
	return nil
}

// Fail increments the counter. The TTL is set when the first failure creates
// the key, so the window is fixed from that failure.
func (l *RedisLimiter) Fail(ctx context.Context, key string) error {
	k := l.key(key)
	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("increment login counter: %w", err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("expire login counter: %w", err)
		}
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("reset login counter: %w", err)
	}
	return nil
}
