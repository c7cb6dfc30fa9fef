// Package lock provides the per-cart checkout lock.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisLocker(redisURL string, ttl time.Duration, log *slog.Logger) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisLocker{client: client, ttl: ttl, log: log.With("component", "checkout_lock")}, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// Lock implements checkout.Locker with SET NX PX.
func (l *RedisLocker) Lock(ctx context.Context, key string) (bool, func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return false, nil, nil
	}

	release := func() {
		// The request context may already be cancelled; release regardless.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn("Failed to release checkout lock", "key", key, "error", err)
		}
	}
	return true, release, nil
}
