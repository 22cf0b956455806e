package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFillLock implements fillLocker on top of a Redis SET NX key with a
// TTL. The TTL bounds how long a crashed run can keep a month locked.
type RedisFillLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFillLock creates a lock manager. A zero ttl defaults to 2 minutes.
func NewRedisFillLock(client *redis.Client, ttl time.Duration) *RedisFillLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisFillLock{client: client, ttl: ttl}
}

func (l *RedisFillLock) key(name string) string {
	return fmt.Sprintf("fill-lock:%s", name)
}

// Acquire takes the lock, returning false when another run holds it.
func (l *RedisFillLock) Acquire(ctx context.Context, name string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(name), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire fill lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock.
func (l *RedisFillLock) Release(ctx context.Context, name string) error {
	if err := l.client.Del(ctx, l.key(name)).Err(); err != nil {
		return fmt.Errorf("release fill lock: %w", err)
	}
	return nil
}
