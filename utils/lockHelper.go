package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"github.com/bsm/redislock"
)

var ErrLockNotObtained = errors.New("could not obtain lock")

// RedisLocker hands out short-lived redis locks keyed by name.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker returns nil when redis is not connected.
func NewRedisLocker(ttl time.Duration, wait time.Duration) *RedisLocker {
	client := config.GetRedisLock()
	if client == nil {
		return nil
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

// Lock blocks up to the configured wait for the lock and returns its release func.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	logger := config.GetLogger()
	lockKey := fmt.Sprintf("lock:%s", key)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(l.wait/(50*time.Millisecond))),
	}
	lock, err := l.client.Obtain(ctx, lockKey, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, "lockHelper.go", "Lock", "Could not obtain lock", lockKey, err)
		return nil, ErrLockNotObtained
	} else if err != nil {
		config.LogError(logger, "lockHelper.go", "Lock", "Error obtaining lock", lockKey, err)
		return nil, err
	}
	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			config.LogError(logger, "lockHelper.go", "Lock", "Release lock", lockKey, releaseErr)
		}
	}, nil
}
