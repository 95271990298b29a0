package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when a lock could not be acquired before the wait expired.
var ErrLockHeld = errors.New("lock is held by another owner")

// ReleaseFunc releases a lock obtained from a Locker.
type ReleaseFunc func(ctx context.Context) error

// Locker hands out short-lived mutual exclusion keyed by name.
type Locker interface {
	// Acquire blocks up to wait for the named lock. The lock expires on its own after ttl.
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (ReleaseFunc, error)
}

// Deletes the key only if it still carries our token, so an expired lock
// taken over by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const lockRetryInterval = 25 * time.Millisecond

type redisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker creates a Locker backed by SET NX PX on the given client.
func NewRedisLocker(client redis.UniversalClient, prefix string) Locker {
	return &redisLocker{client: client, prefix: prefix}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (ReleaseFunc, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
		}
		if ok {
			return func(releaseCtx context.Context) error {
				if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
					return fmt.Errorf("failed to release lock %s: %w", fullKey, err)
				}
				return nil
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockHeld
		}

		timer := time.NewTimer(lockRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// PropertyFinalizeKey is the lock key serializing finalize attempts on one property.
func PropertyFinalizeKey(propertyID string) string {
	return "finalize:property:" + propertyID
}
