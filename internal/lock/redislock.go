package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotConfigured is returned when the locker has no Redis client.
	ErrNotConfigured = errors.New("lock: redis client not configured")
	// ErrTimeout is returned when the lock could not be acquired within MaxWait.
	ErrTimeout = errors.New("lock: timed out waiting for lock")
)

var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Locker provides a Redis-backed mutual exclusion lock keyed by string.
type Locker struct {
	R            redis.Cmdable
	Prefix       string
	RetryBackoff time.Duration
	// MaxWait bounds acquisition; zero waits until ctx is done.
	MaxWait time.Duration
}

// Key builds a namespaced lock key, e.g. Key("billing", merchantID).
func (l Locker) Key(scope, id string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = "lock"
	}
	return fmt.Sprintf("%s:%s:%s", prefix, scope, id)
}

// WithLock runs fn while holding key. The lock is released when fn returns,
// and expires after ttl if the process dies while holding it.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return ErrNotConfigured
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	acquireCtx := ctx
	if l.MaxWait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, l.MaxWait)
		defer cancel()
	}

	token := uuid.NewString()
	for {
		ok, err := l.R.SetNX(acquireCtx, key, token, ttl).Result()
		if err != nil {
			if acquireCtx.Err() != nil && ctx.Err() == nil {
				return ErrTimeout
			}
			return fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(retry)
		select {
		case <-acquireCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrTimeout
		case <-timer.C:
		}
	}
	defer func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.R, []string{key}, token).Err()
	}()
	return fn(ctx)
}
