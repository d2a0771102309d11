package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockConfig tunes the distributed lock.
type LockConfig struct {
	// TTL bounds how long a crashed holder can block others.
	TTL time.Duration

	// Timeout bounds how long Lock waits before giving up.
	Timeout time.Duration

	// RetryInterval is the pause between acquisition attempts.
	RetryInterval time.Duration
}

// DefaultLockConfig returns sane lock defaults.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		TTL:           10 * time.Second,
		Timeout:       5 * time.Second,
		RetryInterval: 25 * time.Millisecond,
	}
}

// Locker serializes work per user across processes with SET NX PX.
type Locker struct {
	client *Client
	config LockConfig
	logger *logger.Logger
}

// NewLocker creates a Locker over client. A nil log discards release failures.
func NewLocker(client *Client, cfg LockConfig, log *logger.Logger) *Locker {
	def := DefaultLockConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Locker{client: client, config: cfg, logger: log.Named("redis_lock")}
}

// Lock blocks until the user's lock is held, ctx is done or the timeout passes.
// The returned func releases the lock; it is safe to call more than once.
func (l *Locker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := UserLockKey(userID)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	ticker := time.NewTicker(l.config.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.client.SetNX(ctx, key, token, l.config.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, shared.WrapError("lock", "Lock", shared.ErrServiceUnavailable, "redis lock failed", err)
		}
		if ok {
			return l.releaser(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, shared.WrapError("lock", "Lock", shared.ErrLockNotAcquired,
				fmt.Sprintf("user %d is busy", userID), ctx.Err())
		case <-ticker.C:
		}
	}
}

// releaser deletes the key at most once. A failed delete leaves the key to
// expire after TTL.
func (l *Locker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), l.config.Timeout)
			defer cancel()

			if err := releaseScript.Run(ctx, l.client.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("lock release failed",
					logger.String("key", key),
					logger.Duration("ttl", l.config.TTL),
					logger.Err(err),
				)
			}
		})
	}
}
