package redisreg

import (
	"context"
	"errors"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	gferrors "github.com/vnykmshr/goshape/pkg/common/errors"
)

// Deletes the lock key only while it still holds our token, so an expired
// lease taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var errLeaseBusy = errors.New("lease held by another owner")

// lease is a SET NX PX lock on one item. Each Lock call takes a fresh uuid
// token; Unlock deletes the key only if that token still owns it.
type lease struct {
	config Config
	key    string

	mu    sync.Mutex
	token string
}

func newLease(config Config, key string) *lease {
	return &lease{config: config, key: key}
}

func (l *lease) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = l.config.LockRetry
	eb.MaxInterval = l.config.LockWait
	eb.MaxElapsedTime = l.config.LockWait
	eb.Reset()
	return backoff.WithContext(eb, ctx)
}

// Lock implements registry.Locker.
func (l *lease) Lock(ctx context.Context) error {
	token := uuid.NewString()

	op := func() error {
		opCtx, cancel := context.WithTimeout(ctx, l.config.Timeout)
		defer cancel()

		ok, err := l.config.Client.SetNX(opCtx, l.key, token, l.config.LockTTL).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errLeaseBusy
		}
		return nil
	}

	if err := backoff.Retry(op, l.newBackOff(ctx)); err != nil {
		cause := err
		if errors.Is(err, errLeaseBusy) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			cause = gferrors.ErrLockNotAcquired
		}
		return gferrors.NewOperationError("redisreg", "Lock", cause).WithContext("key=" + l.key)
	}

	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
	return nil
}

// Unlock implements registry.Locker.
func (l *lease) Unlock(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()

	if token == "" {
		return gferrors.NewOperationError("redisreg", "Unlock", gferrors.ErrLockNotHeld).WithContext("key=" + l.key)
	}

	ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.config.Client, []string{l.key}, token).Int64()
	if err != nil {
		return gferrors.NewOperationError("redisreg", "Unlock", err).WithContext("key=" + l.key)
	}
	if n == 0 {
		return gferrors.NewOperationError("redisreg", "Unlock", gferrors.ErrLockNotHeld).
			WithContext("key=" + l.key + " lease expired")
	}
	return nil
}
