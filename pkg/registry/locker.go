package registry

import (
	"context"

	gferrors "github.com/vnykmshr/goshape/pkg/common/errors"
)

// Locker is an exclusive lock guarding the read-decide-write span of one
// record, or of every record when used as a fallback lock.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done.
	Lock(ctx context.Context) error

	// Unlock releases a held lock.
	Unlock(ctx context.Context) error
}

// MutexLocker is an in-process Locker whose Lock honors context cancellation.
type MutexLocker struct {
	sem chan struct{}
}

// NewMutexLocker returns an unlocked MutexLocker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{sem: make(chan struct{}, 1)}
}

// Lock implements Locker.
func (l *MutexLocker) Lock(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return gferrors.NewOperationError("registry", "Lock", gferrors.ErrLockNotAcquired).
			WithContext(ctx.Err().Error())
	}
}

// Unlock implements Locker.
func (l *MutexLocker) Unlock(context.Context) error {
	select {
	case <-l.sem:
		return nil
	default:
		return gferrors.NewOperationError("registry", "Unlock", gferrors.ErrLockNotHeld)
	}
}
