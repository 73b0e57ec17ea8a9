package ports

import (
	"context"
	"time"
)

// LockOptions tunes a lock acquisition.
type LockOptions struct {
	// Timeout bounds the wait. Zero means a single attempt.
	Timeout time.Duration
	// StaleAfter is how old a dead holder's lock must be before it is reported as stale.
	StaleAfter time.Duration
}

// Locker provides mutual exclusion between processes sharing a cache directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=locker.go -destination=mocks/mock_locker.go -package=mocks
type Locker interface {
	// Acquire blocks until the lock for dir is held, ctx is done or the timeout elapses.
	Acquire(ctx context.Context, dir string, opts LockOptions) (Lock, error)
}

// Lock is a held lock.
type Lock interface {
	// Release gives up the lock. It is safe to call more than once.
	Release() error
}
