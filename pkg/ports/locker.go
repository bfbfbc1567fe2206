package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a lock.
type UnlockFunc func(ctx context.Context) error

// Locker guards a sweep against being driven by two processes at once.
// It provides mutual exclusion only; it does not schedule work.
type Locker interface {
	// Lock attempts to acquire the lock for the given key (the sweep name).
	// It blocks until the lock is acquired or the context is canceled.
	// The TTL bounds how long a crashed holder can keep the lock; a live
	// holder keeps it until UnlockFunc is called, however long that takes.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
