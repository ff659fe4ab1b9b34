package cache

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotHeld is returned by Unlock when the key is not owned by this locker.
var ErrLockNotHeld = errors.New("cache: lock not held")

// Locker is a TTL-bounded mutual exclusion primitive keyed by name.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}
