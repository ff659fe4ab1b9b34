package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryLock implements Locker for a single process.
type MemoryLock struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryLock creates an in-process locker.
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{expires: map[string]time.Time{}, now: time.Now}
}

func (l *MemoryLock) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, held := l.expires[key]; held && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}

	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	l.expires[key] = exp
	return true, nil
}

func (l *MemoryLock) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.expires[key]; !held {
		return ErrLockNotHeld
	}
	delete(l.expires, key)
	return nil
}
