package distlock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// NewLock creates a lock using the best available backend.
// If redisClient is non-nil, uses Redis so replicas coordinate cache fills.
// Otherwise falls back to a process-local lock.
func NewLock(redisClient *redis.Client, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewLocalLock(key, ttl)
}

// LocalLock serializes holders of the same key inside one process.
// Expired entries are treated as free, mirroring the Redis TTL.
type LocalLock struct {
	key  string
	ttl  time.Duration
	held bool
}

var (
	localMu   sync.Mutex
	localHeld = map[string]time.Time{}
)

// NewLocalLock creates a process-local lock for key.
func NewLocalLock(key string, ttl time.Duration) *LocalLock {
	return &LocalLock{key: key, ttl: ttl}
}

// Acquire never blocks; it reports false while another holder owns the key.
func (l *LocalLock) Acquire(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	localMu.Lock()
	defer localMu.Unlock()

	if exp, ok := localHeld[l.key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	localHeld[l.key] = time.Now().Add(l.ttl)
	l.held = true
	return true, nil
}

// Release frees the key if this instance acquired it.
func (l *LocalLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}
	localMu.Lock()
	delete(localHeld, l.key)
	localMu.Unlock()
	l.held = false
	return nil
}
