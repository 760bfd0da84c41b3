package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLock_ExclusiveUntilReleased(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	a := NewLock(client, "fill:q1", time.Minute)
	b := NewLock(client, "fill:q1", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Releasing a lock we never owned must not free the holder's key
	require.NoError(t, b.Release(ctx))
	ok, _ = b.Acquire(ctx)
	assert.False(t, ok)

	require.NoError(t, a.Release(ctx))
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_ExpiresWithTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "fill:q2", time.Second)
	ok, _ := a.Acquire(ctx)
	require.True(t, ok)
	assert.True(t, mr.Exists(KeyPrefix+"fill:q2"))

	require.NoError(t, a.Extend(ctx, 10*time.Second))
	assert.Equal(t, 10*time.Second, mr.TTL(KeyPrefix+"fill:q2"))

	mr.FastForward(11 * time.Second)
	ok, err := NewRedisLock(client, "fill:q2", time.Second).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	a := NewLock(nil, "local:q", time.Minute)
	b := NewLock(nil, "local:q", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = b.Acquire(ctx)
	assert.False(t, ok)
	require.NoError(t, b.Release(ctx))

	require.NoError(t, a.Release(ctx))
	ok, _ = b.Acquire(ctx)
	assert.True(t, ok)
	require.NoError(t, b.Release(ctx))
}

func TestLocalLock_Expired(t *testing.T) {
	ctx := context.Background()
	a := NewLocalLock("local:expired", time.Nanosecond)
	ok, _ := a.Acquire(ctx)
	require.True(t, ok)

	time.Sleep(time.Millisecond)
	ok, _ = NewLocalLock("local:expired", time.Minute).Acquire(ctx)
	assert.True(t, ok)
	localMu.Lock()
	delete(localHeld, "local:expired")
	localMu.Unlock()
}

func TestRedisLock_ExtendAfterExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	l := NewRedisLock(client, "fill:q3", time.Second)
	ok, _ := l.Acquire(ctx)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	assert.ErrorIs(t, l.Extend(ctx, time.Minute), ErrNotOwner)
}
