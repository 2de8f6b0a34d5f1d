package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestLockerAcquireAndRelease(t *testing.T) {
	client := newTestClient(t)
	locker := NewLocker(client, zap.NewNop())
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, "lock:rate-card:tier_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// A second holder is refused while the lock is held.
	_, ok, err = locker.Acquire(ctx, "lock:rate-card:tier_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()

	_, ok, err = locker.Acquire(ctx, "lock:rate-card:tier_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockerNilClientAlwaysSucceeds(t *testing.T) {
	locker := NewLocker(nil, zap.NewNop())

	release, ok, err := locker.Acquire(context.Background(), "lock:any", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestTokenBucketThrottles(t *testing.T) {
	client := newTestClient(t)
	bucket := NewTokenBucket(client, zap.NewNop(), 3, 0.001)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := bucket.Allow(ctx, "client-42")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i)
	}

	ok, err := bucket.Allow(ctx, "client-42")
	require.NoError(t, err)
	assert.False(t, ok)

	// Independent keys get their own bucket.
	ok, err = bucket.Allow(ctx, "client-99")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenBucketNilClientAllowsAll(t *testing.T) {
	bucket := NewTokenBucket(nil, zap.NewNop(), 1, 1)
	ok, err := bucket.Allow(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, ok)
}
