package lock

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarcrumb/storefront-api/logger"
)

func newLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l, err := NewRedisLocker("redis://"+mr.Addr()+"/0", 30*time.Second, logger.NewWithWriter(io.Discard, "error", "text"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()

	ok, release, err := l.Lock(ctx, "checkout:cart:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("checkout:cart:1"))

	again, _, err := l.Lock(ctx, "checkout:cart:1")
	require.NoError(t, err)
	assert.False(t, again)

	other, releaseOther, err := l.Lock(ctx, "checkout:cart:2")
	require.NoError(t, err)
	assert.True(t, other)
	releaseOther()

	release()
	assert.False(t, mr.Exists("checkout:cart:1"))

	ok, release, err = l.Lock(ctx, "checkout:cart:1")
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestRedisLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()

	ok, staleRelease, err := l.Lock(ctx, "checkout:cart:9")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(31 * time.Second)

	ok, release, err := l.Lock(ctx, "checkout:cart:9")
	require.NoError(t, err)
	require.True(t, ok)

	staleRelease()
	assert.True(t, mr.Exists("checkout:cart:9"), "stale holder must not delete the new lock")
	release()
	assert.False(t, mr.Exists("checkout:cart:9"))
}

func TestNewRedisLocker_BadURL(t *testing.T) {
	_, err := NewRedisLocker("not-a-url", time.Second, logger.NewWithWriter(io.Discard, "error", "text"))
	assert.Error(t, err)
}
