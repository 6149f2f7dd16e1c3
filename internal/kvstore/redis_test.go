package kvstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/genzmobo-auth/internal/kvstore"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*kvstore.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := kvstore.NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Ping(ctx))

	require.NoError(t, store.SetWithTTL(ctx, "blacklist:a", "1700000000.5", time.Minute))
	v, ok, err := store.Get(ctx, "blacklist:a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1700000000.5", v)
	require.Equal(t, time.Minute, mr.TTL("blacklist:a"))

	mr.FastForward(time.Minute)
	_, ok, err = store.Get(ctx, "blacklist:a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetWithTTL(ctx, "skip", "v", 0))
	require.False(t, mr.Exists("skip"))

	n, err := store.Incr(ctx, "otp_attempts:x", 15*time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	n, err = store.Incr(ctx, "otp_attempts:x", 15*time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.Equal(t, 15*time.Minute, mr.TTL("otp_attempts:x"))

	require.NoError(t, store.Delete(ctx, "otp_attempts:x"))
	require.False(t, mr.Exists("otp_attempts:x"))
}

func TestRedisStore_IncrRepairsMissingTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	// A counter left without an expiry, e.g. by a crash between INCR and EXPIRE.
	require.NoError(t, mr.Set("otp_attempts:y", "3"))
	require.Zero(t, mr.TTL("otp_attempts:y"))

	n, err := store.Incr(ctx, "otp_attempts:y", 15*time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
	require.Equal(t, 15*time.Minute, mr.TTL("otp_attempts:y"))

	mr.FastForward(5 * time.Minute)
	_, err = store.Incr(ctx, "otp_attempts:y", 15*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, mr.TTL("otp_attempts:y"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	mr.Close()

	_, _, err := store.Get(ctx, "k")
	require.Error(t, err)
	require.Error(t, store.Ping(ctx))
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := kvstore.NewRedisStore("not-a-url")
	require.Error(t, err)
}
