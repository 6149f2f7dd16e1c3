package revocation_test

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/jrsteele09/genzmobo-auth/internal/kvstore"
	"github.com/jrsteele09/genzmobo-auth/token/revocation"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newStore(t *testing.T) (*revocation.Store, *kvstore.MemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	kv := kvstore.NewMemoryStore(kvstore.WithMemoryClock(clock.Now))
	return revocation.New(kv, revocation.WithClock(clock.Now)), kv, clock
}

// brokenKV fails every call, optionally blocking until the context ends.
type brokenKV struct {
	kvstore.Store
	block bool
	calls atomic.Int32
}

func (b *brokenKV) fail(ctx context.Context) error {
	b.calls.Add(1)
	if b.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return errors.New("connection refused")
}

func (b *brokenKV) Get(ctx context.Context, _ string) (string, bool, error) {
	return "", false, b.fail(ctx)
}

func (b *brokenKV) SetWithTTL(ctx context.Context, _, _ string, _ time.Duration) error {
	return b.fail(ctx)
}

func TestRevokeExpiresWithToken(t *testing.T) {
	ctx := context.Background()
	store, _, clock := newStore(t)

	require.NoError(t, store.Revoke(ctx, "jti-1", 900*time.Second))

	clock.Advance(899 * time.Second)
	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	clock.Advance(2 * time.Second)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newStore(t)

	require.NoError(t, store.Revoke(ctx, "jti-0", 0))
	require.NoError(t, store.Revoke(ctx, "jti-neg", -time.Minute))

	for _, id := range []string{"jti-0", "jti-neg"} {
		revoked, err := store.IsRevoked(ctx, id)
		require.NoError(t, err)
		require.False(t, revoked)
	}
}

func TestStaleEntryIsPruned(t *testing.T) {
	ctx := context.Background()
	store, kv, clock := newStore(t)

	// Entry outlives its recorded expiry, as happens with clock skew.
	past := strconv.FormatInt(clock.Now().Add(-time.Second).Unix(), 10)
	require.NoError(t, kv.SetWithTTL(ctx, "blacklist:jti-4", past, time.Hour))

	revoked, err := store.IsRevoked(ctx, "jti-4")
	require.NoError(t, err)
	require.False(t, revoked)

	_, found, err := kv.Get(ctx, "blacklist:jti-4")
	require.NoError(t, err)
	require.False(t, found)
}

func TestUnreadableEntryCountsAsRevoked(t *testing.T) {
	ctx := context.Background()
	store, kv, _ := newStore(t)

	require.NoError(t, kv.SetWithTTL(ctx, "blacklist:jti-5", "garbage", time.Hour))
	revoked, err := store.IsRevoked(ctx, "jti-5")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("errors are tagged", func(t *testing.T) {
		store := revocation.New(&brokenKV{})
		_, err := store.IsRevoked(ctx, "jti")
		require.ErrorIs(t, err, apperrors.RevocationStoreUnavailable)
		err = store.Revoke(ctx, "jti", time.Minute)
		require.ErrorIs(t, err, apperrors.RevocationStoreUnavailable)
	})

	t.Run("calls are bounded by the timeout", func(t *testing.T) {
		store := revocation.New(&brokenKV{block: true}, revocation.WithTimeout(20*time.Millisecond))
		start := time.Now()
		_, err := store.IsRevoked(ctx, "jti")
		require.ErrorIs(t, err, apperrors.RevocationStoreUnavailable)
		require.Less(t, time.Since(start), time.Second)
	})

	t.Run("breaker opens after repeated failures", func(t *testing.T) {
		kv := &brokenKV{}
		store := revocation.New(kv)
		for i := 0; i < 10; i++ {
			_, err := store.IsRevoked(ctx, "jti")
			require.ErrorIs(t, err, apperrors.RevocationStoreUnavailable)
		}
		require.EqualValues(t, 5, kv.calls.Load())
	})
}
