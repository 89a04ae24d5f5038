package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/throttlehq/throttle/core/throttle"
	"github.com/throttlehq/throttle/integration/database/pg"
	"github.com/throttlehq/throttle/store/pgstore"
)

// newTestStore connects to the PostgreSQL instance named by TEST_PG_CONN_URL,
// applying the store's migrations and skipping the test when none is
// configured.
func newTestStore(t *testing.T) *pgstore.Store {
	t.Helper()

	url := os.Getenv("TEST_PG_CONN_URL")
	if url == "" {
		t.Skip("TEST_PG_CONN_URL not set, skipping postgres store tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cfg := pg.Config{
		ConnectionString: url,
		RetryAttempts:    1,
	}

	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, pgstore.Migrations, "migrations", cfg))

	return pgstore.New(pool)
}

func TestStore_ConditionalWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	tat, now, err := store.GetWithTime(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, throttle.StateAbsent, tat)
	assert.False(t, now.IsZero())

	ok, err := store.SetIfNotExistsWithTTL(ctx, key, 100, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetIfNotExistsWithTTL(ctx, key, 200, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second set-if-absent must lose")

	ok, err = store.CompareAndSwapWithTTL(ctx, key, 100, 300, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CompareAndSwapWithTTL(ctx, key, 100, 400, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "swap against a stale value must lose")

	tat, _, err = store.GetWithTime(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(300), tat)

	require.NoError(t, store.Delete(ctx, key))

	tat, _, err = store.GetWithTime(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, throttle.StateAbsent, tat)
}

func TestStore_Expiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	ok, err := store.SetIfNotExistsWithTTL(ctx, key, 100, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	tat, _, err := store.GetWithTime(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, throttle.StateAbsent, tat, "expired row must read as absent")

	ok, err = store.SetIfNotExistsWithTTL(ctx, key, 200, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "set-if-absent must replace an expired row")

	ok, err = store.CompareAndSwapWithTTL(ctx, key, 100, 300, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "swap against overwritten state must lose")
}

func TestStore_DeleteExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := uuid.NewString()
	ok, err := store.SetIfNotExistsWithTTL(ctx, key, 100, time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	deleted, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))
}

func TestStore_RateLimitEndToEnd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	limiter, err := throttle.New(store, throttle.RateQuota{
		MaxBurst: 2,
		MaxRate:  throttle.PerSecond(1),
	})
	require.NoError(t, err)

	key := uuid.NewString()

	for want := int64(2); want >= 0; want-- {
		throttled, res, err := limiter.RateLimit(ctx, key, 1)
		require.NoError(t, err)
		assert.False(t, throttled)
		assert.Equal(t, want, res.Remaining)
	}

	throttled, res, err := limiter.RateLimit(ctx, key, 1)
	require.NoError(t, err)
	assert.True(t, throttled)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}
