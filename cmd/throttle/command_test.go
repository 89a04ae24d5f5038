package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/throttlehq/throttle/core/throttle"
)

func TestParseRequest(t *testing.T) {
	t.Parallel()

	t.Run("minimal arguments", func(t *testing.T) {
		t.Parallel()

		req, err := parseRequest([]string{"user123", "15", "30", "60"})
		require.NoError(t, err)
		assert.Equal(t, request{bucket: "user123", maxBurst: 15, count: 30, period: 60, quantity: 1}, req)
	})

	t.Run("explicit quantity", func(t *testing.T) {
		t.Parallel()

		req, err := parseRequest([]string{"user123", "15", "30", "60", "5"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), req.quantity)
	})

	t.Run("too few arguments", func(t *testing.T) {
		t.Parallel()

		_, err := parseRequest([]string{"user123", "15", "30"})
		assert.ErrorIs(t, err, errUsage)
	})

	t.Run("too many arguments", func(t *testing.T) {
		t.Parallel()

		_, err := parseRequest([]string{"user123", "15", "30", "60", "5", "extra"})
		assert.ErrorIs(t, err, errUsage)
	})

	t.Run("parse error names the token", func(t *testing.T) {
		t.Parallel()

		_, err := parseRequest([]string{"user123", "15", "thirty", "60"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "couldn't parse as integer: thirty")
	})
}

func TestRequestQuota(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		quota, err := request{maxBurst: 15, count: 30, period: 60}.quota()
		require.NoError(t, err)
		assert.Equal(t, int64(15), quota.MaxBurst)
		assert.Equal(t, 2*time.Second, quota.MaxRate.Period)
	})

	t.Run("non-positive count", func(t *testing.T) {
		t.Parallel()

		_, err := request{maxBurst: 15, count: 0, period: 60}.quota()
		assert.ErrorIs(t, err, throttle.ErrInvalidQuota)
	})

	t.Run("non-positive period", func(t *testing.T) {
		t.Parallel()

		_, err := request{maxBurst: 15, count: 30, period: -1}.quota()
		assert.ErrorIs(t, err, throttle.ErrInvalidQuota)
	})
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("memory backend", func(t *testing.T) {
		t.Parallel()
		store, cleanup, err := openStore(ctx, appConfig{Store: "memory"})
		require.NoError(t, err)
		defer cleanup()

		require.NotNil(t, store)
		ok, err := store.SetIfNotExistsWithTTL(ctx, "open-store-key", 1, time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		store, cleanup, err := openStore(ctx, appConfig{Store: "etcd"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown store "etcd"`)
		assert.Nil(t, store)
		assert.Nil(t, cleanup)
	})
}

func TestRunReply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("admitted action", func(t *testing.T) {
		t.Parallel()

		store := throttle.NewMemoryStore()
		var out bytes.Buffer
		err := run(ctx, store, request{bucket: "b1", maxBurst: 4, count: 1, period: 1, quantity: 1}, &out)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "0", lines[0], "not throttled")
		assert.Equal(t, "5", lines[1], "limit")
		assert.Equal(t, "4", lines[2], "remaining")
		assert.Equal(t, "-1", lines[3], "no retry needed")
		assert.Equal(t, "1", lines[4], "reset after one emission interval")
	})

	t.Run("throttled action", func(t *testing.T) {
		t.Parallel()

		store := throttle.NewMemoryStore()
		req := request{bucket: "b2", maxBurst: 1, count: 1, period: 1, quantity: 1}
		for i := 0; i < 2; i++ {
			var out bytes.Buffer
			require.NoError(t, run(ctx, store, req, &out))
		}

		var out bytes.Buffer
		require.NoError(t, run(ctx, store, req, &out))

		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "1", lines[0], "throttled")
		assert.Equal(t, "2", lines[1], "limit")
		assert.Equal(t, "0", lines[2], "remaining")
		assert.Equal(t, "1", lines[3], "retry after rounds up to a full second")
	})

	t.Run("never admissible quantity", func(t *testing.T) {
		t.Parallel()

		store := throttle.NewMemoryStore()
		var out bytes.Buffer
		err := run(ctx, store, request{bucket: "b3", maxBurst: 1, count: 1, period: 1, quantity: 10}, &out)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "1", lines[0], "throttled")
		assert.Equal(t, "-1", lines[3], "retry can never succeed")
	})

	t.Run("invalid quantity", func(t *testing.T) {
		t.Parallel()

		store := throttle.NewMemoryStore()
		var out bytes.Buffer
		err := run(ctx, store, request{bucket: "b4", maxBurst: 1, count: 1, period: 1, quantity: 0}, &out)
		assert.ErrorIs(t, err, throttle.ErrInvalidQuantity)
		assert.Zero(t, out.Len())
	})
}
