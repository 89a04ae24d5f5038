// Package redisstore implements the throttle.Store contract on Redis,
// making rate limits enforceable across any number of processes sharing a
// Redis instance or cluster.
//
// Each bucket is one Redis string holding the theoretical arrival time in
// unix nanoseconds, written with a millisecond expiry. Set-if-absent maps to
// SET NX PX; compare-and-swap runs as a server-side Lua script so the
// read-compare-write is atomic, and the backend's own clock (TIME) is
// reported to the engine alongside every read.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/throttlehq/throttle/core/throttle"
)

// defaultKeyPrefix namespaces bucket keys so the store can share a Redis
// database with other data.
const defaultKeyPrefix = "throttle:"

// casScript atomically replaces a key's value only when the current value
// matches, refreshing the expiry. Returns 1 on success, 0 when the value
// changed or expired since it was read.
var casScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == false then
	return 0
end
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// Store implements throttle.Store using Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides the namespace prepended to bucket keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis-backed store. The client is borrowed, not owned;
// closing it is the caller's responsibility.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultKeyPrefix,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetWithTime returns the stored theoretical arrival time for the key along
// with the Redis server's clock, so decisions are made against the backend's
// time rather than the caller's.
func (s *Store) GetWithTime(ctx context.Context, key string) (int64, time.Time, error) {
	pipe := s.client.Pipeline()
	timeCmd := pipe.Time(ctx)
	getCmd := pipe.Get(ctx, s.prefix+key)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, time.Time{}, fmt.Errorf("redisstore: read %q: %w", key, err)
	}

	now := timeCmd.Val()

	if errors.Is(getCmd.Err(), redis.Nil) {
		return throttle.StateAbsent, now, nil
	}
	if err := getCmd.Err(); err != nil {
		return 0, time.Time{}, fmt.Errorf("redisstore: read %q: %w", key, err)
	}

	tat, err := strconv.ParseInt(getCmd.Val(), 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redisstore: corrupt state for %q: %w", key, err)
	}
	return tat, now, nil
}

// SetIfNotExistsWithTTL writes the value only when the key does not exist,
// using SET NX with a millisecond expiry.
func (s *Store) SetIfNotExistsWithTTL(ctx context.Context, key string, tat int64, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, strconv.FormatInt(tat, 10), ceilMillis(ttl)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: set %q: %w", key, err)
	}
	return ok, nil
}

// CompareAndSwapWithTTL replaces the stored value only when it still equals
// old. The comparison and write run as one Lua script, so concurrent
// evaluations cannot interleave between them.
func (s *Store) CompareAndSwapWithTTL(ctx context.Context, key string, old, new int64, ttl time.Duration) (bool, error) {
	swapped, err := casScript.Run(ctx, s.client, []string{s.prefix + key},
		strconv.FormatInt(old, 10),
		strconv.FormatInt(new, 10),
		ceilMillis(ttl).Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redisstore: swap %q: %w", key, err)
	}
	return swapped == 1, nil
}

// Delete removes the key's state.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redisstore: delete %q: %w", key, err)
	}
	return nil
}

// ceilMillis rounds a TTL up to the next whole millisecond, the finest expiry
// Redis supports; rounding down could expire state before its credit drains.
func ceilMillis(ttl time.Duration) time.Duration {
	ms := (ttl + time.Millisecond - 1) / time.Millisecond * time.Millisecond
	if ms < time.Millisecond {
		ms = time.Millisecond
	}
	return ms
}
