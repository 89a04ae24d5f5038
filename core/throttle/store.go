package throttle

import (
	"context"
	"time"
)

// StateAbsent is the value reported by Store.GetWithTime when no state exists
// for a key. An absent bucket is equivalent to one whose theoretical arrival
// time equals the current time.
const StateAbsent int64 = -1

// Store is the persistence contract the rate limiter evaluates against.
// A bucket's entire state is a single int64 theoretical arrival time in unix
// nanoseconds, persisted with an expiry. Implementations must be safe for
// concurrent use, and the conditional writes must be atomic with respect to
// the value observed by GetWithTime: a write that lost a race must report
// ok=false rather than overwrite.
type Store interface {
	// GetWithTime returns the stored theoretical arrival time for the key,
	// or StateAbsent when none exists, together with the backend's own
	// notion of the current time. Decisions are persisted against the
	// backend clock, never a caller-supplied one.
	GetWithTime(ctx context.Context, key string) (tat int64, now time.Time, err error)

	// SetIfNotExistsWithTTL writes the value only when no live state exists
	// for the key, with the given expiry. Returns ok=false when state
	// appeared concurrently.
	SetIfNotExistsWithTTL(ctx context.Context, key string, tat int64, ttl time.Duration) (bool, error)

	// CompareAndSwapWithTTL replaces the stored value with new only when the
	// current value equals old, refreshing the expiry. Returns ok=false when
	// the stored value changed or expired since it was read.
	CompareAndSwapWithTTL(ctx context.Context, key string, old, new int64, ttl time.Duration) (bool, error)

	// Delete removes the key's state, returning the bucket to a fully
	// available condition. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
