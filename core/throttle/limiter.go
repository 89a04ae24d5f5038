package throttle

import (
	"context"
	"fmt"
	"time"
)

// defaultMaxCASAttempts bounds how many times an evaluation is re-run after
// its conditional write lost to a concurrent evaluation of the same bucket.
const defaultMaxCASAttempts = 10

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// WithMaxCASAttempts sets how many read-decide-write attempts are made per
// call before giving up with ErrCASConflict. Values below 1 are ignored.
func WithMaxCASAttempts(n int) Option {
	return func(rl *RateLimiter) {
		if n > 0 {
			rl.maxCASAttempts = n
		}
	}
}

// RateLimiter evaluates the Generic Cell Rate Algorithm against a Store.
// It holds no bucket state of its own: all state lives in the store, so any
// number of RateLimiter instances in any number of processes can evaluate
// the same buckets concurrently, as long as they share a backend.
type RateLimiter struct {
	store Store
	quota RateQuota

	// Derived from the quota at construction time.
	limit    int64
	emission time.Duration
	dvt      time.Duration

	maxCASAttempts int
}

// New creates a rate limiter enforcing the given quota against the store.
// Returns ErrInvalidQuota when the quota parameters are out of range.
func New(store Store, quota RateQuota, opts ...Option) (*RateLimiter, error) {
	if store == nil {
		return nil, fmt.Errorf("throttle: store is required")
	}
	if err := quota.validate(); err != nil {
		return nil, err
	}

	rl := &RateLimiter{
		store:          store,
		quota:          quota,
		limit:          quota.MaxBurst + 1,
		emission:       quota.emissionInterval(),
		dvt:            quota.delayVariationTolerance(),
		maxCASAttempts: defaultMaxCASAttempts,
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl, nil
}

// RateLimit checks whether quantity actions may be admitted against the
// bucket and, if so, records them. It reports throttled=true when the
// request was denied; the Result is populated in either case.
//
// A throttled call never modifies bucket state, so rejected requests do not
// perturb quota accounting. When the conditional write loses to a concurrent
// evaluation, the whole read-decide-write sequence is retried with a fresh
// read, bounded by the CAS attempt budget.
func (rl *RateLimiter) RateLimit(ctx context.Context, bucket string, quantity int64) (bool, *Result, error) {
	if quantity <= 0 {
		return false, nil, fmt.Errorf("%w, got %d", ErrInvalidQuantity, quantity)
	}

	increment := time.Duration(quantity) * rl.emission

	for attempt := 0; attempt < rl.maxCASAttempts; attempt++ {
		throttled, res, done, err := rl.attempt(ctx, bucket, increment)
		if err != nil {
			return false, nil, err
		}
		if done {
			return throttled, res, nil
		}
	}

	return false, nil, fmt.Errorf("%w: bucket %q", ErrCASConflict, bucket)
}

// Status reports the bucket's current counters without consuming anything
// and without modifying state.
func (rl *RateLimiter) Status(ctx context.Context, bucket string) (*Result, error) {
	stored, now, err := rl.store.GetWithTime(ctx, bucket)
	if err != nil {
		return nil, err
	}
	return rl.result(rl.arrivalTime(stored, now), now), nil
}

// Reset discards the bucket's state, returning it to a fully available
// condition. Intended for administrative overrides.
func (rl *RateLimiter) Reset(ctx context.Context, bucket string) error {
	return rl.store.Delete(ctx, bucket)
}

// attempt runs one read-decide-write GCRA evaluation. done=false means the
// conditional write lost a race and the evaluation must be redone from a
// fresh read.
func (rl *RateLimiter) attempt(ctx context.Context, bucket string, increment time.Duration) (throttled bool, res *Result, done bool, err error) {
	stored, now, err := rl.store.GetWithTime(ctx, bucket)
	if err != nil {
		return false, nil, false, err
	}

	tat := rl.arrivalTime(stored, now)
	newTAT := tat.Add(increment)

	// The instant at which this increment becomes admissible. One extra
	// emission interval is subtracted because the requested unit occupies
	// its own slot.
	allowAt := newTAT.Add(-rl.dvt).Add(-rl.emission)
	if allowAt.After(now) {
		res = rl.result(tat, now)
		if increment <= rl.dvt+rl.emission {
			res.RetryAfter = allowAt.Sub(now)
		}
		return true, res, true, nil
	}

	// Idle buckets self-expire exactly when their accumulated credit would
	// have drained at the sustained rate.
	ttl := rl.dvt + increment

	var swapped bool
	if stored == StateAbsent {
		swapped, err = rl.store.SetIfNotExistsWithTTL(ctx, bucket, newTAT.UnixNano(), ttl)
	} else {
		swapped, err = rl.store.CompareAndSwapWithTTL(ctx, bucket, stored, newTAT.UnixNano(), ttl)
	}
	if err != nil {
		return false, nil, false, err
	}
	if !swapped {
		return false, nil, false, nil
	}

	return false, rl.result(newTAT, now), true, nil
}

// arrivalTime interprets the stored scalar: absence means the bucket is fully
// available, and a theoretical arrival time in the past has the same meaning.
func (rl *RateLimiter) arrivalTime(stored int64, now time.Time) time.Time {
	if stored == StateAbsent {
		return now
	}
	if tat := time.Unix(0, stored); tat.After(now) {
		return tat
	}
	return now
}

// result computes the externally visible counters from a bucket's
// theoretical arrival time.
func (rl *RateLimiter) result(tat, now time.Time) *Result {
	ttl := tat.Sub(now)
	if ttl < 0 {
		ttl = 0
	}

	remaining := int64((rl.dvt + rl.emission - ttl) / rl.emission)
	// Out-of-range values indicate stale state read mid-expiry; clamp rather
	// than surface impossible counters.
	if remaining < 0 {
		remaining = 0
	}
	if remaining > rl.limit {
		remaining = rl.limit
	}

	return &Result{
		Limit:      rl.limit,
		Remaining:  remaining,
		RetryAfter: RetryNever,
		ResetAfter: ttl,
	}
}
