package throttle

import (
	"fmt"
	"time"
)

// Rate describes the sustained rate of a quota: once the burst allowance is
// used up, one action is admitted per Period.
type Rate struct {
	// Period is the time that must elapse between successive admitted
	// single-unit actions at the sustained rate. Must be positive.
	Period time.Duration
}

// NewRate derives the per-action period from an allowance of count actions
// per period. For example, 10 actions every 2 seconds yields a 200ms period.
func NewRate(count int64, period time.Duration) (Rate, error) {
	if count <= 0 {
		return Rate{}, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidQuota, count)
	}
	if period <= 0 {
		return Rate{}, fmt.Errorf("%w: period must be positive, got %s", ErrInvalidQuota, period)
	}
	return Rate{Period: time.Duration(float64(period) / float64(count))}, nil
}

// PerSecond returns a rate of n actions per second.
func PerSecond(n int64) Rate { return per(n, time.Second) }

// PerMinute returns a rate of n actions per minute.
func PerMinute(n int64) Rate { return per(n, time.Minute) }

// PerHour returns a rate of n actions per hour.
func PerHour(n int64) Rate { return per(n, time.Hour) }

func per(n int64, period time.Duration) Rate {
	if n <= 0 {
		return Rate{}
	}
	return Rate{Period: time.Duration(int64(period) / n)}
}

// RateQuota is the rate limiting policy for a class of buckets: a sustained
// rate plus a burst capacity of actions that may be admitted instantaneously
// above it.
type RateQuota struct {
	// MaxBurst is the number of actions admitted above the sustained rate.
	// A quota with MaxBurst = b admits b+1 back-to-back actions from a fully
	// available bucket. Must not be negative.
	MaxBurst int64
	// MaxRate is the sustained rate. Its period must be positive.
	MaxRate Rate
}

func (q RateQuota) validate() error {
	if q.MaxBurst < 0 {
		return fmt.Errorf("%w: max burst must not be negative, got %d", ErrInvalidQuota, q.MaxBurst)
	}
	if q.MaxRate.Period <= 0 {
		return fmt.Errorf("%w: rate period must be positive, got %s", ErrInvalidQuota, q.MaxRate.Period)
	}
	return nil
}

// emissionInterval is the per-action cost in time at the sustained rate.
func (q RateQuota) emissionInterval() time.Duration {
	return q.MaxRate.Period
}

// delayVariationTolerance is the maximum credit a bucket can accumulate:
// how far into the future the theoretical arrival time may sit before
// further work is throttled.
func (q RateQuota) delayVariationTolerance() time.Duration {
	return time.Duration(q.MaxBurst) * q.MaxRate.Period
}
