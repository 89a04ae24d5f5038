package throttle

import "time"

// RetryNever is reported via Result.RetryAfter when waiting cannot help:
// either the request was admitted, or its quantity exceeds the quota's total
// capacity and no amount of elapsed time would make it admissible.
const RetryNever = time.Duration(-1)

// Result carries the externally visible rate limiting counters of a single
// evaluation. All values are computed from the bucket state as of the
// evaluation; they are a snapshot, not a live view.
type Result struct {
	// Limit is the total capacity of the bucket expressed as a count of
	// single-unit requests: MaxBurst + 1.
	Limit int64
	// Remaining is the number of further single-unit actions currently
	// admissible against the bucket.
	Remaining int64
	// RetryAfter is the minimum wait before a retry of the same quantity
	// could succeed. It is RetryNever unless the request was throttled,
	// and RetryNever on throttled requests that can never be admitted
	// under the quota.
	RetryAfter time.Duration
	// ResetAfter is the time until the bucket returns to a fully available
	// state.
	ResetAfter time.Duration
}
