// Package throttle provides GCRA rate limiting with pluggable storage backends.
//
// This package implements the Generic Cell Rate Algorithm (GCRA) with
// configurable burst capacity and sustained rates, supporting both single and
// bulk action consumption with detailed status reporting. It's designed for
// high-performance rate limiting in web applications, APIs, and microservices,
// including deployments where many processes enforce the same limits against a
// shared backend.
//
// # The Algorithm
//
// GCRA models rate limiting as spacing between admitted actions: at a
// sustained rate of one action per emission interval, a bucket's entire state
// is a single timestamp, the theoretical arrival time (TAT): the instant at
// which the bucket would be fully drained if all admitted work so far leaked
// out at the sustained rate. The algorithm works by:
//  1. Reading the bucket's TAT (absence means fully available)
//  2. Advancing it by one emission interval per requested action
//  3. Admitting the request when the advanced TAT stays within the burst
//     tolerance of the current time
//  4. Persisting the advanced TAT only for admitted requests
//
// Compared to windowed counters, GCRA needs no window bookkeeping, never
// suffers boundary bursts, and naturally reports precise retry timing.
//
// # Core Types
//
// Rate and RateQuota describe the policy:
//
//	// 20 requests sustained per second, bursts of up to 5 above that
//	quota := throttle.RateQuota{
//		MaxBurst: 5,
//		MaxRate:  throttle.PerSecond(20),
//	}
//
// RateLimiter evaluates the policy against a Store:
//
//	store := throttle.NewMemoryStore()
//	limiter, err := throttle.New(store, quota)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	throttled, result, err := limiter.RateLimit(ctx, "user:123", 1)
//	if err != nil {
//		log.Printf("rate limiter error: %v", err)
//		return
//	}
//	if throttled {
//		log.Printf("rate limited, retry after: %v", result.RetryAfter)
//		return
//	}
//	log.Printf("admitted, remaining: %d", result.Remaining)
//
// Bulk consumption charges several actions at once:
//
//	throttled, result, err := limiter.RateLimit(ctx, "batch:upload", 5)
//
// A request whose quantity exceeds MaxBurst+1 can never be admitted; it is
// throttled without touching state and reports RetryAfter = RetryNever so
// callers can distinguish "retry later" from "never with this quota".
//
// # Storage Backends
//
// The Store interface is the seam that makes the algorithm portable. A
// backend persists one scalar per bucket and must offer an atomic conditional
// write; everything else, including idle-bucket expiry, follows from that.
//
// Memory store (single process):
//
//	store := throttle.NewMemoryStore()
//
// Redis store (distributed, see store/redisstore):
//
//	store := redisstore.New(redisClient)
//
// Postgres and MongoDB stores live in store/pgstore and store/mongostore.
// Because admitted requests are recorded with compare-and-swap against the
// value read, concurrent evaluations of the same bucket never double-admit:
// the loser of a race re-reads and re-decides, bounded by a retry budget.
//
// # Expiry
//
// Every write carries a TTL equal to the bucket's maximum accumulated credit
// plus the cost of the request being recorded. An idle bucket therefore
// expires exactly when its state stops mattering, bounding storage to active
// buckets without any sweeper in the engine.
//
// # Error Handling
//
// The package defines specific error types:
//   - ErrInvalidQuota: invalid rate or burst parameters
//   - ErrInvalidQuantity: non-positive quantity
//   - ErrCASConflict: contention exceeded the retry budget (transient)
//   - ErrStoreUnavailable: backend unreachable or timed out
//
// Storage backend errors are propagated for handling by the application; none
// are swallowed or retried indefinitely.
package throttle
