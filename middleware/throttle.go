// Package middleware provides net/http middleware enforcing GCRA rate limits.
package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/throttlehq/throttle/core/throttle"
)

// ThrottleConfig configures the rate limiting middleware.
type ThrottleConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool
	// Limiter is the rate limiting implementation to use
	Limiter *throttle.RateLimiter
	// KeyExtractor defines how to extract the bucket key from requests (default: client IP)
	KeyExtractor func(r *http.Request) string
	// Quantity is the number of actions one request consumes (default: 1)
	Quantity int64
	// ErrorHandler defines how to handle throttled requests (default: 429 Too Many Requests)
	ErrorHandler func(w http.ResponseWriter, r *http.Request, res *throttle.Result)
	// SetHeaders determines whether to include rate limit information in response headers
	SetHeaders bool
}

// Throttle creates a rate limiting middleware with the provided configuration.
// It enforces request rate limits per bucket key (typically client IP) and
// returns 429 Too Many Requests with retry guidance when limits are exceeded.
// Panics if no limiter is provided.
//
// Basic usage:
//
//	limiter, err := throttle.New(store, throttle.RateQuota{
//		MaxBurst: 20,
//		MaxRate:  throttle.PerSecond(10),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	handler := middleware.Throttle(middleware.ThrottleConfig{
//		Limiter:    limiter,
//		SetHeaders: true,
//	})(mux)
//
// The middleware automatically:
//   - Extracts the bucket key (default: client IP)
//   - Evaluates the request against the quota
//   - Records admitted requests in the shared store
//   - Returns 429 Too Many Requests with a Retry-After header when throttled
func Throttle(cfg ThrottleConfig) func(http.Handler) http.Handler {
	if cfg.Limiter == nil {
		panic("throttle middleware: limiter is required")
	}

	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = clientHost
	}

	if cfg.Quantity <= 0 {
		cfg.Quantity = 1
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(w http.ResponseWriter, r *http.Request, res *throttle.Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := cfg.KeyExtractor(r)
			throttled, res, err := cfg.Limiter.RateLimit(r.Context(), key, cfg.Quantity)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if cfg.SetHeaders {
				setRateLimitHeaders(w, throttled, res)
			}

			if throttled {
				cfg.ErrorHandler(w, r, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders adds standard rate limiting headers to the response.
//
// Headers added:
//   - X-RateLimit-Limit: maximum requests representable by the bucket
//   - X-RateLimit-Remaining: single-unit requests still admissible
//   - X-RateLimit-Reset: unix timestamp when the bucket is fully available
//   - Retry-After: seconds to wait before retrying (only when throttled)
//
// These headers follow the conventions used by APIs like GitHub and Twitter
// so standard clients can implement proper retry logic.
func setRateLimitHeaders(w http.ResponseWriter, throttled bool, res *throttle.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, res.Remaining), 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))

	if throttled && res.RetryAfter >= 0 {
		// Rounded up: retrying after the advertised wait must succeed.
		w.Header().Set("Retry-After", strconv.FormatInt(int64(math.Ceil(res.RetryAfter.Seconds())), 10))
	}
}

// clientHost extracts the client address without the port, falling back to
// the raw remote address when it has no port.
func clientHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
