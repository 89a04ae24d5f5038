package throttle

import "errors"

// Package-level error definitions for rate limiting operations.
var (
	// ErrInvalidQuota is returned when a quota has a non-positive rate period
	// or a negative burst allowance.
	ErrInvalidQuota = errors.New("invalid rate quota")
	// ErrInvalidQuantity is returned when the requested quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrCASConflict is returned when concurrent evaluations kept invalidating
	// each other's writes and the retry budget ran out. It signals contention,
	// not backend failure, and the call can be retried.
	ErrCASConflict = errors.New("compare-and-swap retry budget exhausted")
	// ErrStoreUnavailable is returned by stores when the backend cannot be
	// reached within the operation's deadline.
	ErrStoreUnavailable = errors.New("store unavailable")
)
