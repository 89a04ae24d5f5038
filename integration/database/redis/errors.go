package redis

import "errors"

// Sentinel errors for Redis connection setup. Callers match them with
// errors.Is to tell configuration mistakes from transient unavailability.
var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
)
