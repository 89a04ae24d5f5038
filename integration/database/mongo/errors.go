package mongo

import "errors"

// Sentinel errors for MongoDB connection setup. Callers match them with
// errors.Is to tell configuration mistakes from transient unavailability.
var (
	ErrEmptyConnectionURL = errors.New("empty mongodb connection URL")
	ErrFailedToConnect    = errors.New("failed to create mongodb client")
	ErrMongoNotReady      = errors.New("mongodb did not become ready within the given time period")
	ErrHealthcheckFailed  = errors.New("mongodb healthcheck failed")
)
