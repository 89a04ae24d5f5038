package pg

import "errors"

// Sentinel errors for PostgreSQL connection setup and migrations. Callers
// match them with errors.Is to tell configuration mistakes from transient
// unavailability.
var (
	ErrFailedToParseConnString = errors.New("failed to parse postgres connection string")
	ErrPostgresNotReady        = errors.New("postgres did not become ready within the given time period")
	ErrEmptyConnectionString   = errors.New("empty postgres connection string")
	ErrHealthcheckFailed       = errors.New("postgres healthcheck failed")
	ErrMigrationFailed         = errors.New("failed to apply migrations")
)
