package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// New creates a MongoDB client and verifies connectivity before returning.
// Pings are retried to ride out Atlas cold starts and brief network
// interruptions that would otherwise fail application startup.
func New(ctx context.Context, cfg Config) (*mongo.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts := options.Client().
		ApplyURI(cfg.ConnectionURL).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnect, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := interval * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				_ = client.Disconnect(context.Background())
				return nil, errors.Join(ErrMongoNotReady, ctx.Err(), lastErr)
			case <-time.After(backoff):
			}
		}

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			lastErr = err
			continue
		}
		return client, nil
	}

	_ = client.Disconnect(context.Background())
	return nil, errors.Join(ErrMongoNotReady, lastErr)
}

// NewWithDatabase is New that returns a handle to the named database.
func NewWithDatabase(ctx context.Context, cfg Config, name string) (*mongo.Database, error) {
	client, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client.Database(name), nil
}

// Healthcheck returns a health check function that verifies MongoDB
// connectivity with a primary ping. Suitable for readiness probes.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
