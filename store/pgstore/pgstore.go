// Package pgstore implements the throttle.Store contract on PostgreSQL.
//
// Each bucket is one row in the throttle_buckets table. PostgreSQL has no
// native key expiry, so every row carries an expires_at column: expired rows
// read as absent and are overwritten in place by the next set-if-absent.
// Conditional writes rely on single-statement atomicity: an UPDATE guarded
// by the previously read value, and an upsert that only replaces expired
// state. That gives the optimistic-concurrency semantics the engine needs
// without explicit locking.
//
// The schema is installed by the goose migration embedded in Migrations:
//
//	pg.Migrate(ctx, pool, pgstore.Migrations, "migrations", cfg)
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/throttlehq/throttle/core/throttle"
	"github.com/throttlehq/throttle/integration/database/pg"
)

// Migrations holds the goose migration installing the store's schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Store implements throttle.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// querier is the subset of pgx shared by pools and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New creates a PostgreSQL-backed store. The pool is borrowed, not owned;
// closing it is the caller's responsibility.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// db returns the transaction carried by the context when present, so store
// operations can participate in a caller-managed transaction.
func (s *Store) db(ctx context.Context) querier {
	if tx, ok := pg.TxFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

// GetWithTime returns the stored theoretical arrival time for the key along
// with the database server's clock. Expired rows read as absent.
func (s *Store) GetWithTime(ctx context.Context, key string) (int64, time.Time, error) {
	var (
		tat *int64
		now time.Time
	)
	err := s.db(ctx).QueryRow(ctx,
		`SELECT (SELECT tat FROM throttle_buckets WHERE key = $1 AND expires_at > now()), now()`,
		key,
	).Scan(&tat, &now)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("pgstore: read %q: %w", key, err)
	}
	if tat == nil {
		return throttle.StateAbsent, now, nil
	}
	return *tat, now, nil
}

// SetIfNotExistsWithTTL inserts the value unless live state already exists.
// An expired row counts as absent and is replaced in place.
func (s *Store) SetIfNotExistsWithTTL(ctx context.Context, key string, tat int64, ttl time.Duration) (bool, error) {
	tag, err := s.db(ctx).Exec(ctx,
		`INSERT INTO throttle_buckets (key, tat, expires_at)
		 VALUES ($1, $2, now() + $3)
		 ON CONFLICT (key) DO UPDATE
		 SET tat = EXCLUDED.tat, expires_at = EXCLUDED.expires_at
		 WHERE throttle_buckets.expires_at <= now()`,
		key, tat, ttl,
	)
	if err != nil {
		return false, fmt.Errorf("pgstore: set %q: %w", key, err)
	}
	return tag.RowsAffected() > 0, nil
}

// CompareAndSwapWithTTL replaces the stored value only when the live value
// still equals old. A concurrent update, delete, or expiry makes the guarded
// UPDATE match no row, reported as ok=false.
func (s *Store) CompareAndSwapWithTTL(ctx context.Context, key string, old, new int64, ttl time.Duration) (bool, error) {
	tag, err := s.db(ctx).Exec(ctx,
		`UPDATE throttle_buckets
		 SET tat = $3, expires_at = now() + $4
		 WHERE key = $1 AND tat = $2 AND expires_at > now()`,
		key, old, new, ttl,
	)
	if err != nil {
		return false, fmt.Errorf("pgstore: swap %q: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes the key's state. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db(ctx).Exec(ctx,
		`DELETE FROM throttle_buckets WHERE key = $1`, key,
	); err != nil {
		return fmt.Errorf("pgstore: delete %q: %w", key, err)
	}
	return nil
}

// DeleteExpired removes rows whose state has passed its expiry and returns
// the count of deleted rows. Reads already treat those as absent; this only
// reclaims storage and can be run from a periodic job.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db(ctx).Exec(ctx,
		`DELETE FROM throttle_buckets WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("pgstore: delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Healthcheck validates that the backing table is reachable.
func (s *Store) Healthcheck(ctx context.Context) error {
	var one int
	if err := s.pool.QueryRow(ctx, `SELECT 1 FROM throttle_buckets LIMIT 1`).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("pgstore: healthcheck: %w", err)
	}
	return nil
}
