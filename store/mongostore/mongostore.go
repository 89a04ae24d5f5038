// Package mongostore implements the throttle.Store contract on MongoDB.
//
// Each bucket is one document keyed by _id. Expiry rides on a TTL index over
// expires_at, but since the TTL monitor only sweeps periodically, reads also
// treat documents past their expiry as absent. Conditional writes rely on
// MongoDB's single-document atomicity: compare-and-swap is an update filtered
// on the previously read value, and set-if-absent is an upsert that only
// replaces expired state, with a duplicate-key error signalling a lost race.
// Expiry timestamps are computed server-side from $$NOW so no client clock
// ever enters the persisted state.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/throttlehq/throttle/core/throttle"
)

// defaultCollection is the collection holding bucket state.
const defaultCollection = "throttle_buckets"

// Store implements throttle.Store using MongoDB.
type Store struct {
	coll *mongo.Collection
}

// Option configures a Store.
type Option func(*Store)

// WithCollection overrides the collection name.
func WithCollection(db *mongo.Database, name string) Option {
	return func(s *Store) {
		s.coll = db.Collection(name)
	}
}

// New creates a MongoDB-backed store using the throttle_buckets collection.
// The database handle is borrowed, not owned. Call EnsureIndexes once per
// deployment so idle buckets are reclaimed by the TTL monitor.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{coll: db.Collection(defaultCollection)}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EnsureIndexes creates the TTL index that reclaims expired bucket state.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("mongostore: ensure indexes: %w", err)
	}
	return nil
}

// bucketDoc is the persisted shape of one bucket.
type bucketDoc struct {
	Key       string    `bson:"_id"`
	TAT       int64     `bson:"tat"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// GetWithTime returns the stored theoretical arrival time for the key along
// with the MongoDB server's clock. Documents past their expiry read as
// absent even before the TTL monitor reclaims them.
func (s *Store) GetWithTime(ctx context.Context, key string) (int64, time.Time, error) {
	now, err := s.serverTime(ctx)
	if err != nil {
		return 0, time.Time{}, err
	}

	var doc bucketDoc
	err = s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return throttle.StateAbsent, now, nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("mongostore: read %q: %w", key, err)
	}

	if !doc.ExpiresAt.After(now) {
		return throttle.StateAbsent, now, nil
	}
	return doc.TAT, now, nil
}

// SetIfNotExistsWithTTL writes the value unless live state already exists.
// The upsert's filter only matches expired documents, so racing against a
// live one surfaces as a duplicate-key error, reported as ok=false.
func (s *Store) SetIfNotExistsWithTTL(ctx context.Context, key string, tat int64, ttl time.Duration) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: key},
		{Key: "$expr", Value: bson.D{{Key: "$lte", Value: bson.A{"$expires_at", "$$NOW"}}}},
	}

	res, err := s.coll.UpdateOne(ctx, filter, setStatePipeline(tat, ttl), options.UpdateOne().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("mongostore: set %q: %w", key, err)
	}
	return res.ModifiedCount+res.UpsertedCount > 0, nil
}

// CompareAndSwapWithTTL replaces the stored value only when the live value
// still equals old. Single-document update atomicity guarantees no
// interleaving between the comparison and the write.
func (s *Store) CompareAndSwapWithTTL(ctx context.Context, key string, old, new int64, ttl time.Duration) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: key},
		{Key: "tat", Value: old},
		{Key: "$expr", Value: bson.D{{Key: "$gt", Value: bson.A{"$expires_at", "$$NOW"}}}},
	}

	res, err := s.coll.UpdateOne(ctx, filter, setStatePipeline(new, ttl))
	if err != nil {
		return false, fmt.Errorf("mongostore: swap %q: %w", key, err)
	}
	return res.ModifiedCount == 1, nil
}

// Delete removes the key's state. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}}); err != nil {
		return fmt.Errorf("mongostore: delete %q: %w", key, err)
	}
	return nil
}

// Healthcheck validates that the backing collection is reachable.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.coll.FindOne(ctx, bson.D{}).Err(); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("mongostore: healthcheck: %w", err)
	}
	return nil
}

// setStatePipeline builds an aggregation-pipeline update that sets the new
// arrival time and computes expires_at from the server's clock.
func setStatePipeline(tat int64, ttl time.Duration) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "tat", Value: tat},
			{Key: "expires_at", Value: bson.D{
				{Key: "$add", Value: bson.A{"$$NOW", ttl.Milliseconds()}},
			}},
		}}},
	}
}

// serverTime reads the server's clock from the hello command so decisions
// are made against the backend's time rather than the caller's.
func (s *Store) serverTime(ctx context.Context) (time.Time, error) {
	var hello struct {
		LocalTime time.Time `bson:"localTime"`
	}
	err := s.coll.Database().RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		return time.Time{}, fmt.Errorf("mongostore: server time: %w", err)
	}
	return hello.LocalTime, nil
}
