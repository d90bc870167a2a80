package idempotency

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "idempotency_keys"

// MongoKeyRepository stores idempotency keys in MongoDB
type MongoKeyRepository struct {
	collection *mongo.Collection
	ttl        time.Duration
}

// NewMongoKeyRepository creates a Mongo-backed key repository
func NewMongoKeyRepository(db *mongo.Database, ttl time.Duration) *MongoKeyRepository {
	return &MongoKeyRepository{
		collection: db.Collection(collectionName),
		ttl:        ttl,
	}
}

// EnsureIndexes creates the unique key index and the TTL expiry index
func (r *MongoKeyRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}, {Key: "serviceId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create idempotency indexes: %w", err)
	}
	return nil
}

// AcquireLock atomically inserts the key if absent. When the key already
// exists the stored document is returned and acquired is false.
func (r *MongoKeyRepository) AcquireLock(ctx context.Context, key *Key) (*Key, bool, error) {
	now := time.Now()
	key.CreatedAt = now
	key.LockedAt = &now
	key.ExpiresAt = now.Add(r.ttl)

	filter := bson.M{"key": key.Key, "serviceId": key.ServiceID}
	update := bson.M{"$setOnInsert": key}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var existing Key
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		// No prior document, this caller inserted and holds the lock
		return key, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire idempotency lock: %w", err)
	}
	return &existing, false, nil
}

// ReleaseLock clears the lock so a retry can reprocess the request
func (r *MongoKeyRepository) ReleaseLock(ctx context.Context, key, serviceID string) error {
	filter := bson.M{"key": key, "serviceId": serviceID}
	update := bson.M{"$unset": bson.M{"lockedAt": ""}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release idempotency lock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// StoreResponse records the response and marks the key completed
func (r *MongoKeyRepository) StoreResponse(ctx context.Context, key, serviceID string, code int, body []byte) error {
	now := time.Now()
	filter := bson.M{"key": key, "serviceId": serviceID}
	update := bson.M{
		"$set": bson.M{
			"responseCode": code,
			"responseBody": body,
			"completedAt":  now,
		},
		"$unset": bson.M{"lockedAt": ""},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// Get fetches a key by value and service
func (r *MongoKeyRepository) Get(ctx context.Context, key, serviceID string) (*Key, error) {
	var doc Key
	err := r.collection.FindOne(ctx, bson.M{"key": key, "serviceId": serviceID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch idempotency key: %w", err)
	}
	return &doc, nil
}
