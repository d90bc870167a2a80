package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
	"github.com/wms-platform/inventory-ledger-service/pkg/mongodb"
)

const cycleCountCollection = "cycle_counts"

// CycleCountRepository is the MongoDB implementation of cycle count persistence
type CycleCountRepository struct {
	collection *driver.Collection
}

// NewCycleCountRepository creates the repository
func NewCycleCountRepository(client *mongodb.Client) *CycleCountRepository {
	return &CycleCountRepository{collection: client.Collection(cycleCountCollection)}
}

// EnsureIndexes creates the listing indexes
func (r *CycleCountRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []driver.IndexModel{
		{Keys: bson.D{{Key: "countNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create cycle count indexes: %w", err)
	}
	return nil
}

// FindByID fetches one session
func (r *CycleCountRepository) FindByID(ctx context.Context, id string) (*domain.CycleCount, error) {
	var cc domain.CycleCount
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cc)
	if err == driver.ErrNoDocuments {
		return nil, domain.ErrCountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cycle count: %w", err)
	}
	return &cc, nil
}

// List fetches sessions for a warehouse, optionally filtered by status
func (r *CycleCountRepository) List(ctx context.Context, warehouseID string, status domain.CycleCountStatus, limit, offset int64) ([]*domain.CycleCount, error) {
	filter := bson.M{}
	if warehouseID != "" {
		filter["warehouseId"] = warehouseID
	}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit).SetSkip(offset)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycle counts: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []*domain.CycleCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode cycle counts: %w", err)
	}
	return counts, nil
}

// Save upserts one session
func (r *CycleCountRepository) Save(ctx context.Context, count *domain.CycleCount) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": count.ID}, count, opts)
	if err != nil {
		return fmt.Errorf("failed to save cycle count: %w", err)
	}
	return nil
}
