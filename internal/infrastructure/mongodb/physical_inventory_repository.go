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

const physicalInventoryCollection = "physical_inventories"

// PhysicalInventoryRepository is the MongoDB implementation of physical
// inventory persistence. Sessions embed their books and lines; a whole
// session is one document.
type PhysicalInventoryRepository struct {
	collection *driver.Collection
}

// NewPhysicalInventoryRepository creates the repository
func NewPhysicalInventoryRepository(client *mongodb.Client) *PhysicalInventoryRepository {
	return &PhysicalInventoryRepository{collection: client.Collection(physicalInventoryCollection)}
}

// EnsureIndexes creates the listing indexes
func (r *PhysicalInventoryRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []driver.IndexModel{
		{Keys: bson.D{{Key: "piNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create physical inventory indexes: %w", err)
	}
	return nil
}

// FindByID fetches one session with all its books
func (r *PhysicalInventoryRepository) FindByID(ctx context.Context, id string) (*domain.PhysicalInventory, error) {
	var pi domain.PhysicalInventory
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pi)
	if err == driver.ErrNoDocuments {
		return nil, domain.ErrPINotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find physical inventory: %w", err)
	}
	return &pi, nil
}

// List fetches sessions for a warehouse, optionally filtered by status
func (r *PhysicalInventoryRepository) List(ctx context.Context, warehouseID string, status domain.PhysicalInventoryStatus, limit, offset int64) ([]*domain.PhysicalInventory, error) {
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
		return nil, fmt.Errorf("failed to list physical inventories: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*domain.PhysicalInventory
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode physical inventories: %w", err)
	}
	return sessions, nil
}

// Save upserts one session
func (r *PhysicalInventoryRepository) Save(ctx context.Context, pi *domain.PhysicalInventory) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": pi.ID}, pi, opts)
	if err != nil {
		return fmt.Errorf("failed to save physical inventory: %w", err)
	}
	return nil
}
