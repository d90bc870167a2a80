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

const recordCollection = "inventory_records"

// InventoryRecordRepository is the MongoDB implementation of the record store
type InventoryRecordRepository struct {
	collection *driver.Collection
}

// NewInventoryRecordRepository creates the repository
func NewInventoryRecordRepository(client *mongodb.Client) *InventoryRecordRepository {
	return &InventoryRecordRepository{collection: client.Collection(recordCollection)}
}

// EnsureIndexes creates the position identity index and query indexes
func (r *InventoryRecordRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []driver.IndexModel{
		{
			Keys: bson.D{
				{Key: "warehouseId", Value: 1},
				{Key: "sku", Value: 1},
				{Key: "locationId", Value: 1},
				{Key: "lotNumber", Value: 1},
				{Key: "licensePlate", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "locationId", Value: 1}}},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "zone", Value: 1}}},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "sku", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create inventory record indexes: %w", err)
	}
	return nil
}

// FindByID fetches one record
func (r *InventoryRecordRepository) FindByID(ctx context.Context, id domain.RecordID) (*domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == driver.ErrNoDocuments {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	return &rec, nil
}

// FindByPosition fetches the record at one stocking position
func (r *InventoryRecordRepository) FindByPosition(ctx context.Context, warehouseID string, pos domain.PositionKey) (*domain.InventoryRecord, error) {
	filter := bson.M{
		"warehouseId":  warehouseID,
		"sku":          pos.SKU,
		"locationId":   pos.LocationID,
		"lotNumber":    pos.LotNumber,
		"licensePlate": pos.LicensePlate,
	}
	var rec domain.InventoryRecord
	err := r.collection.FindOne(ctx, filter).Decode(&rec)
	if err == driver.ErrNoDocuments {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find record by position: %w", err)
	}
	return &rec, nil
}

// FindByScope fetches every record a count scope selector matches
func (r *InventoryRecordRepository) FindByScope(ctx context.Context, warehouseID string, scope domain.ScopeSelector) ([]*domain.InventoryRecord, error) {
	filter := bson.M{"warehouseId": warehouseID}
	switch scope.Kind {
	case domain.ScopeByLocations:
		filter["locationId"] = bson.M{"$in": scope.LocationIDs}
	case domain.ScopeByZone:
		filter["zone"] = scope.Zone
	case domain.ScopeBySKUs:
		filter["sku"] = bson.M{"$in": scope.SKUs}
	case domain.ScopeByVelocityClass:
		filter["velocityClass"] = scope.VelocityClass
	default:
		return nil, domain.ErrEmptyScope
	}
	return r.findAll(ctx, filter, nil)
}

// FindByLocation fetches every record at one location
func (r *InventoryRecordRepository) FindByLocation(ctx context.Context, warehouseID, locationID string) ([]*domain.InventoryRecord, error) {
	return r.findAll(ctx, bson.M{"warehouseId": warehouseID, "locationId": locationID}, nil)
}

// DistinctLocations lists the locations holding inventory, optionally
// narrowed to a zone list
func (r *InventoryRecordRepository) DistinctLocations(ctx context.Context, warehouseID string, zones []string) ([]string, error) {
	filter := bson.M{"warehouseId": warehouseID}
	if len(zones) > 0 {
		filter["zone"] = bson.M{"$in": zones}
	}
	values, err := r.collection.Distinct(ctx, "locationId", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	locations := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			locations = append(locations, s)
		}
	}
	return locations, nil
}

// Search fetches records matching a filter. Zero-quantity records are kept
// in the collection for audit and excluded here unless requested.
func (r *InventoryRecordRepository) Search(ctx context.Context, filter domain.RecordFilter) ([]*domain.InventoryRecord, error) {
	query := bson.M{}
	if filter.WarehouseID != "" {
		query["warehouseId"] = filter.WarehouseID
	}
	if filter.SKU != "" {
		query["sku"] = filter.SKU
	}
	if filter.LocationID != "" {
		query["locationId"] = filter.LocationID
	}
	if filter.Zone != "" {
		query["zone"] = filter.Zone
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if !filter.IncludeZero {
		query["quantityOnHand"] = bson.M{"$gt": 0}
	}

	opts := options.Find().SetSort(bson.D{{Key: "sku", Value: 1}, {Key: "locationId", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit).SetSkip(filter.Offset)
	}
	return r.findAll(ctx, query, opts)
}

// Save upserts one record
func (r *InventoryRecordRepository) Save(ctx context.Context, record *domain.InventoryRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (r *InventoryRecordRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.InventoryRecord, error) {
	var cursor *driver.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.InventoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}
