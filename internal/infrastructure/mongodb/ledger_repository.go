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

const ledgerCollection = "transaction_ledger"

// LedgerRepository is the MongoDB implementation of the append-only ledger.
// Inserts only; nothing here updates or deletes an entry.
type LedgerRepository struct {
	collection *driver.Collection
}

// NewLedgerRepository creates the repository
func NewLedgerRepository(client *mongodb.Client) *LedgerRepository {
	return &LedgerRepository{collection: client.Collection(ledgerCollection)}
}

// EnsureIndexes creates the query indexes the audit views need
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []driver.IndexModel{
		{Keys: bson.D{{Key: "recordId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "sku", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "referenceId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create ledger indexes: %w", err)
	}
	return nil
}

// Append inserts one entry
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) (domain.EntryID, error) {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return entry.ID, nil
}

// AppendAll inserts a batch of entries, typically both sides of a transfer
func (r *LedgerRepository) AppendAll(ctx context.Context, entries []*domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, e)
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to append ledger entries: %w", err)
	}
	return nil
}

// Query fetches entries matching a filter, newest first
func (r *LedgerRepository) Query(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	query := bson.M{}
	if filter.RecordID != "" {
		query["recordId"] = filter.RecordID
	}
	if filter.SKU != "" {
		query["sku"] = filter.SKU
	}
	if filter.WarehouseID != "" {
		query["warehouseId"] = filter.WarehouseID
	}
	if filter.LocationID != "" {
		query["$or"] = bson.A{
			bson.M{"fromLocationId": filter.LocationID},
			bson.M{"toLocationId": filter.LocationID},
		}
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.ReferenceID != "" {
		query["referenceId"] = filter.ReferenceID
	}
	if filter.From != nil || filter.To != nil {
		created := bson.M{}
		if filter.From != nil {
			created["$gte"] = *filter.From
		}
		if filter.To != nil {
			created["$lte"] = *filter.To
		}
		query["createdAt"] = created
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit).SetSkip(filter.Offset)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*domain.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}
