package domain

import "context"

// SystemActor is the sentinel actor attached to unattributed mutations.
// Callers that cannot name a human pass this by convention instead of the
// engine looking one up at call time.
const SystemActor = "system"

// RecordFilter narrows an inventory record search
type RecordFilter struct {
	WarehouseID string
	SKU         string
	LocationID  string
	Zone        string
	Status      InventoryStatus
	IncludeZero bool
	Limit       int64
	Offset      int64
}

// InventoryRecordRepository persists inventory records
type InventoryRecordRepository interface {
	FindByID(ctx context.Context, id RecordID) (*InventoryRecord, error)
	FindByPosition(ctx context.Context, warehouseID string, pos PositionKey) (*InventoryRecord, error)
	FindByScope(ctx context.Context, warehouseID string, scope ScopeSelector) ([]*InventoryRecord, error)
	FindByLocation(ctx context.Context, warehouseID, locationID string) ([]*InventoryRecord, error)
	DistinctLocations(ctx context.Context, warehouseID string, zones []string) ([]string, error)
	Search(ctx context.Context, filter RecordFilter) ([]*InventoryRecord, error)
	Save(ctx context.Context, record *InventoryRecord) error
}

// LedgerRepository persists ledger entries. Append-only: there is no update
// or delete in this contract.
type LedgerRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) (EntryID, error)
	AppendAll(ctx context.Context, entries []*LedgerEntry) error
	Query(ctx context.Context, filter LedgerFilter) ([]*LedgerEntry, error)
}

// CycleCountRepository persists cycle count sessions
type CycleCountRepository interface {
	FindByID(ctx context.Context, id string) (*CycleCount, error)
	List(ctx context.Context, warehouseID string, status CycleCountStatus, limit, offset int64) ([]*CycleCount, error)
	Save(ctx context.Context, count *CycleCount) error
}

// PhysicalInventoryRepository persists physical inventory sessions
type PhysicalInventoryRepository interface {
	FindByID(ctx context.Context, id string) (*PhysicalInventory, error)
	List(ctx context.Context, warehouseID string, status PhysicalInventoryStatus, limit, offset int64) ([]*PhysicalInventory, error)
	Save(ctx context.Context, pi *PhysicalInventory) error
}
