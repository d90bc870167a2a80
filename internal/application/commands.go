package application

import (
	"github.com/wms-platform/inventory-ledger-service/internal/domain"
)

// AdjustCommand posts a signed quantity delta against one record
type AdjustCommand struct {
	RecordID      string `json:"recordId"`
	Delta         int    `json:"delta"`
	Reason        string `json:"reason"`
	ReferenceType string `json:"referenceType"`
	ReferenceID   string `json:"referenceId"`
	ActorID       string `json:"-"`
}

// TransferCommand splits quantity from one record to a destination location
type TransferCommand struct {
	FromRecordID string `json:"fromRecordId"`
	ToLocationID string `json:"toLocationId"`
	ToZone       string `json:"toZone"`
	Quantity     int    `json:"quantity"`
	ReferenceID  string `json:"referenceId"`
	Reason       string `json:"reason"`
	ActorID      string `json:"-"`
}

// MoveCommand relocates a whole record, typically a pallet or license plate
type MoveCommand struct {
	RecordID     string `json:"recordId"`
	ToLocationID string `json:"toLocationId"`
	ToZone       string `json:"toZone"`
	Reason       string `json:"reason"`
	ActorID      string `json:"-"`
}

// SetStatusCommand changes a record's disposition label
type SetStatusCommand struct {
	RecordID string `json:"recordId"`
	Status   string `json:"status"`
	Reason   string `json:"reason"`
	ActorID  string `json:"-"`
}

// ReceiveCommand books new stock into a stocking position, creating the
// record on first receipt
type ReceiveCommand struct {
	WarehouseID   string `json:"warehouseId"`
	SKU           string `json:"sku"`
	ProductName   string `json:"productName"`
	LocationID    string `json:"locationId"`
	Zone          string `json:"zone"`
	LotNumber     string `json:"lotNumber"`
	LicensePlate  string `json:"licensePlate"`
	Quantity      int    `json:"quantity"`
	UnitCostCents int64  `json:"unitCostCents"`
	ReorderPoint  int    `json:"reorderPoint"`
	ReferenceID   string `json:"referenceId"`
	ActorID       string `json:"-"`
}

// CreateCycleCountCommand scopes and snapshots a new cycle count session
type CreateCycleCountCommand struct {
	WarehouseID string                    `json:"warehouseId"`
	CountType   string                    `json:"countType"`
	Scope       domain.ScopeSelector      `json:"scope"`
	Thresholds  domain.VarianceThresholds `json:"thresholds"`
	ActorID     string                    `json:"-"`
}

// RecordCountCommand stores a counted quantity on one cycle count line
type RecordCountCommand struct {
	CountID         string `json:"-"`
	LineID          string `json:"lineId"`
	CountedQuantity int    `json:"countedQuantity"`
	ActorID         string `json:"-"`
}

// ApproveCycleCountCommand posts the session's variances and completes it
type ApproveCycleCountCommand struct {
	CountID   string `json:"-"`
	AdjustAll bool   `json:"adjustAll"`
	ActorID   string `json:"-"`
}

// CreatePhysicalInventoryCommand sets up a facility count
type CreatePhysicalInventoryCommand struct {
	WarehouseID      string                    `json:"warehouseId"`
	Zones            []string                  `json:"zones"`
	BlindCount       bool                      `json:"blindCount"`
	Thresholds       domain.VarianceThresholds `json:"thresholds"`
	LocationsPerBook int                       `json:"locationsPerBook"`
	ActorID          string                    `json:"-"`
}

// AssignBookCommand hands a count book to a counter
type AssignBookCommand struct {
	PIID       string `json:"-"`
	BookID     string `json:"-"`
	AssignedTo string `json:"assignedTo"`
	ActorID    string `json:"-"`
}

// RecordBookLineCommand stores a count or recount on a count book line
type RecordBookLineCommand struct {
	PIID     string `json:"-"`
	BookID   string `json:"-"`
	LineID   string `json:"lineId"`
	Quantity int    `json:"quantity"`
	Recount  bool   `json:"recount"`
	ActorID  string `json:"-"`
}

// ApproveVarianceLineCommand marks one variance line approved
type ApproveVarianceLineCommand struct {
	PIID    string `json:"-"`
	BookID  string `json:"-"`
	LineID  string `json:"lineId"`
	ActorID string `json:"-"`
}

// CompletePhysicalInventoryCommand closes the session, optionally posting
// every non-zero variance as an adjustment
type CompletePhysicalInventoryCommand struct {
	PIID            string `json:"-"`
	PostAdjustments bool   `json:"postAdjustments"`
	ActorID         string `json:"-"`
}
