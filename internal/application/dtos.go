package application

import (
	"time"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
)

// InventoryRecordDTO is the API representation of a stocking position
type InventoryRecordDTO struct {
	ID                string     `json:"id"`
	SKU               string     `json:"sku"`
	ProductName       string     `json:"productName"`
	WarehouseID       string     `json:"warehouseId"`
	LocationID        string     `json:"locationId"`
	Zone              string     `json:"zone,omitempty"`
	LotNumber         string     `json:"lotNumber,omitempty"`
	SerialNumber      string     `json:"serialNumber,omitempty"`
	LicensePlate      string     `json:"licensePlate,omitempty"`
	QuantityOnHand    int        `json:"quantityOnHand"`
	QuantityAllocated int        `json:"quantityAllocated"`
	QuantityAvailable int        `json:"quantityAvailable"`
	Status            string     `json:"status"`
	VelocityClass     string     `json:"velocityClass,omitempty"`
	UnitCostCents     int64      `json:"unitCostCents"`
	ReorderPoint      int        `json:"reorderPoint"`
	LastCountDate     *time.Time `json:"lastCountDate,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// LedgerEntryDTO is the API representation of one ledger fact
type LedgerEntryDTO struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	RecordID       string    `json:"recordId"`
	SKU            string    `json:"sku"`
	WarehouseID    string    `json:"warehouseId"`
	FromLocationID string    `json:"fromLocationId,omitempty"`
	ToLocationID   string    `json:"toLocationId,omitempty"`
	LotNumber      string    `json:"lotNumber,omitempty"`
	Quantity       int       `json:"quantity"`
	QuantityBefore int       `json:"quantityBefore"`
	QuantityAfter  int       `json:"quantityAfter"`
	ReferenceType  string    `json:"referenceType"`
	ReferenceID    string    `json:"referenceId"`
	ActorID        string    `json:"actorId"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TransferResultDTO reports both sides of a completed transfer
type TransferResultDTO struct {
	TransferID string              `json:"transferId"`
	From       *InventoryRecordDTO `json:"from"`
	To         *InventoryRecordDTO `json:"to"`
}

// CycleCountLineDTO is one line of a cycle count session
type CycleCountLineDTO struct {
	ID              string                `json:"id"`
	RecordID        string                `json:"recordId"`
	LocationID      string                `json:"locationId"`
	SKU             string                `json:"sku"`
	LotNumber       string                `json:"lotNumber,omitempty"`
	SystemQuantity  int                   `json:"systemQuantity"`
	CountedQuantity *int                  `json:"countedQuantity,omitempty"`
	Recounted       bool                  `json:"recounted,omitempty"`
	Variance        domain.VarianceResult `json:"variance"`
	Status          string                `json:"status"`
	CountedBy       string                `json:"countedBy,omitempty"`
	CountedAt       *time.Time            `json:"countedAt,omitempty"`
}

// CycleCountDTO is the API representation of a cycle count session
type CycleCountDTO struct {
	ID               string              `json:"id"`
	CountNumber      string              `json:"countNumber"`
	WarehouseID      string              `json:"warehouseId"`
	CountType        string              `json:"countType"`
	Status           string              `json:"status"`
	TotalLocations   int                 `json:"totalLocations"`
	CountedLocations int                 `json:"countedLocations"`
	Discrepancies    int                 `json:"discrepancies"`
	Lines            []CycleCountLineDTO `json:"lines"`
	CreatedBy        string              `json:"createdBy"`
	CreatedAt        time.Time           `json:"createdAt"`
	StartedAt        *time.Time          `json:"startedAt,omitempty"`
	CompletedAt      *time.Time          `json:"completedAt,omitempty"`
}

// CountBookLineDTO is one line of a count book. The expected quantity is
// omitted on blind counts.
type CountBookLineDTO struct {
	ID               string                `json:"id"`
	RecordID         string                `json:"recordId,omitempty"`
	LocationID       string                `json:"locationId"`
	SKU              string                `json:"sku,omitempty"`
	LotNumber        string                `json:"lotNumber,omitempty"`
	ExpectedQuantity *int                  `json:"expectedQuantity,omitempty"`
	CountedQuantity  *int                  `json:"countedQuantity,omitempty"`
	RecountQuantity  *int                  `json:"recountQuantity,omitempty"`
	Variance         domain.VarianceResult `json:"variance"`
	Status           string                `json:"status"`
	ApprovedBy       string                `json:"approvedBy,omitempty"`
}

// CountBookDTO is one partition of a physical inventory
type CountBookDTO struct {
	ID          string             `json:"id"`
	BookNumber  string             `json:"bookNumber"`
	Status      string             `json:"status"`
	AssignedTo  string             `json:"assignedTo,omitempty"`
	LocationIDs []string           `json:"locationIds"`
	Lines       []CountBookLineDTO `json:"lines"`
}

// PhysicalInventoryDTO is the API representation of a physical inventory session
type PhysicalInventoryDTO struct {
	ID                        string         `json:"id"`
	PINumber                  string         `json:"piNumber"`
	WarehouseID               string         `json:"warehouseId"`
	Status                    string         `json:"status"`
	Zones                     []string       `json:"zones,omitempty"`
	BlindCount                bool           `json:"blindCount"`
	LocationsPerBook          int            `json:"locationsPerBook"`
	TotalBooks                int            `json:"totalBooks"`
	TotalLocations            int            `json:"totalLocations"`
	AdjustmentsPosted         int            `json:"adjustmentsPosted"`
	TotalAdjustmentValueCents int64          `json:"totalAdjustmentValueCents"`
	Books                     []CountBookDTO `json:"books,omitempty"`
	CreatedBy                 string         `json:"createdBy"`
	CreatedAt                 time.Time      `json:"createdAt"`
	CompletedAt               *time.Time     `json:"completedAt,omitempty"`
}

// VarianceReportLineDTO annotates one variance line for review
type VarianceReportLineDTO struct {
	BookID     string           `json:"bookId"`
	BookNumber string           `json:"bookNumber"`
	Line       CountBookLineDTO `json:"line"`
}

// VarianceReportDTO is the read-only aggregation over all books
type VarianceReportDTO struct {
	PIID    string                  `json:"piId"`
	Summary domain.VarianceSummary  `json:"summary"`
	Lines   []VarianceReportLineDTO `json:"lines"`
}

// InventorySummaryDTO aggregates current quantities for a warehouse or SKU
type InventorySummaryDTO struct {
	WarehouseID    string               `json:"warehouseId"`
	TotalOnHand    int                  `json:"totalOnHand"`
	TotalAllocated int                  `json:"totalAllocated"`
	TotalAvailable int                  `json:"totalAvailable"`
	TotalValue     int64                `json:"totalValueCents"`
	RecordCount    int                  `json:"recordCount"`
	Records        []InventoryRecordDTO `json:"records,omitempty"`
}

// DiscrepancyDTO surfaces one open count discrepancy for a supervisor
type DiscrepancyDTO struct {
	SessionID   string                `json:"sessionId"`
	SessionType string                `json:"sessionType"`
	CountNumber string                `json:"countNumber"`
	LocationID  string                `json:"locationId"`
	SKU         string                `json:"sku"`
	Variance    domain.VarianceResult `json:"variance"`
}
