package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// InventoryAdjustedEvent is published when a quantity adjustment posts
type InventoryAdjustedEvent struct {
	RecordID       string    `json:"recordId"`
	SKU            string    `json:"sku"`
	LocationID     string    `json:"locationId"`
	QuantityBefore int       `json:"quantityBefore"`
	QuantityAfter  int       `json:"quantityAfter"`
	ReferenceType  string    `json:"referenceType"`
	ReferenceID    string    `json:"referenceId"`
	Reason         string    `json:"reason"`
	ActorID        string    `json:"actorId"`
	AdjustedAt     time.Time `json:"adjustedAt"`
}

func (e *InventoryAdjustedEvent) EventType() string     { return "wms.inventory.adjusted" }
func (e *InventoryAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }

// InventoryTransferredEvent is published when a transfer completes, covering both sides
type InventoryTransferredEvent struct {
	TransferID     string    `json:"transferId"`
	SKU            string    `json:"sku"`
	FromLocationID string    `json:"fromLocationId"`
	ToLocationID   string    `json:"toLocationId"`
	Quantity       int       `json:"quantity"`
	ActorID        string    `json:"actorId"`
	TransferredAt  time.Time `json:"transferredAt"`
}

func (e *InventoryTransferredEvent) EventType() string     { return "wms.inventory.transferred" }
func (e *InventoryTransferredEvent) OccurredAt() time.Time { return e.TransferredAt }

// InventoryMovedEvent is published when a pallet relocates without a quantity split
type InventoryMovedEvent struct {
	RecordID       string    `json:"recordId"`
	SKU            string    `json:"sku"`
	LicensePlate   string    `json:"licensePlate,omitempty"`
	FromLocationID string    `json:"fromLocationId"`
	ToLocationID   string    `json:"toLocationId"`
	Quantity       int       `json:"quantity"`
	ActorID        string    `json:"actorId"`
	MovedAt        time.Time `json:"movedAt"`
}

func (e *InventoryMovedEvent) EventType() string     { return "wms.inventory.moved" }
func (e *InventoryMovedEvent) OccurredAt() time.Time { return e.MovedAt }

// InventoryStatusChangedEvent is published on a disposition change
type InventoryStatusChangedEvent struct {
	RecordID   string    `json:"recordId"`
	SKU        string    `json:"sku"`
	LocationID string    `json:"locationId"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
	Reason     string    `json:"reason"`
	ActorID    string    `json:"actorId"`
	ChangedAt  time.Time `json:"changedAt"`
}

func (e *InventoryStatusChangedEvent) EventType() string     { return "wms.inventory.status-changed" }
func (e *InventoryStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// LowStockAlertEvent is published when available quantity crosses the reorder point
type LowStockAlertEvent struct {
	RecordID          string    `json:"recordId"`
	SKU               string    `json:"sku"`
	LocationID        string    `json:"locationId"`
	AvailableQuantity int       `json:"availableQuantity"`
	ReorderPoint      int       `json:"reorderPoint"`
	AlertedAt         time.Time `json:"alertedAt"`
}

func (e *LowStockAlertEvent) EventType() string     { return "wms.inventory.low-stock-alert" }
func (e *LowStockAlertEvent) OccurredAt() time.Time { return e.AlertedAt }

// CycleCountCreatedEvent is published when a count session is scoped and snapshotted
type CycleCountCreatedEvent struct {
	CountID     string    `json:"countId"`
	CountNumber string    `json:"countNumber"`
	WarehouseID string    `json:"warehouseId"`
	TotalLines  int       `json:"totalLines"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *CycleCountCreatedEvent) EventType() string     { return "wms.inventory.count-created" }
func (e *CycleCountCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// CountCompletedEvent is published when a cycle count or physical inventory finishes
type CountCompletedEvent struct {
	CountID       string    `json:"countId"`
	CountNumber   string    `json:"countNumber"`
	CountType     string    `json:"countType"`
	WarehouseID   string    `json:"warehouseId"`
	Discrepancies int       `json:"discrepancies"`
	ApprovedBy    string    `json:"approvedBy"`
	CompletedAt   time.Time `json:"completedAt"`
}

func (e *CountCompletedEvent) EventType() string     { return "wms.inventory.count-completed" }
func (e *CountCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }
