package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InventoryStatus labels a stocking position's disposition
type InventoryStatus string

const (
	StatusAvailable  InventoryStatus = "AVAILABLE"
	StatusAllocated  InventoryStatus = "ALLOCATED"
	StatusOnHold     InventoryStatus = "ON_HOLD"
	StatusDamaged    InventoryStatus = "DAMAGED"
	StatusQCHold     InventoryStatus = "QC_HOLD"
	StatusQuarantine InventoryStatus = "QUARANTINE"
)

// IsValid checks the status against the known set
func (s InventoryStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusAllocated, StatusOnHold, StatusDamaged, StatusQCHold, StatusQuarantine:
		return true
	}
	return false
}

// VelocityClass buckets products by pick frequency for count scoping
type VelocityClass string

const (
	VelocityA VelocityClass = "A"
	VelocityB VelocityClass = "B"
	VelocityC VelocityClass = "C"
)

// RecordID identifies an inventory record
type RecordID string

// NewRecordID creates a new unique record ID
func NewRecordID() RecordID {
	timestamp := time.Now().UTC().Format("20060102150405")
	return RecordID(fmt.Sprintf("INV-%s-%s", timestamp, uuid.New().String()[:8]))
}

func (id RecordID) String() string {
	return string(id)
}

// InventoryRecord is a stocking position: one (sku, location, lot, license plate)
// tuple with its current quantity triple. Quantities change only through the
// Operator so that every mutation lands a ledger entry.
type InventoryRecord struct {
	ID           RecordID `bson:"_id" json:"id"`
	SKU          string   `bson:"sku" json:"sku"`
	ProductName  string   `bson:"productName" json:"productName"`
	WarehouseID  string   `bson:"warehouseId" json:"warehouseId"`
	LocationID   string   `bson:"locationId" json:"locationId"`
	Zone         string   `bson:"zone,omitempty" json:"zone,omitempty"`
	LotNumber    string   `bson:"lotNumber,omitempty" json:"lotNumber,omitempty"`
	SerialNumber string   `bson:"serialNumber,omitempty" json:"serialNumber,omitempty"`
	LicensePlate string   `bson:"licensePlate,omitempty" json:"licensePlate,omitempty"`

	QuantityOnHand    int `bson:"quantityOnHand" json:"quantityOnHand"`
	QuantityAllocated int `bson:"quantityAllocated" json:"quantityAllocated"`
	QuantityAvailable int `bson:"quantityAvailable" json:"quantityAvailable"`

	Status        InventoryStatus `bson:"status" json:"status"`
	VelocityClass VelocityClass   `bson:"velocityClass,omitempty" json:"velocityClass,omitempty"`
	UnitCostCents int64           `bson:"unitCostCents" json:"unitCostCents"`
	ReorderPoint  int             `bson:"reorderPoint" json:"reorderPoint"`

	ExpirationDate *time.Time `bson:"expirationDate,omitempty" json:"expirationDate,omitempty"`
	LastCountDate  *time.Time `bson:"lastCountDate,omitempty" json:"lastCountDate,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewInventoryRecord creates a record at a stocking position with zero quantities
func NewInventoryRecord(sku, productName, warehouseID, locationID string) *InventoryRecord {
	now := time.Now().UTC()
	return &InventoryRecord{
		ID:          NewRecordID(),
		SKU:         sku,
		ProductName: productName,
		WarehouseID: warehouseID,
		LocationID:  locationID,
		Status:      StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CheckInvariant verifies onHand = allocated + available with all three non-negative
func (r *InventoryRecord) CheckInvariant() error {
	if r.QuantityOnHand < 0 || r.QuantityAllocated < 0 || r.QuantityAvailable < 0 {
		return ErrInvalidQuantity
	}
	if r.QuantityOnHand != r.QuantityAllocated+r.QuantityAvailable {
		return ErrInvalidQuantity
	}
	return nil
}

// SetQuantities replaces the quantity triple, rejecting any violation of the invariant
func (r *InventoryRecord) SetQuantities(onHand, allocated, available int) error {
	if onHand < 0 || allocated < 0 || available < 0 {
		return ErrInvalidQuantity
	}
	if onHand != allocated+available {
		return ErrInvalidQuantity
	}
	r.QuantityOnHand = onHand
	r.QuantityAllocated = allocated
	r.QuantityAvailable = available
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyDelta shifts on-hand by delta, keeping allocation fixed. Available
// absorbs the change. Rejects a delta that would drive on-hand negative or
// eat into allocated stock.
func (r *InventoryRecord) ApplyDelta(delta int) error {
	after := r.QuantityOnHand + delta
	if after < 0 {
		return ErrNegativeInventory
	}
	if after < r.QuantityAllocated {
		return ErrNegativeInventory
	}
	r.QuantityOnHand = after
	r.QuantityAvailable = after - r.QuantityAllocated
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Relocate changes the record's location. Blocked while any quantity is
// allocated, since relocation would break the downstream pick.
func (r *InventoryRecord) Relocate(toLocationID, toZone string) error {
	if r.QuantityAllocated > 0 {
		return ErrHasAllocation
	}
	r.LocationID = toLocationID
	r.Zone = toZone
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// SetStatus changes the disposition label
func (r *InventoryRecord) SetStatus(status InventoryStatus) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCounted stamps the last count date after a count posts against this record
func (r *InventoryRecord) MarkCounted(at time.Time) {
	t := at.UTC()
	r.LastCountDate = &t
	r.UpdatedAt = time.Now().UTC()
}

// IsLowStock reports whether available quantity has fallen to the reorder point
func (r *InventoryRecord) IsLowStock() bool {
	return r.ReorderPoint > 0 && r.QuantityAvailable <= r.ReorderPoint
}

// PositionKey is the identity tuple of a stocking position
type PositionKey struct {
	SKU          string
	LocationID   string
	LotNumber    string
	LicensePlate string
}

// Position returns the record's identity tuple
func (r *InventoryRecord) Position() PositionKey {
	return PositionKey{
		SKU:          r.SKU,
		LocationID:   r.LocationID,
		LotNumber:    r.LotNumber,
		LicensePlate: r.LicensePlate,
	}
}
