package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryType classifies a ledger entry by what caused the quantity change
type EntryType string

const (
	EntryReceive           EntryType = "RECEIVE"
	EntryAdjustIn          EntryType = "ADJUST_IN"
	EntryAdjustOut         EntryType = "ADJUST_OUT"
	EntryTransfer          EntryType = "TRANSFER"
	EntryMove              EntryType = "MOVE"
	EntryConsume           EntryType = "CONSUME"
	EntryProduce           EntryType = "PRODUCE"
	EntryCycleCount        EntryType = "CYCLE_COUNT"
	EntryPhysicalInventory EntryType = "PHYSICAL_INVENTORY"
	EntryStatusChange      EntryType = "STATUS_CHANGE"
	EntryScrap             EntryType = "SCRAP"
)

// EntryID identifies a ledger entry
type EntryID string

// NewEntryID creates a new unique ledger entry ID
func NewEntryID() EntryID {
	timestamp := time.Now().UTC().Format("20060102150405")
	return EntryID(fmt.Sprintf("LE-%s-%s", timestamp, uuid.New().String()[:8]))
}

func (id EntryID) String() string {
	return string(id)
}

// TransferID correlates the two ledger entries of one logical transfer
type TransferID string

// NewTransferID creates a new transfer correlation ID
func NewTransferID() TransferID {
	timestamp := time.Now().UTC().Format("20060102150405")
	return TransferID(fmt.Sprintf("TRF-%s-%s", timestamp, uuid.New().String()[:8]))
}

func (id TransferID) String() string {
	return string(id)
}

// LedgerEntry is an immutable fact recording one quantity or status change.
// Entries are write-once; the ledger has no update or delete.
type LedgerEntry struct {
	ID          EntryID   `bson:"_id" json:"id"`
	Type        EntryType `bson:"type" json:"type"`
	RecordID    RecordID  `bson:"recordId" json:"recordId"`
	SKU         string    `bson:"sku" json:"sku"`
	WarehouseID string    `bson:"warehouseId" json:"warehouseId"`

	FromLocationID string `bson:"fromLocationId,omitempty" json:"fromLocationId,omitempty"`
	ToLocationID   string `bson:"toLocationId,omitempty" json:"toLocationId,omitempty"`
	LotNumber      string `bson:"lotNumber,omitempty" json:"lotNumber,omitempty"`

	Quantity       int `bson:"quantity" json:"quantity"` // signed delta
	QuantityBefore int `bson:"quantityBefore" json:"quantityBefore"`
	QuantityAfter  int `bson:"quantityAfter" json:"quantityAfter"`

	ReferenceType string `bson:"referenceType" json:"referenceType"`
	ReferenceID   string `bson:"referenceId" json:"referenceId"`

	ActorID   string    `bson:"actorId" json:"actorId"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// NewLedgerEntry builds an entry from the state of a record before and after a change
func NewLedgerEntry(entryType EntryType, record *InventoryRecord, delta, before int, refType, refID, actorID, reason string) (*LedgerEntry, error) {
	if record == nil {
		return nil, errors.New("ledger entry requires a record")
	}
	if actorID == "" {
		actorID = SystemActor
	}
	return &LedgerEntry{
		ID:             NewEntryID(),
		Type:           entryType,
		RecordID:       record.ID,
		SKU:            record.SKU,
		WarehouseID:    record.WarehouseID,
		LotNumber:      record.LotNumber,
		Quantity:       delta,
		QuantityBefore: before,
		QuantityAfter:  before + delta,
		ReferenceType:  refType,
		ReferenceID:    refID,
		ActorID:        actorID,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// AdjustType picks the entry type for a signed adjustment delta
func AdjustType(delta int) EntryType {
	if delta >= 0 {
		return EntryAdjustIn
	}
	return EntryAdjustOut
}

// LedgerFilter narrows a ledger query. Zero values mean no constraint.
type LedgerFilter struct {
	RecordID    RecordID
	SKU         string
	WarehouseID string
	LocationID  string
	Type        EntryType
	ReferenceID string
	From        *time.Time
	To          *time.Time
	Limit       int64
	Offset      int64
}
