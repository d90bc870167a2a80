package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
)

func TestOperatorService_Adjust(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 50, 10)

	dto, err := env.operator.Adjust(context.Background(), AdjustCommand{
		RecordID: rec.ID.String(),
		Delta:    25,
		Reason:   "found extra case",
		ActorID:  "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 75, dto.QuantityOnHand)
	assert.Equal(t, 65, dto.QuantityAvailable)
	assert.Equal(t, 10, dto.QuantityAllocated)

	dto, err = env.operator.Adjust(context.Background(), AdjustCommand{
		RecordID: rec.ID.String(),
		Delta:    -30,
		Reason:   "damage writeoff",
		ActorID:  "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 45, dto.QuantityOnHand)

	entries := env.ledger.byRecord(rec.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EntryAdjustIn, entries[0].Type)
	assert.Equal(t, domain.EntryAdjustOut, entries[1].Type)
	assert.Equal(t, "user-1", entries[0].ActorID)

	// ledger completeness: deltas from creation reproduce current on-hand
	sum := 50
	for _, e := range entries {
		sum += e.Quantity
	}
	assert.Equal(t, dto.QuantityOnHand, sum)
}

func TestOperatorService_Adjust_NegativeRejected(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 10, 0)

	_, err := env.operator.Adjust(context.Background(), AdjustCommand{
		RecordID: rec.ID.String(),
		Delta:    -11,
		ActorID:  "user-1",
	})
	require.ErrorIs(t, err, domain.ErrNegativeInventory)

	stored, err := env.records.FindByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.QuantityOnHand)
	assert.Empty(t, env.ledger.byRecord(rec.ID))
	assert.Empty(t, env.box.rows)
}

func TestOperatorService_Adjust_SystemActorFallback(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 10, 0)

	_, err := env.operator.Adjust(context.Background(), AdjustCommand{
		RecordID: rec.ID.String(),
		Delta:    5,
	})
	require.NoError(t, err)

	entries := env.ledger.byRecord(rec.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SystemActor, entries[0].ActorID)
}

func TestOperatorService_Transfer(t *testing.T) {
	env := newTestEnv()
	from := seedRecord(env, "WIDGET-001", "A-01-01", 50, 10)

	result, err := env.operator.Transfer(context.Background(), TransferCommand{
		FromRecordID: from.ID.String(),
		ToLocationID: "B-02-02",
		ToZone:       "B",
		Quantity:     15,
		ActorID:      "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 35, result.From.QuantityOnHand)
	assert.Equal(t, 15, result.To.QuantityOnHand)
	assert.Equal(t, "B-02-02", result.To.LocationID)
	assert.Equal(t, "WIDGET-001", result.To.SKU)

	// both sides share the correlating reference
	entries, err := env.ledger.Query(context.Background(), domain.LedgerFilter{ReferenceID: result.TransferID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, -15+15, entries[0].Quantity+entries[1].Quantity)
	for _, e := range entries {
		assert.Equal(t, domain.EntryTransfer, e.Type)
		assert.Equal(t, "A-01-01", e.FromLocationID)
		assert.Equal(t, "B-02-02", e.ToLocationID)
	}
}

func TestOperatorService_Transfer_LicensePlateMerges(t *testing.T) {
	env := newTestEnv()
	from := seedRecord(env, "WIDGET-001", "A-01-01", 50, 0)
	from.LicensePlate = "LP-0001"
	env.records.seed(from)

	ctx := context.Background()
	first, err := env.operator.Transfer(ctx, TransferCommand{
		FromRecordID: from.ID.String(),
		ToLocationID: "B-02-02",
		Quantity:     10,
		ActorID:      "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "LP-0001", first.To.LicensePlate)

	// the second transfer lands on the record the first one created
	second, err := env.operator.Transfer(ctx, TransferCommand{
		FromRecordID: from.ID.String(),
		ToLocationID: "B-02-02",
		Quantity:     10,
		ActorID:      "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, first.To.ID, second.To.ID)
	assert.Equal(t, 20, second.To.QuantityOnHand)

	dest, err := env.records.FindByLocation(ctx, "WH-001", "B-02-02")
	require.NoError(t, err)
	require.Len(t, dest, 1)
	assert.Equal(t, "LP-0001", dest[0].LicensePlate)
	assert.Equal(t, 20, dest[0].QuantityOnHand)
}

func TestOperatorService_Transfer_Insufficient(t *testing.T) {
	env := newTestEnv()
	from := seedRecord(env, "WIDGET-001", "A-01-01", 50, 45)

	_, err := env.operator.Transfer(context.Background(), TransferCommand{
		FromRecordID: from.ID.String(),
		ToLocationID: "B-02-02",
		Quantity:     10,
		ActorID:      "user-1",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientAvailable)

	stored, _ := env.records.FindByID(context.Background(), from.ID)
	assert.Equal(t, 50, stored.QuantityOnHand)
	assert.Empty(t, env.ledger.entries)
}

func TestOperatorService_Transfer_Atomicity(t *testing.T) {
	env := newTestEnv()
	from := seedRecord(env, "WIDGET-001", "A-01-01", 50, 0)

	// destination save is the second write in the transaction
	env.records.failSaveAfter = 2

	_, err := env.operator.Transfer(context.Background(), TransferCommand{
		FromRecordID: from.ID.String(),
		ToLocationID: "B-02-02",
		Quantity:     15,
		ActorID:      "user-1",
	})
	require.Error(t, err)

	env.records.failSaveAfter = 0
	stored, findErr := env.records.FindByID(context.Background(), from.ID)
	require.NoError(t, findErr)
	assert.Equal(t, 50, stored.QuantityOnHand, "source must be untouched after failed transfer")
	assert.Empty(t, env.ledger.entries, "no ledger entries may survive a failed transfer")
	assert.Len(t, env.records.records, 1, "destination record must not be created")
}

func TestOperatorService_Move(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 40, 0)
	rec.LicensePlate = "LP-000123"
	env.records.seed(rec)

	dto, err := env.operator.Move(context.Background(), MoveCommand{
		RecordID:     rec.ID.String(),
		ToLocationID: "C-03-03",
		ToZone:       "C",
		ActorID:      "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "C-03-03", dto.LocationID)
	assert.Equal(t, 40, dto.QuantityOnHand)

	entries := env.ledger.byRecord(rec.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryMove, entries[0].Type)
	assert.Equal(t, 0, entries[0].Quantity)
	assert.Equal(t, "A-01-01", entries[0].FromLocationID)
	assert.Equal(t, "C-03-03", entries[0].ToLocationID)
}

func TestOperatorService_Move_BlockedByAllocation(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 40, 5)

	_, err := env.operator.Move(context.Background(), MoveCommand{
		RecordID:     rec.ID.String(),
		ToLocationID: "C-03-03",
		ActorID:      "user-1",
	})
	require.ErrorIs(t, err, domain.ErrHasAllocation)

	stored, _ := env.records.FindByID(context.Background(), rec.ID)
	assert.Equal(t, "A-01-01", stored.LocationID)
	assert.Empty(t, env.ledger.entries)
}

func TestOperatorService_SetStatus(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 40, 0)

	dto, err := env.operator.SetStatus(context.Background(), SetStatusCommand{
		RecordID: rec.ID.String(),
		Status:   "QC_HOLD",
		Reason:   "random inspection",
		ActorID:  "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "QC_HOLD", dto.Status)
	assert.Equal(t, 40, dto.QuantityOnHand)

	entries := env.ledger.byRecord(rec.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryStatusChange, entries[0].Type)
	assert.Equal(t, 0, entries[0].Quantity)

	_, err = env.operator.SetStatus(context.Background(), SetStatusCommand{
		RecordID: rec.ID.String(),
		Status:   "NOT_A_STATUS",
		ActorID:  "user-1",
	})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestOperatorService_Receive(t *testing.T) {
	env := newTestEnv()

	dto, err := env.operator.Receive(context.Background(), ReceiveCommand{
		WarehouseID:   "WH-001",
		SKU:           "GADGET-002",
		ProductName:   "Gadget",
		LocationID:    "R-01-01",
		Zone:          "R",
		LotNumber:     "LOT-7",
		Quantity:      100,
		UnitCostCents: 250,
		ReferenceID:   "PO-1001",
		ActorID:       "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 100, dto.QuantityOnHand)
	assert.Equal(t, "LOT-7", dto.LotNumber)

	// second receipt against the same position lands on the same record
	dto2, err := env.operator.Receive(context.Background(), ReceiveCommand{
		WarehouseID: "WH-001",
		SKU:         "GADGET-002",
		ProductName: "Gadget",
		LocationID:  "R-01-01",
		LotNumber:   "LOT-7",
		Quantity:    50,
		ReferenceID: "PO-1002",
		ActorID:     "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, dto.ID, dto2.ID)
	assert.Equal(t, 150, dto2.QuantityOnHand)

	entries := env.ledger.byRecord(domain.RecordID(dto.ID))
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EntryReceive, entries[0].Type)
	assert.Equal(t, "PO-1001", entries[0].ReferenceID)

	// a different lot at the same location is its own record
	dto3, err := env.operator.Receive(context.Background(), ReceiveCommand{
		WarehouseID: "WH-001",
		SKU:         "GADGET-002",
		ProductName: "Gadget",
		LocationID:  "R-01-01",
		LotNumber:   "LOT-8",
		Quantity:    10,
		ActorID:     "user-1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, dto.ID, dto3.ID)
}

func TestOperatorService_LowStockEvent(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 20, 0)
	rec.ReorderPoint = 10
	env.records.seed(rec)

	_, err := env.operator.Adjust(context.Background(), AdjustCommand{
		RecordID: rec.ID.String(),
		Delta:    -12,
		ActorID:  "user-1",
	})
	require.NoError(t, err)

	types := env.box.eventTypes()
	assert.Contains(t, types, "wms.inventory.adjusted")
	assert.Contains(t, types, "wms.inventory.low-stock-alert")
}

func TestOperatorService_AdjustRecordNotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.operator.Adjust(context.Background(), AdjustCommand{
		RecordID: "INV-missing",
		Delta:    1,
		ActorID:  "user-1",
	})
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))
}
