package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
)

func createCountForRecords(t *testing.T, svc *CycleCountService, locations ...string) *CycleCountDTO {
	t.Helper()
	dto, err := svc.Create(context.Background(), CreateCycleCountCommand{
		WarehouseID: "WH-001",
		CountType:   "AD_HOC",
		Scope:       domain.ScopeSelector{Kind: domain.ScopeByLocations, LocationIDs: locations},
		Thresholds:  domain.VarianceThresholds{QuantityThreshold: 5, PercentThreshold: 25},
		ActorID:     "user-1",
	})
	require.NoError(t, err)
	return dto
}

func lineForLocation(t *testing.T, dto *CycleCountDTO, location string) CycleCountLineDTO {
	t.Helper()
	for _, line := range dto.Lines {
		if line.LocationID == location {
			return line
		}
	}
	t.Fatalf("no line for location %s", location)
	return CycleCountLineDTO{}
}

func TestCycleCountService_Create(t *testing.T) {
	env := newTestEnv()
	seedRecord(env, "WIDGET-001", "A-01-01", 50, 0)
	seedRecord(env, "GADGET-002", "A-01-02", 10, 0)
	svc := env.cycleCountService()

	dto := createCountForRecords(t, svc, "A-01-01", "A-01-02")
	assert.Equal(t, "NEW", dto.Status)
	assert.Len(t, dto.Lines, 2)
	assert.Equal(t, 2, dto.TotalLocations)
	assert.Equal(t, 50, lineForLocation(t, dto, "A-01-01").SystemQuantity)

	// creation event lands in the outbox
	assert.Contains(t, env.box.eventTypes(), "wms.inventory.count-created")
}

func TestCycleCountService_Create_EmptyScope(t *testing.T) {
	env := newTestEnv()
	svc := env.cycleCountService()

	_, err := svc.Create(context.Background(), CreateCycleCountCommand{
		WarehouseID: "WH-001",
		CountType:   "AD_HOC",
		Scope:       domain.ScopeSelector{Kind: domain.ScopeByLocations, LocationIDs: []string{"Z-99-99"}},
		ActorID:     "user-1",
	})
	require.ErrorIs(t, err, domain.ErrEmptyScope)
}

func TestCycleCountService_ApprovePostsVariances(t *testing.T) {
	env := newTestEnv()
	widget := seedRecord(env, "WIDGET-001", "A-01-01", 50, 0)
	gadget := seedRecord(env, "GADGET-002", "A-01-02", 10, 0)
	svc := env.cycleCountService()
	ctx := context.Background()

	dto := createCountForRecords(t, svc, "A-01-01", "A-01-02")
	_, err := svc.Start(ctx, dto.ID)
	require.NoError(t, err)

	_, err = svc.RecordCount(ctx, RecordCountCommand{
		CountID:         dto.ID,
		LineID:          lineForLocation(t, dto, "A-01-01").ID,
		CountedQuantity: 45,
		ActorID:         "counter-1",
	})
	require.NoError(t, err)
	_, err = svc.RecordCount(ctx, RecordCountCommand{
		CountID:         dto.ID,
		LineID:          lineForLocation(t, dto, "A-01-02").ID,
		CountedQuantity: 10,
		ActorID:         "counter-1",
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, dto.ID)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, ApproveCycleCountCommand{CountID: dto.ID, ActorID: "supervisor-1"})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", approved.Status)

	// exactly one adjustment of -5 for the short line, none for the clean one
	widgetEntries := env.ledger.byRecord(widget.ID)
	require.Len(t, widgetEntries, 1)
	assert.Equal(t, domain.EntryCycleCount, widgetEntries[0].Type)
	assert.Equal(t, -5, widgetEntries[0].Quantity)
	assert.Equal(t, dto.ID, widgetEntries[0].ReferenceID)
	assert.Empty(t, env.ledger.byRecord(gadget.ID))

	stored, _ := env.records.FindByID(ctx, widget.ID)
	assert.Equal(t, 45, stored.QuantityOnHand)
	assert.NotNil(t, stored.LastCountDate)

	clean, _ := env.records.FindByID(ctx, gadget.ID)
	assert.Equal(t, 10, clean.QuantityOnHand)
	assert.Nil(t, clean.LastCountDate)

	assert.Contains(t, env.box.eventTypes(), "wms.inventory.count-completed")
}

func TestCycleCountService_SubmitGate(t *testing.T) {
	env := newTestEnv()
	seedRecord(env, "WIDGET-001", "A-01-01", 50, 0)
	seedRecord(env, "GADGET-002", "A-01-02", 10, 0)
	svc := env.cycleCountService()
	ctx := context.Background()

	dto := createCountForRecords(t, svc, "A-01-01", "A-01-02")
	_, err := svc.Start(ctx, dto.ID)
	require.NoError(t, err)
	_, err = svc.RecordCount(ctx, RecordCountCommand{
		CountID:         dto.ID,
		LineID:          dto.Lines[0].ID,
		CountedQuantity: 50,
		ActorID:         "counter-1",
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, dto.ID)
	var pending *domain.LinesPendingError
	require.True(t, errors.As(err, &pending))
	assert.Equal(t, 1, pending.PendingCount)

	current, err := svc.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", current.Status)
}

func TestCycleCountService_SubmitRequiresRecountOverThreshold(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 100, 0)
	svc := env.cycleCountService()
	ctx := context.Background()

	dto := createCountForRecords(t, svc, "A-01-01")
	_, err := svc.Start(ctx, dto.ID)
	require.NoError(t, err)

	lineID := dto.Lines[0].ID
	_, err = svc.RecordCount(ctx, RecordCountCommand{CountID: dto.ID, LineID: lineID, CountedQuantity: 60, ActorID: "counter-1"})
	require.NoError(t, err)

	// 40% short trips the threshold, so the single count cannot be submitted
	_, err = svc.Submit(ctx, dto.ID)
	var recountErr *domain.RecountPendingError
	require.True(t, errors.As(err, &recountErr))
	assert.Equal(t, 1, recountErr.RecountCount)

	current, err := svc.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", current.Status)
	stored, _ := env.records.FindByID(ctx, rec.ID)
	assert.Equal(t, 100, stored.QuantityOnHand)

	// the confirming recount unblocks submission and approval
	_, err = svc.RecountLine(ctx, dto.ID, lineID)
	require.NoError(t, err)
	_, err = svc.RecordCount(ctx, RecordCountCommand{CountID: dto.ID, LineID: lineID, CountedQuantity: 60, ActorID: "counter-2"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, dto.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, ApproveCycleCountCommand{CountID: dto.ID, ActorID: "supervisor-1"})
	require.NoError(t, err)

	stored, _ = env.records.FindByID(ctx, rec.ID)
	assert.Equal(t, 60, stored.QuantityOnHand)
}

func TestCycleCountService_ApproveBatchRollsBack(t *testing.T) {
	env := newTestEnv()
	// second line's record has an allocation floor the counted quantity violates
	good := seedRecord(env, "WIDGET-001", "A-01-01", 50, 0)
	bad := seedRecord(env, "GADGET-002", "A-01-02", 30, 20)
	svc := env.cycleCountService()
	ctx := context.Background()

	dto := createCountForRecords(t, svc, "A-01-01", "A-01-02")
	_, err := svc.Start(ctx, dto.ID)
	require.NoError(t, err)

	_, err = svc.RecordCount(ctx, RecordCountCommand{
		CountID:         dto.ID,
		LineID:          lineForLocation(t, dto, "A-01-01").ID,
		CountedQuantity: 40,
		ActorID:         "counter-1",
	})
	require.NoError(t, err)
	_, err = svc.RecordCount(ctx, RecordCountCommand{
		CountID:         dto.ID,
		LineID:          lineForLocation(t, dto, "A-01-02").ID,
		CountedQuantity: 5,
		ActorID:         "counter-1",
	})
	require.NoError(t, err)

	// the big miss trips the threshold; a recount confirms it
	_, err = svc.RecountLine(ctx, dto.ID, lineForLocation(t, dto, "A-01-02").ID)
	require.NoError(t, err)
	_, err = svc.RecordCount(ctx, RecordCountCommand{
		CountID:         dto.ID,
		LineID:          lineForLocation(t, dto, "A-01-02").ID,
		CountedQuantity: 5,
		ActorID:         "counter-2",
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, dto.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, ApproveCycleCountCommand{CountID: dto.ID, ActorID: "supervisor-1"})
	var batchErr *domain.BatchPostError
	require.True(t, errors.As(err, &batchErr))
	assert.True(t, errors.Is(err, domain.ErrNegativeInventory))
	assert.Equal(t, lineForLocation(t, dto, "A-01-02").ID, batchErr.LineID)

	// the whole batch rolled back, including the adjustment that succeeded
	goodStored, _ := env.records.FindByID(ctx, good.ID)
	assert.Equal(t, 50, goodStored.QuantityOnHand)
	badStored, _ := env.records.FindByID(ctx, bad.ID)
	assert.Equal(t, 30, badStored.QuantityOnHand)
	assert.Empty(t, env.ledger.entries)

	current, err := svc.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "COMPLETED", current.Status)
}

func TestCycleCountService_RecountThenApprove(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 50, 0)
	svc := env.cycleCountService()
	ctx := context.Background()

	dto := createCountForRecords(t, svc, "A-01-01")
	_, err := svc.Start(ctx, dto.ID)
	require.NoError(t, err)

	lineID := dto.Lines[0].ID
	_, err = svc.RecordCount(ctx, RecordCountCommand{CountID: dto.ID, LineID: lineID, CountedQuantity: 30, ActorID: "counter-1"})
	require.NoError(t, err)

	// supervisor doubts the count, resets the line
	_, err = svc.RecountLine(ctx, dto.ID, lineID)
	require.NoError(t, err)
	_, err = svc.RecordCount(ctx, RecordCountCommand{CountID: dto.ID, LineID: lineID, CountedQuantity: 48, ActorID: "counter-2"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, dto.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, ApproveCycleCountCommand{CountID: dto.ID, ActorID: "supervisor-1"})
	require.NoError(t, err)

	stored, _ := env.records.FindByID(ctx, rec.ID)
	assert.Equal(t, 48, stored.QuantityOnHand)
}

func TestCycleCountService_Cancel(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 50, 0)
	svc := env.cycleCountService()
	ctx := context.Background()

	dto := createCountForRecords(t, svc, "A-01-01")
	cancelled, err := svc.Cancel(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	// no adjustments were posted
	stored, _ := env.records.FindByID(ctx, rec.ID)
	assert.Equal(t, 50, stored.QuantityOnHand)
	assert.Empty(t, env.ledger.entries)
}
