package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
)

func createPI(t *testing.T, svc *PhysicalInventoryService, blind bool, perBook int) *PhysicalInventoryDTO {
	t.Helper()
	dto, err := svc.Create(context.Background(), CreatePhysicalInventoryCommand{
		WarehouseID:      "WH-001",
		Zones:            []string{"A"},
		BlindCount:       blind,
		Thresholds:       domain.VarianceThresholds{QuantityThreshold: 5, PercentThreshold: 25},
		LocationsPerBook: perBook,
		ActorID:          "user-1",
	})
	require.NoError(t, err)
	return dto
}

func TestPhysicalInventoryService_GenerateBooks(t *testing.T) {
	env := newTestEnv()
	for i := 1; i <= 5; i++ {
		seedRecord(env, "WIDGET-001", fmt.Sprintf("A-01-%02d", i), 20, 0)
	}
	svc := env.physicalInventoryService()
	ctx := context.Background()

	dto := createPI(t, svc, false, 2)
	generated, err := svc.GenerateBooks(ctx, dto.ID)
	require.NoError(t, err)

	assert.Equal(t, "SCHEDULED", generated.Status)
	assert.Equal(t, 3, generated.TotalBooks)
	assert.Equal(t, 5, generated.TotalLocations)
	require.Len(t, generated.Books, 3)
	assert.Len(t, generated.Books[0].LocationIDs, 2)
	assert.Len(t, generated.Books[1].LocationIDs, 2)
	assert.Len(t, generated.Books[2].LocationIDs, 1)
}

func TestPhysicalInventoryService_GenerateBooks_NoLocations(t *testing.T) {
	env := newTestEnv()
	svc := env.physicalInventoryService()

	dto := createPI(t, svc, false, 2)
	_, err := svc.GenerateBooks(context.Background(), dto.ID)
	require.ErrorIs(t, err, domain.ErrNoLocations)
}

func TestPhysicalInventoryService_BlindCountConcealsExpected(t *testing.T) {
	env := newTestEnv()
	seedRecord(env, "WIDGET-001", "A-01-01", 20, 0)
	svc := env.physicalInventoryService()

	dto := createPI(t, svc, true, 10)
	generated, err := svc.GenerateBooks(context.Background(), dto.ID)
	require.NoError(t, err)

	for _, line := range generated.Books[0].Lines {
		assert.Nil(t, line.ExpectedQuantity)
	}
}

// runs one book through assign, start, count and complete
func countBook(t *testing.T, svc *PhysicalInventoryService, piID string, book CountBookDTO, countFor func(line CountBookLineDTO) int) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.AssignBook(ctx, AssignBookCommand{PIID: piID, BookID: book.ID, AssignedTo: "counter-1"})
	require.NoError(t, err)
	_, err = svc.StartBook(ctx, piID, book.ID)
	require.NoError(t, err)
	for _, line := range book.Lines {
		_, err = svc.RecordLine(ctx, RecordBookLineCommand{
			PIID:     piID,
			BookID:   book.ID,
			LineID:   line.ID,
			Quantity: countFor(line),
			ActorID:  "counter-1",
		})
		require.NoError(t, err)
	}
	_, err = svc.CompleteBook(ctx, piID, book.ID)
	require.NoError(t, err)
}

func TestPhysicalInventoryService_CompletePostsAdjustments(t *testing.T) {
	env := newTestEnv()
	short := seedRecord(env, "WIDGET-001", "A-01-01", 20, 0)
	short.UnitCostCents = 500
	env.records.seed(short)
	clean := seedRecord(env, "GADGET-002", "A-01-02", 30, 0)
	svc := env.physicalInventoryService()
	ctx := context.Background()

	dto := createPI(t, svc, false, 10)
	generated, err := svc.GenerateBooks(ctx, dto.ID)
	require.NoError(t, err)
	require.Len(t, generated.Books, 1)

	countBook(t, svc, dto.ID, generated.Books[0], func(line CountBookLineDTO) int {
		if line.SKU == "WIDGET-001" {
			return 17 // three units short
		}
		return 30
	})

	report, err := svc.VarianceReport(ctx, dto.ID)
	require.NoError(t, err)
	require.Len(t, report.Lines, 1)
	assert.Equal(t, -3, report.Lines[0].Line.Variance.Variance)
	assert.Equal(t, 3, report.Summary.NegativeUnits)

	completed, err := svc.Complete(ctx, CompletePhysicalInventoryCommand{
		PIID:            dto.ID,
		PostAdjustments: true,
		ActorID:         "supervisor-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", completed.Status)
	assert.Equal(t, 1, completed.AdjustmentsPosted)
	assert.Equal(t, int64(-1500), completed.TotalAdjustmentValueCents)

	stored, _ := env.records.FindByID(ctx, short.ID)
	assert.Equal(t, 17, stored.QuantityOnHand)
	assert.NotNil(t, stored.LastCountDate)

	entries := env.ledger.byRecord(short.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryPhysicalInventory, entries[0].Type)
	assert.Equal(t, -3, entries[0].Quantity)

	assert.Empty(t, env.ledger.byRecord(clean.ID))
	assert.Contains(t, env.box.eventTypes(), "wms.inventory.count-completed")
}

func TestPhysicalInventoryService_CompleteGate(t *testing.T) {
	env := newTestEnv()
	seedRecord(env, "WIDGET-001", "A-01-01", 20, 0)
	seedRecord(env, "GADGET-002", "A-02-01", 30, 0)
	svc := env.physicalInventoryService()
	ctx := context.Background()

	dto := createPI(t, svc, false, 1)
	generated, err := svc.GenerateBooks(ctx, dto.ID)
	require.NoError(t, err)
	require.Len(t, generated.Books, 2)

	countBook(t, svc, dto.ID, generated.Books[0], func(line CountBookLineDTO) int {
		return 20
	})

	_, err = svc.Complete(ctx, CompletePhysicalInventoryCommand{PIID: dto.ID, PostAdjustments: true, ActorID: "supervisor-1"})
	var incomplete *domain.IncompleteBooksError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, 1, incomplete.IncompleteCount)
	assert.Empty(t, env.ledger.entries)
}

func TestPhysicalInventoryService_CompleteWithoutPosting(t *testing.T) {
	env := newTestEnv()
	rec := seedRecord(env, "WIDGET-001", "A-01-01", 20, 0)
	svc := env.physicalInventoryService()
	ctx := context.Background()

	dto := createPI(t, svc, false, 10)
	generated, err := svc.GenerateBooks(ctx, dto.ID)
	require.NoError(t, err)

	countBook(t, svc, dto.ID, generated.Books[0], func(line CountBookLineDTO) int {
		return 15
	})

	completed, err := svc.Complete(ctx, CompletePhysicalInventoryCommand{PIID: dto.ID, PostAdjustments: false, ActorID: "supervisor-1"})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", completed.Status)
	assert.Equal(t, 0, completed.AdjustmentsPosted)

	stored, _ := env.records.FindByID(ctx, rec.ID)
	assert.Equal(t, 20, stored.QuantityOnHand)
	assert.Empty(t, env.ledger.entries)
}

func TestPhysicalInventoryService_RecountKeepsOriginal(t *testing.T) {
	env := newTestEnv()
	seedRecord(env, "WIDGET-001", "A-01-01", 20, 0)
	svc := env.physicalInventoryService()
	ctx := context.Background()

	dto := createPI(t, svc, false, 10)
	generated, err := svc.GenerateBooks(ctx, dto.ID)
	require.NoError(t, err)
	book := generated.Books[0]

	_, err = svc.AssignBook(ctx, AssignBookCommand{PIID: dto.ID, BookID: book.ID, AssignedTo: "counter-1"})
	require.NoError(t, err)
	_, err = svc.StartBook(ctx, dto.ID, book.ID)
	require.NoError(t, err)

	lineID := book.Lines[0].ID
	_, err = svc.RecordLine(ctx, RecordBookLineCommand{PIID: dto.ID, BookID: book.ID, LineID: lineID, Quantity: 15, ActorID: "counter-1"})
	require.NoError(t, err)
	after, err := svc.RecordLine(ctx, RecordBookLineCommand{PIID: dto.ID, BookID: book.ID, LineID: lineID, Quantity: 19, Recount: true, ActorID: "counter-2"})
	require.NoError(t, err)

	line := after.Books[0].Lines[0]
	require.NotNil(t, line.CountedQuantity)
	require.NotNil(t, line.RecountQuantity)
	assert.Equal(t, 15, *line.CountedQuantity)
	assert.Equal(t, 19, *line.RecountQuantity)
	assert.Equal(t, -1, line.Variance.Variance)
}

func TestPhysicalInventoryService_Cancel(t *testing.T) {
	env := newTestEnv()
	seedRecord(env, "WIDGET-001", "A-01-01", 20, 0)
	svc := env.physicalInventoryService()
	ctx := context.Background()

	dto := createPI(t, svc, false, 10)
	cancelled, err := svc.Cancel(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	_, err = svc.Cancel(ctx, dto.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}
