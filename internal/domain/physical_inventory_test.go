package domain

import (
	"errors"
	"fmt"
	"testing"
)

func testLocations(n int) []string {
	locs := make([]string, n)
	for i := range locs {
		locs[i] = fmt.Sprintf("A-%03d", i+1)
	}
	return locs
}

func newScheduledPI(t *testing.T, blind bool, locations int) *PhysicalInventory {
	t.Helper()
	pi, err := NewPhysicalInventory("WH-001", []string{"A"}, blind, VarianceThresholds{QuantityThreshold: 5, PercentThreshold: 25}, 50, "user-1")
	if err != nil {
		t.Fatalf("failed to create physical inventory: %v", err)
	}

	locs := testLocations(locations)
	records := make(map[string][]*InventoryRecord)
	for _, loc := range locs {
		rec := NewInventoryRecord("WIDGET-001", "Widget", "WH-001", loc)
		rec.QuantityOnHand = 25
		rec.QuantityAvailable = 25
		records[loc] = []*InventoryRecord{rec}
	}
	if err := pi.GenerateBooks(locs, records); err != nil {
		t.Fatalf("failed to generate books: %v", err)
	}
	return pi
}

func TestPhysicalInventory_GenerateBooks_Partition(t *testing.T) {
	pi := newScheduledPI(t, false, 130)

	if pi.TotalBooks != 3 {
		t.Fatalf("expected 3 books, got %d", pi.TotalBooks)
	}
	sizes := []int{len(pi.Books[0].LocationIDs), len(pi.Books[1].LocationIDs), len(pi.Books[2].LocationIDs)}
	if sizes[0] != 50 || sizes[1] != 50 || sizes[2] != 30 {
		t.Errorf("expected book sizes [50 50 30], got %v", sizes)
	}
	if pi.TotalLocations != 130 {
		t.Errorf("expected 130 total locations, got %d", pi.TotalLocations)
	}
	if pi.Status != PIScheduled {
		t.Errorf("expected SCHEDULED, got %s", pi.Status)
	}
}

func TestPhysicalInventory_GenerateBooks_NoLocations(t *testing.T) {
	pi, err := NewPhysicalInventory("WH-001", []string{"A"}, false, VarianceThresholds{}, 50, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = pi.GenerateBooks(nil, nil)
	if !errors.Is(err, ErrNoLocations) {
		t.Errorf("expected ErrNoLocations, got %v", err)
	}
	if pi.Status != PISetup {
		t.Errorf("failed generation moved status to %s", pi.Status)
	}
}

func TestPhysicalInventory_GenerateBooks_PlaceholderLine(t *testing.T) {
	pi, err := NewPhysicalInventory("WH-001", []string{"A"}, false, VarianceThresholds{}, 10, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pi.GenerateBooks([]string{"A-001"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := &pi.Books[0].Lines[0]
	if line.SKU != "" {
		t.Errorf("placeholder line should have no sku, got %s", line.SKU)
	}
	if line.ExpectedQuantity == nil || *line.ExpectedQuantity != 0 {
		t.Errorf("placeholder line should expect 0")
	}
}

func TestPhysicalInventory_BlindCountConcealment(t *testing.T) {
	pi := newScheduledPI(t, true, 10)
	for _, line := range pi.Books[0].Lines {
		if line.ExpectedQuantity != nil {
			t.Fatalf("blind count line exposes expected quantity %d", *line.ExpectedQuantity)
		}
		if line.SystemQuantity != 25 {
			t.Errorf("system snapshot missing on blind line, got %d", line.SystemQuantity)
		}
	}
}

func TestPhysicalInventory_BookLifecycle(t *testing.T) {
	pi := newScheduledPI(t, false, 10)
	book := &pi.Books[0]

	if err := pi.StartBook(book.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition starting unassigned book, got %v", err)
	}
	if err := pi.AssignBook(book.ID, "counter-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pi.StartBook(book.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pi.Status != PIInProgress {
		t.Errorf("first started book should flip session to IN_PROGRESS, got %s", pi.Status)
	}

	err := pi.CompleteBook(book.ID)
	var uncounted *UncountedLinesError
	if !errors.As(err, &uncounted) {
		t.Fatalf("expected UncountedLinesError, got %v", err)
	}
	if uncounted.UncountedCount != len(book.Lines) {
		t.Errorf("expected %d uncounted, got %d", len(book.Lines), uncounted.UncountedCount)
	}

	for _, line := range book.Lines {
		if _, err := pi.RecordLine(book.ID, line.ID, 25, "counter-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := pi.CompleteBook(book.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Status != BookCompleted {
		t.Errorf("expected COMPLETED, got %s", book.Status)
	}
}

func TestPhysicalInventory_RecountPreservesOriginal(t *testing.T) {
	pi := newScheduledPI(t, false, 10)
	book := &pi.Books[0]
	if err := pi.AssignBook(book.ID, "counter-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pi.StartBook(book.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lineID := book.Lines[0].ID
	if _, err := pi.RecountLine(book.ID, lineID, 20, "counter-2"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition recounting uncounted line, got %v", err)
	}

	if _, err := pi.RecordLine(book.ID, lineID, 18, "counter-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line, err := pi.RecountLine(book.ID, lineID, 23, "counter-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if line.CountedQuantity == nil || *line.CountedQuantity != 18 {
		t.Errorf("original count lost after recount")
	}
	if line.RecountQuantity == nil || *line.RecountQuantity != 23 {
		t.Errorf("recount quantity not stored")
	}
	if got := line.EffectiveCount(); got == nil || *got != 23 {
		t.Errorf("effective count should prefer recount")
	}
	if line.Variance.Variance != -2 {
		t.Errorf("variance should follow recount: expected -2, got %d", line.Variance.Variance)
	}
}

func TestPhysicalInventory_CompleteBookBlockedUntilRecount(t *testing.T) {
	pi := newScheduledPI(t, false, 10)
	book := &pi.Books[0]
	if err := pi.AssignBook(book.ID, "counter-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pi.StartBook(book.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// one big miss against a system 25, the rest exact
	for i, line := range book.Lines {
		qty := 25
		if i == 0 {
			qty = 10
		}
		if _, err := pi.RecordLine(book.ID, line.ID, qty, "counter-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	err := pi.CompleteBook(book.ID)
	var recountErr *RecountPendingError
	if !errors.As(err, &recountErr) {
		t.Fatalf("expected RecountPendingError, got %v", err)
	}
	if recountErr.RecountCount != 1 {
		t.Errorf("expected 1 line pending recount, got %d", recountErr.RecountCount)
	}
	if book.Status != BookInProgress {
		t.Errorf("failed completion changed book status to %s", book.Status)
	}

	if _, err := pi.RecountLine(book.ID, book.Lines[0].ID, 10, "counter-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pi.CompleteBook(book.ID); err != nil {
		t.Fatalf("complete after recount failed: %v", err)
	}
	if book.Status != BookCompleted {
		t.Errorf("expected COMPLETED, got %s", book.Status)
	}
}

func TestPhysicalInventory_CompleteGate(t *testing.T) {
	pi := newScheduledPI(t, false, 60)

	err := pi.CheckComplete()
	var incomplete *IncompleteBooksError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteBooksError, got %v", err)
	}
	if incomplete.IncompleteCount != 2 {
		t.Errorf("expected 2 incomplete books, got %d", incomplete.IncompleteCount)
	}

	for i := range pi.Books {
		book := &pi.Books[i]
		if err := pi.AssignBook(book.ID, "counter-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := pi.StartBook(book.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, line := range book.Lines {
			if _, err := pi.RecordLine(book.ID, line.ID, 20, "counter-1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if err := pi.CompleteBook(book.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := pi.MarkCompleted(60, -30000, "supervisor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pi.Status != PICompleted {
		t.Errorf("expected COMPLETED, got %s", pi.Status)
	}
	if pi.AdjustmentsPosted != 60 {
		t.Errorf("expected 60 adjustments recorded, got %d", pi.AdjustmentsPosted)
	}
	if err := pi.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected cancel blocked after completion, got %v", err)
	}
}

func TestPhysicalInventory_Summary(t *testing.T) {
	pi := newScheduledPI(t, false, 10)
	pi.Thresholds.UnitCostCents = 100
	book := &pi.Books[0]
	if err := pi.AssignBook(book.ID, "counter-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pi.StartBook(book.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// system quantity is 25 per line
	counts := []int{25, 20, 30, 25, 25, 25, 25, 25, 25, 25}
	for i, line := range book.Lines {
		if _, err := pi.RecordLine(book.ID, line.ID, counts[i], "counter-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	s := pi.Summary()
	if s.PositiveUnits != 5 || s.NegativeUnits != 5 {
		t.Errorf("expected 5/5 units, got +%d -%d", s.PositiveUnits, s.NegativeUnits)
	}
	if s.NetVariance != 0 {
		t.Errorf("expected net 0, got %d", s.NetVariance)
	}
	if s.LinesWithVariance != 2 {
		t.Errorf("expected 2 variance lines, got %d", s.LinesWithVariance)
	}
	if s.TotalValueVariance != 0 {
		t.Errorf("expected value variance 0, got %d", s.TotalValueVariance)
	}
}
