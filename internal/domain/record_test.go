package domain

import (
	"errors"
	"testing"
)

func newTestRecord(onHand, allocated int) *InventoryRecord {
	rec := NewInventoryRecord("WIDGET-001", "Widget", "WH-001", "A-01-01")
	rec.QuantityOnHand = onHand
	rec.QuantityAllocated = allocated
	rec.QuantityAvailable = onHand - allocated
	return rec
}

func TestInventoryRecord_SetQuantities(t *testing.T) {
	tests := []struct {
		name        string
		onHand      int
		allocated   int
		available   int
		expectError bool
	}{
		{name: "balanced triple", onHand: 100, allocated: 30, available: 70},
		{name: "all zero", onHand: 0, allocated: 0, available: 0},
		{name: "unbalanced triple", onHand: 100, allocated: 30, available: 60, expectError: true},
		{name: "negative on-hand", onHand: -1, allocated: 0, available: -1, expectError: true},
		{name: "negative allocated", onHand: 10, allocated: -5, available: 15, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestRecord(0, 0)
			err := rec.SetQuantities(tt.onHand, tt.allocated, tt.available)

			if tt.expectError {
				if !errors.Is(err, ErrInvalidQuantity) {
					t.Errorf("expected ErrInvalidQuantity, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := rec.CheckInvariant(); err != nil {
				t.Errorf("invariant violated after SetQuantities: %v", err)
			}
		})
	}
}

func TestInventoryRecord_ApplyDelta(t *testing.T) {
	tests := []struct {
		name           string
		onHand         int
		allocated      int
		delta          int
		expectError    error
		expectedOnHand int
		expectedAvail  int
	}{
		{name: "positive delta", onHand: 50, allocated: 10, delta: 25, expectedOnHand: 75, expectedAvail: 65},
		{name: "negative delta within available", onHand: 50, allocated: 10, delta: -30, expectedOnHand: 20, expectedAvail: 10},
		{name: "delta to exactly allocated floor", onHand: 50, allocated: 10, delta: -40, expectedOnHand: 10, expectedAvail: 0},
		{name: "delta below zero rejected", onHand: 50, allocated: 0, delta: -51, expectError: ErrNegativeInventory},
		{name: "delta eating allocation rejected", onHand: 50, allocated: 10, delta: -45, expectError: ErrNegativeInventory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestRecord(tt.onHand, tt.allocated)
			err := rec.ApplyDelta(tt.delta)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				if rec.QuantityOnHand != tt.onHand {
					t.Errorf("failed delta mutated on-hand: %d", rec.QuantityOnHand)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.QuantityOnHand != tt.expectedOnHand {
				t.Errorf("expected on-hand %d, got %d", tt.expectedOnHand, rec.QuantityOnHand)
			}
			if rec.QuantityAvailable != tt.expectedAvail {
				t.Errorf("expected available %d, got %d", tt.expectedAvail, rec.QuantityAvailable)
			}
			if err := rec.CheckInvariant(); err != nil {
				t.Errorf("invariant violated after delta: %v", err)
			}
		})
	}
}

func TestInventoryRecord_Relocate(t *testing.T) {
	rec := newTestRecord(40, 0)
	if err := rec.Relocate("B-02-03", "B"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.LocationID != "B-02-03" || rec.Zone != "B" {
		t.Errorf("relocation did not apply: %s / %s", rec.LocationID, rec.Zone)
	}

	allocated := newTestRecord(40, 5)
	err := allocated.Relocate("B-02-03", "B")
	if !errors.Is(err, ErrHasAllocation) {
		t.Errorf("expected ErrHasAllocation, got %v", err)
	}
	if allocated.LocationID != "A-01-01" {
		t.Errorf("blocked move changed location to %s", allocated.LocationID)
	}
}

func TestInventoryRecord_SetStatus(t *testing.T) {
	rec := newTestRecord(10, 0)
	if err := rec.SetStatus(StatusQCHold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != StatusQCHold {
		t.Errorf("expected QC_HOLD, got %s", rec.Status)
	}
	if err := rec.SetStatus("BROKEN"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestInventoryRecord_IsLowStock(t *testing.T) {
	rec := newTestRecord(10, 4)
	rec.ReorderPoint = 6
	if !rec.IsLowStock() {
		t.Errorf("expected low stock at available=%d reorder=%d", rec.QuantityAvailable, rec.ReorderPoint)
	}
	rec.ReorderPoint = 5
	if rec.IsLowStock() {
		t.Errorf("did not expect low stock at available=%d reorder=%d", rec.QuantityAvailable, rec.ReorderPoint)
	}
	rec.ReorderPoint = 0
	if rec.IsLowStock() {
		t.Errorf("zero reorder point should never alert")
	}
}
