package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrRecordNotFound        = errors.New("inventory record not found")
	ErrInvalidQuantity       = errors.New("invalid quantity: on-hand, allocated and available must be non-negative and balanced")
	ErrNegativeInventory     = errors.New("adjustment would drive on-hand quantity negative")
	ErrInsufficientAvailable = errors.New("insufficient available quantity")
	ErrHasAllocation         = errors.New("record has allocated quantity and cannot be moved")
	ErrInvalidStatus         = errors.New("invalid inventory status")
	ErrInvalidTransition     = errors.New("invalid state transition")

	ErrEmptyScope    = errors.New("count scope matched no inventory")
	ErrNoLocations   = errors.New("no locations in scope")
	ErrCountNotFound = errors.New("cycle count not found")
	ErrPINotFound    = errors.New("physical inventory not found")
	ErrLineNotFound  = errors.New("count line not found")
	ErrBookNotFound  = errors.New("count book not found")
)

// LinesPendingError reports how many lines block a submit
type LinesPendingError struct {
	PendingCount int
}

func (e *LinesPendingError) Error() string {
	return fmt.Sprintf("cannot submit: %d lines still pending", e.PendingCount)
}

// RecountPendingError reports how many over-threshold lines still need a
// second count before the session can move on
type RecountPendingError struct {
	RecountCount int
}

func (e *RecountPendingError) Error() string {
	return fmt.Sprintf("%d lines over threshold pending recount", e.RecountCount)
}

// UncountedLinesError reports how many lines block a book completion
type UncountedLinesError struct {
	UncountedCount int
}

func (e *UncountedLinesError) Error() string {
	return fmt.Sprintf("cannot complete book: %d lines uncounted", e.UncountedCount)
}

// IncompleteBooksError reports how many books block a PI completion
type IncompleteBooksError struct {
	IncompleteCount int
}

func (e *IncompleteBooksError) Error() string {
	return fmt.Sprintf("cannot complete physical inventory: %d books not completed", e.IncompleteCount)
}

// BatchPostError identifies which line aborted a batch of adjustments
type BatchPostError struct {
	LineID string
	Err    error
}

func (e *BatchPostError) Error() string {
	return fmt.Sprintf("batch posting aborted at line %s: %v", e.LineID, e.Err)
}

func (e *BatchPostError) Unwrap() error {
	return e.Err
}
