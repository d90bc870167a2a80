package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CycleCountStatus is the session state of a cycle count
type CycleCountStatus string

const (
	CycleCountNew             CycleCountStatus = "NEW"
	CycleCountInProgress      CycleCountStatus = "IN_PROGRESS"
	CycleCountPendingApproval CycleCountStatus = "PENDING_APPROVAL"
	CycleCountCompleted       CycleCountStatus = "COMPLETED"
	CycleCountCancelled       CycleCountStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed
func (s CycleCountStatus) IsTerminal() bool {
	return s == CycleCountCompleted || s == CycleCountCancelled
}

// CountLineStatus is the state of a single count line
type CountLineStatus string

const (
	LinePending  CountLineStatus = "PENDING"
	LineCounted  CountLineStatus = "COUNTED"
	LineAdjusted CountLineStatus = "ADJUSTED"
	LineApproved CountLineStatus = "APPROVED"
)

// CycleCountLine snapshots one stocking position at session creation and
// records what the counter observed
type CycleCountLine struct {
	ID              string          `bson:"id" json:"id"`
	RecordID        RecordID        `bson:"recordId" json:"recordId"`
	LocationID      string          `bson:"locationId" json:"locationId"`
	SKU             string          `bson:"sku" json:"sku"`
	LotNumber       string          `bson:"lotNumber,omitempty" json:"lotNumber,omitempty"`
	SystemQuantity  int             `bson:"systemQuantity" json:"systemQuantity"`
	CountedQuantity *int            `bson:"countedQuantity,omitempty" json:"countedQuantity,omitempty"`
	Recounted       bool            `bson:"recounted,omitempty" json:"recounted,omitempty"`
	Variance        VarianceResult  `bson:"variance" json:"variance"`
	Status          CountLineStatus `bson:"status" json:"status"`
	CountedBy       string          `bson:"countedBy,omitempty" json:"countedBy,omitempty"`
	CountedAt       *time.Time      `bson:"countedAt,omitempty" json:"countedAt,omitempty"`
}

// HasVariance reports whether the counted quantity differs from the snapshot
func (l *CycleCountLine) HasVariance() bool {
	return l.Status != LinePending && l.Variance.Variance != 0
}

// CycleCount is a scoped count session reconciling a slice of the warehouse
// against physically observed quantities
type CycleCount struct {
	ID          string             `bson:"_id" json:"id"`
	CountNumber string             `bson:"countNumber" json:"countNumber"`
	WarehouseID string             `bson:"warehouseId" json:"warehouseId"`
	CountType   string             `bson:"countType" json:"countType"`
	Status      CycleCountStatus   `bson:"status" json:"status"`
	Scope       ScopeSelector      `bson:"scope" json:"scope"`
	Thresholds  VarianceThresholds `bson:"thresholds" json:"thresholds"`

	Lines []CycleCountLine `bson:"lines" json:"lines"`

	TotalLocations   int `bson:"totalLocations" json:"totalLocations"`
	CountedLocations int `bson:"countedLocations" json:"countedLocations"`
	Discrepancies    int `bson:"discrepancies" json:"discrepancies"`

	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewCycleCount builds a session from the records its scope matched,
// snapshotting each record's on-hand quantity
func NewCycleCount(warehouseID, countType, createdBy string, scope ScopeSelector, thresholds VarianceThresholds, records []*InventoryRecord) (*CycleCount, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyScope
	}

	now := time.Now().UTC()
	cc := &CycleCount{
		ID:          uuid.New().String(),
		CountNumber: fmt.Sprintf("CC-%s-%s", now.Format("20060102"), uuid.New().String()[:8]),
		WarehouseID: warehouseID,
		CountType:   countType,
		Status:      CycleCountNew,
		Scope:       scope,
		Thresholds:  thresholds,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	locations := make(map[string]struct{})
	for _, rec := range records {
		cc.Lines = append(cc.Lines, CycleCountLine{
			ID:             uuid.New().String(),
			RecordID:       rec.ID,
			LocationID:     rec.LocationID,
			SKU:            rec.SKU,
			LotNumber:      rec.LotNumber,
			SystemQuantity: rec.QuantityOnHand,
			Status:         LinePending,
		})
		locations[rec.LocationID] = struct{}{}
	}
	cc.TotalLocations = len(locations)

	cc.AddDomainEvent(&CycleCountCreatedEvent{
		CountID:     cc.ID,
		CountNumber: cc.CountNumber,
		WarehouseID: warehouseID,
		TotalLines:  len(cc.Lines),
		CreatedAt:   now,
	})
	return cc, nil
}

// Start moves the session to IN_PROGRESS
func (cc *CycleCount) Start() error {
	if cc.Status != CycleCountNew {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	cc.Status = CycleCountInProgress
	cc.StartedAt = &now
	cc.UpdatedAt = now
	return nil
}

// RecordCount stores a counted quantity on a line and evaluates its variance
func (cc *CycleCount) RecordCount(lineID string, countedQty int, countedBy string) (*CycleCountLine, error) {
	if cc.Status != CycleCountInProgress {
		return nil, ErrInvalidTransition
	}
	if countedQty < 0 {
		return nil, ErrInvalidQuantity
	}

	line := cc.findLine(lineID)
	if line == nil {
		return nil, ErrLineNotFound
	}

	now := time.Now().UTC()
	line.CountedQuantity = &countedQty
	line.Variance = EvaluateVariance(line.SystemQuantity, countedQty, cc.Thresholds)
	line.Status = LineCounted
	line.CountedBy = countedBy
	line.CountedAt = &now
	cc.recompute()
	cc.UpdatedAt = now
	return line, nil
}

// RecountLine resets a line to PENDING so it can be counted again. The line
// is marked recounted, which satisfies a mandatory recount once the second
// count lands.
func (cc *CycleCount) RecountLine(lineID string) error {
	if cc.Status != CycleCountInProgress {
		return ErrInvalidTransition
	}
	line := cc.findLine(lineID)
	if line == nil {
		return ErrLineNotFound
	}
	line.CountedQuantity = nil
	line.Variance = VarianceResult{}
	line.Recounted = true
	line.Status = LinePending
	line.CountedBy = ""
	line.CountedAt = nil
	cc.recompute()
	cc.UpdatedAt = time.Now().UTC()
	return nil
}

// Submit moves the session to PENDING_APPROVAL once every line is counted
// and every line whose variance tripped a threshold has been recounted
func (cc *CycleCount) Submit() error {
	if cc.Status != CycleCountInProgress {
		return ErrInvalidTransition
	}
	pending := 0
	recounts := 0
	for i := range cc.Lines {
		line := &cc.Lines[i]
		if line.Status == LinePending {
			pending++
			continue
		}
		if line.Variance.RecountRequired && !line.Recounted {
			recounts++
		}
	}
	if pending > 0 {
		return &LinesPendingError{PendingCount: pending}
	}
	if recounts > 0 {
		return &RecountPendingError{RecountCount: recounts}
	}
	cc.Status = CycleCountPendingApproval
	cc.UpdatedAt = time.Now().UTC()
	return nil
}

// LinesToPost returns the lines approval must adjust. With adjustAll false
// only lines with non-zero variance are posted.
func (cc *CycleCount) LinesToPost(adjustAll bool) ([]*CycleCountLine, error) {
	if cc.Status != CycleCountPendingApproval {
		return nil, ErrInvalidTransition
	}
	var lines []*CycleCountLine
	for i := range cc.Lines {
		line := &cc.Lines[i]
		if adjustAll || line.Variance.Variance != 0 {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// MarkApproved finalizes the session after adjustments have been posted.
// Lines whose variance was posted become ADJUSTED, the rest APPROVED.
func (cc *CycleCount) MarkApproved(approvedBy string) error {
	if cc.Status != CycleCountPendingApproval {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	for i := range cc.Lines {
		if cc.Lines[i].Variance.Variance != 0 {
			cc.Lines[i].Status = LineAdjusted
		} else {
			cc.Lines[i].Status = LineApproved
		}
	}
	cc.Status = CycleCountCompleted
	cc.CompletedAt = &now
	cc.UpdatedAt = now

	cc.AddDomainEvent(&CountCompletedEvent{
		CountID:       cc.ID,
		CountNumber:   cc.CountNumber,
		CountType:     "CYCLE_COUNT",
		WarehouseID:   cc.WarehouseID,
		Discrepancies: cc.Discrepancies,
		ApprovedBy:    approvedBy,
		CompletedAt:   now,
	})
	return nil
}

// Cancel aborts the session from any non-terminal state
func (cc *CycleCount) Cancel() error {
	if cc.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	cc.Status = CycleCountCancelled
	cc.UpdatedAt = time.Now().UTC()
	return nil
}

// AddDomainEvent queues an event for publication after persistence
func (cc *CycleCount) AddDomainEvent(event DomainEvent) {
	cc.DomainEvents = append(cc.DomainEvents, event)
}

// ClearDomainEvents empties the queued events
func (cc *CycleCount) ClearDomainEvents() {
	cc.DomainEvents = nil
}

func (cc *CycleCount) findLine(lineID string) *CycleCountLine {
	for i := range cc.Lines {
		if cc.Lines[i].ID == lineID {
			return &cc.Lines[i]
		}
	}
	return nil
}

// recompute refreshes session-level counters from line state
func (cc *CycleCount) recompute() {
	counted := make(map[string]struct{})
	discrepancies := 0
	for i := range cc.Lines {
		line := &cc.Lines[i]
		if line.Status == LinePending {
			continue
		}
		counted[line.LocationID] = struct{}{}
		if line.Variance.Variance != 0 {
			discrepancies++
		}
	}
	cc.CountedLocations = len(counted)
	cc.Discrepancies = discrepancies
}
