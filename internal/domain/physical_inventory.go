package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PhysicalInventoryStatus is the session state of a physical inventory
type PhysicalInventoryStatus string

const (
	PISetup      PhysicalInventoryStatus = "SETUP"
	PIScheduled  PhysicalInventoryStatus = "SCHEDULED"
	PIInProgress PhysicalInventoryStatus = "IN_PROGRESS"
	PICompleted  PhysicalInventoryStatus = "COMPLETED"
	PICancelled  PhysicalInventoryStatus = "CANCELLED"
)

// CountBookStatus is the state of one count book
type CountBookStatus string

const (
	BookNew        CountBookStatus = "NEW"
	BookAssigned   CountBookStatus = "ASSIGNED"
	BookInProgress CountBookStatus = "IN_PROGRESS"
	BookCompleted  CountBookStatus = "COMPLETED"
)

// CountBookLine is one stocking position inside a count book. The system
// snapshot is always stored for posting; the counter-facing expected quantity
// is withheld on blind counts. A recount preserves the original count for
// audit while overriding the official value.
type CountBookLine struct {
	ID               string          `bson:"id" json:"id"`
	RecordID         RecordID        `bson:"recordId,omitempty" json:"recordId,omitempty"`
	LocationID       string          `bson:"locationId" json:"locationId"`
	SKU              string          `bson:"sku,omitempty" json:"sku,omitempty"`
	LotNumber        string          `bson:"lotNumber,omitempty" json:"lotNumber,omitempty"`
	SystemQuantity   int             `bson:"systemQuantity" json:"-"`
	ExpectedQuantity *int            `bson:"expectedQuantity,omitempty" json:"expectedQuantity,omitempty"`
	CountedQuantity  *int            `bson:"countedQuantity,omitempty" json:"countedQuantity,omitempty"`
	RecountQuantity  *int            `bson:"recountQuantity,omitempty" json:"recountQuantity,omitempty"`
	Variance         VarianceResult  `bson:"variance" json:"variance"`
	Status           CountLineStatus `bson:"status" json:"status"`
	CountedBy        string          `bson:"countedBy,omitempty" json:"countedBy,omitempty"`
	CountedAt        *time.Time      `bson:"countedAt,omitempty" json:"countedAt,omitempty"`
	ApprovedBy       string          `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time      `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
}

// EffectiveCount returns the official counted value, preferring a recount
func (l *CountBookLine) EffectiveCount() *int {
	if l.RecountQuantity != nil {
		return l.RecountQuantity
	}
	return l.CountedQuantity
}

// CountBook is a partition of locations assigned to one counter
type CountBook struct {
	ID          string          `bson:"id" json:"id"`
	BookNumber  string          `bson:"bookNumber" json:"bookNumber"`
	Status      CountBookStatus `bson:"status" json:"status"`
	AssignedTo  string          `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	LocationIDs []string        `bson:"locationIds" json:"locationIds"`
	Lines       []CountBookLine `bson:"lines" json:"lines"`
	StartedAt   *time.Time      `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time      `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// PhysicalInventory is a full or partial facility count, partitioned into
// count books for parallel counting
type PhysicalInventory struct {
	ID          string                  `bson:"_id" json:"id"`
	PINumber    string                  `bson:"piNumber" json:"piNumber"`
	WarehouseID string                  `bson:"warehouseId" json:"warehouseId"`
	Status      PhysicalInventoryStatus `bson:"status" json:"status"`
	Zones       []string                `bson:"zones,omitempty" json:"zones,omitempty"`

	BlindCount       bool               `bson:"blindCount" json:"blindCount"`
	Thresholds       VarianceThresholds `bson:"thresholds" json:"thresholds"`
	LocationsPerBook int                `bson:"locationsPerBook" json:"locationsPerBook"`

	Books          []CountBook `bson:"books" json:"books"`
	TotalBooks     int         `bson:"totalBooks" json:"totalBooks"`
	TotalLocations int         `bson:"totalLocations" json:"totalLocations"`

	AdjustmentsPosted         int   `bson:"adjustmentsPosted" json:"adjustmentsPosted"`
	TotalAdjustmentValueCents int64 `bson:"totalAdjustmentValueCents" json:"totalAdjustmentValueCents"`

	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewPhysicalInventory creates a session in SETUP with its scope and thresholds captured
func NewPhysicalInventory(warehouseID string, zones []string, blindCount bool, thresholds VarianceThresholds, locationsPerBook int, createdBy string) (*PhysicalInventory, error) {
	if locationsPerBook <= 0 {
		return nil, ErrInvalidQuantity
	}
	now := time.Now().UTC()
	return &PhysicalInventory{
		ID:               uuid.New().String(),
		PINumber:         fmt.Sprintf("PI-%s-%s", now.Format("20060102"), uuid.New().String()[:8]),
		WarehouseID:      warehouseID,
		Status:           PISetup,
		Zones:            zones,
		BlindCount:       blindCount,
		Thresholds:       thresholds,
		LocationsPerBook: locationsPerBook,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// GenerateBooks partitions the in-scope locations into books of at most
// LocationsPerBook and builds one line per (sku, lot) at each location.
// Locations holding nothing get a single placeholder line expecting zero.
// On blind counts the expected quantity is withheld from every line.
func (pi *PhysicalInventory) GenerateBooks(locationIDs []string, recordsByLocation map[string][]*InventoryRecord) error {
	if pi.Status != PISetup && pi.Status != PIScheduled {
		return ErrInvalidTransition
	}
	if len(locationIDs) == 0 {
		return ErrNoLocations
	}

	pi.Books = nil
	bookIndex := 0
	for start := 0; start < len(locationIDs); start += pi.LocationsPerBook {
		end := start + pi.LocationsPerBook
		if end > len(locationIDs) {
			end = len(locationIDs)
		}
		bookIndex++
		book := CountBook{
			ID:          uuid.New().String(),
			BookNumber:  fmt.Sprintf("%s-B%03d", pi.PINumber, bookIndex),
			Status:      BookNew,
			LocationIDs: append([]string(nil), locationIDs[start:end]...),
		}

		for _, locID := range locationIDs[start:end] {
			records := recordsByLocation[locID]
			if len(records) == 0 {
				book.Lines = append(book.Lines, pi.newLine(locID, nil))
				continue
			}
			for _, rec := range records {
				book.Lines = append(book.Lines, pi.newLine(locID, rec))
			}
		}
		pi.Books = append(pi.Books, book)
	}

	pi.TotalBooks = len(pi.Books)
	pi.TotalLocations = len(locationIDs)
	pi.Status = PIScheduled
	pi.UpdatedAt = time.Now().UTC()
	return nil
}

func (pi *PhysicalInventory) newLine(locationID string, rec *InventoryRecord) CountBookLine {
	line := CountBookLine{
		ID:         uuid.New().String(),
		LocationID: locationID,
		Status:     LinePending,
	}
	if rec != nil {
		line.RecordID = rec.ID
		line.SKU = rec.SKU
		line.LotNumber = rec.LotNumber
		line.SystemQuantity = rec.QuantityOnHand
	}
	if !pi.BlindCount {
		expected := line.SystemQuantity
		line.ExpectedQuantity = &expected
	}
	return line
}

// AssignBook hands a book to a counter
func (pi *PhysicalInventory) AssignBook(bookID, assignee string) error {
	book := pi.findBook(bookID)
	if book == nil {
		return ErrBookNotFound
	}
	if book.Status != BookNew && book.Status != BookAssigned {
		return ErrInvalidTransition
	}
	book.Status = BookAssigned
	book.AssignedTo = assignee
	pi.UpdatedAt = time.Now().UTC()
	return nil
}

// StartBook opens a book for counting. The first book to start also moves
// the parent session to IN_PROGRESS.
func (pi *PhysicalInventory) StartBook(bookID string) error {
	book := pi.findBook(bookID)
	if book == nil {
		return ErrBookNotFound
	}
	if book.Status != BookAssigned {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	book.Status = BookInProgress
	book.StartedAt = &now
	if pi.Status == PIScheduled {
		pi.Status = PIInProgress
	}
	pi.UpdatedAt = now
	return nil
}

// RecordLine stores the first count on a book line
func (pi *PhysicalInventory) RecordLine(bookID, lineID string, countedQty int, countedBy string) (*CountBookLine, error) {
	book := pi.findBook(bookID)
	if book == nil {
		return nil, ErrBookNotFound
	}
	if book.Status != BookInProgress {
		return nil, ErrInvalidTransition
	}
	if countedQty < 0 {
		return nil, ErrInvalidQuantity
	}
	line := findBookLine(book, lineID)
	if line == nil {
		return nil, ErrLineNotFound
	}

	now := time.Now().UTC()
	line.CountedQuantity = &countedQty
	line.Variance = EvaluateVariance(line.SystemQuantity, countedQty, pi.Thresholds)
	line.Status = LineCounted
	line.CountedBy = countedBy
	line.CountedAt = &now
	pi.UpdatedAt = now
	return line, nil
}

// RecountLine records a second count. The original count is kept; the
// recount becomes the official value the variance is computed from.
func (pi *PhysicalInventory) RecountLine(bookID, lineID string, recountQty int, countedBy string) (*CountBookLine, error) {
	book := pi.findBook(bookID)
	if book == nil {
		return nil, ErrBookNotFound
	}
	if book.Status != BookInProgress {
		return nil, ErrInvalidTransition
	}
	if recountQty < 0 {
		return nil, ErrInvalidQuantity
	}
	line := findBookLine(book, lineID)
	if line == nil {
		return nil, ErrLineNotFound
	}
	if line.CountedQuantity == nil {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	line.RecountQuantity = &recountQty
	line.Variance = EvaluateVariance(line.SystemQuantity, recountQty, pi.Thresholds)
	line.Status = LineCounted
	line.CountedBy = countedBy
	line.CountedAt = &now
	pi.UpdatedAt = now
	return line, nil
}

// CompleteBook closes a book once every line has been counted and every
// line whose variance tripped a threshold has been recounted
func (pi *PhysicalInventory) CompleteBook(bookID string) error {
	book := pi.findBook(bookID)
	if book == nil {
		return ErrBookNotFound
	}
	if book.Status != BookInProgress {
		return ErrInvalidTransition
	}
	uncounted := 0
	recounts := 0
	for i := range book.Lines {
		line := &book.Lines[i]
		if line.Status == LinePending {
			uncounted++
			continue
		}
		if line.Variance.RecountRequired && line.RecountQuantity == nil {
			recounts++
		}
	}
	if uncounted > 0 {
		return &UncountedLinesError{UncountedCount: uncounted}
	}
	if recounts > 0 {
		return &RecountPendingError{RecountCount: recounts}
	}
	now := time.Now().UTC()
	book.Status = BookCompleted
	book.CompletedAt = &now
	pi.UpdatedAt = now
	return nil
}

// ApproveLine marks a variance line approved, a human checkpoint that is
// independent of posting
func (pi *PhysicalInventory) ApproveLine(bookID, lineID, approvedBy string) error {
	book := pi.findBook(bookID)
	if book == nil {
		return ErrBookNotFound
	}
	line := findBookLine(book, lineID)
	if line == nil {
		return ErrLineNotFound
	}
	if line.Status == LinePending {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	line.Status = LineApproved
	line.ApprovedBy = approvedBy
	line.ApprovedAt = &now
	pi.UpdatedAt = now
	return nil
}

// VarianceLine pairs a book with one of its non-zero-variance lines
type VarianceLine struct {
	BookID     string
	BookNumber string
	Line       *CountBookLine
}

// VarianceLines collects every counted line with a non-zero variance across all books
func (pi *PhysicalInventory) VarianceLines() []VarianceLine {
	var out []VarianceLine
	for b := range pi.Books {
		book := &pi.Books[b]
		for l := range book.Lines {
			line := &book.Lines[l]
			if line.Status != LinePending && line.Variance.Variance != 0 {
				out = append(out, VarianceLine{BookID: book.ID, BookNumber: book.BookNumber, Line: line})
			}
		}
	}
	return out
}

// VarianceSummary aggregates session-level variance totals
type VarianceSummary struct {
	PositiveUnits      int   `json:"positiveUnits"`
	NegativeUnits      int   `json:"negativeUnits"`
	NetVariance        int   `json:"netVariance"`
	TotalValueVariance int64 `json:"totalValueVariance"` // cents
	LinesWithVariance  int   `json:"linesWithVariance"`
	LinesOverThreshold int   `json:"linesOverThreshold"`
}

// Summary computes the session-level variance totals
func (pi *PhysicalInventory) Summary() VarianceSummary {
	var s VarianceSummary
	for _, vl := range pi.VarianceLines() {
		v := vl.Line.Variance
		if v.Variance > 0 {
			s.PositiveUnits += v.Variance
		} else {
			s.NegativeUnits += -v.Variance
		}
		s.NetVariance += v.Variance
		s.TotalValueVariance += v.VarianceValue
		s.LinesWithVariance++
		if v.ExceedsThreshold {
			s.LinesOverThreshold++
		}
	}
	return s
}

// CheckComplete verifies every book is completed before the session can close
func (pi *PhysicalInventory) CheckComplete() error {
	if pi.Status != PIInProgress && pi.Status != PIScheduled {
		return ErrInvalidTransition
	}
	incomplete := 0
	for i := range pi.Books {
		if pi.Books[i].Status != BookCompleted {
			incomplete++
		}
	}
	if incomplete > 0 {
		return &IncompleteBooksError{IncompleteCount: incomplete}
	}
	return nil
}

// MarkCompleted finalizes the session with the posting totals accumulated
// while adjustments were applied
func (pi *PhysicalInventory) MarkCompleted(adjustmentsPosted int, totalAdjustmentValueCents int64, completedBy string) error {
	if err := pi.CheckComplete(); err != nil {
		return err
	}
	now := time.Now().UTC()
	pi.AdjustmentsPosted = adjustmentsPosted
	pi.TotalAdjustmentValueCents = totalAdjustmentValueCents
	pi.Status = PICompleted
	pi.CompletedAt = &now
	pi.UpdatedAt = now

	pi.AddDomainEvent(&CountCompletedEvent{
		CountID:       pi.ID,
		CountNumber:   pi.PINumber,
		CountType:     "PHYSICAL_INVENTORY",
		WarehouseID:   pi.WarehouseID,
		Discrepancies: len(pi.VarianceLines()),
		ApprovedBy:    completedBy,
		CompletedAt:   now,
	})
	return nil
}

// Cancel aborts the session unless it already completed
func (pi *PhysicalInventory) Cancel() error {
	if pi.Status == PICompleted || pi.Status == PICancelled {
		return ErrInvalidTransition
	}
	pi.Status = PICancelled
	pi.UpdatedAt = time.Now().UTC()
	return nil
}

// AddDomainEvent queues an event for publication after persistence
func (pi *PhysicalInventory) AddDomainEvent(event DomainEvent) {
	pi.DomainEvents = append(pi.DomainEvents, event)
}

// ClearDomainEvents empties the queued events
func (pi *PhysicalInventory) ClearDomainEvents() {
	pi.DomainEvents = nil
}

func (pi *PhysicalInventory) findBook(bookID string) *CountBook {
	for i := range pi.Books {
		if pi.Books[i].ID == bookID {
			return &pi.Books[i]
		}
	}
	return nil
}

func findBookLine(book *CountBook, lineID string) *CountBookLine {
	for i := range book.Lines {
		if book.Lines[i].ID == lineID {
			return &book.Lines[i]
		}
	}
	return nil
}
