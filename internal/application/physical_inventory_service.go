package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
	"github.com/wms-platform/inventory-ledger-service/pkg/kafka"
	"github.com/wms-platform/inventory-ledger-service/pkg/logging"
	"github.com/wms-platform/inventory-ledger-service/pkg/metrics"
	"github.com/wms-platform/inventory-ledger-service/pkg/outbox"
)

// PhysicalInventoryService drives the facility-wide count workflow, from
// book generation through variance review to batch posting on completion.
type PhysicalInventoryService struct {
	sessions domain.PhysicalInventoryRepository
	records  domain.InventoryRecordRepository
	operator *OperatorService
	outbox   outbox.Repository
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewPhysicalInventoryService creates the physical inventory workflow service
func NewPhysicalInventoryService(
	sessions domain.PhysicalInventoryRepository,
	records domain.InventoryRecordRepository,
	operator *OperatorService,
	outboxRepo outbox.Repository,
	m *metrics.Metrics,
	logger *logging.Logger,
) *PhysicalInventoryService {
	return &PhysicalInventoryService{
		sessions: sessions,
		records:  records,
		operator: operator,
		outbox:   outboxRepo,
		metrics:  m,
		logger:   logger,
	}
}

// Create sets up a session with its scope, thresholds and blind-count flag
func (s *PhysicalInventoryService) Create(ctx context.Context, cmd CreatePhysicalInventoryCommand) (*PhysicalInventoryDTO, error) {
	pi, err := domain.NewPhysicalInventory(cmd.WarehouseID, cmd.Zones, cmd.BlindCount, cmd.Thresholds, cmd.LocationsPerBook, actor(cmd.ActorID))
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, pi); err != nil {
		return nil, fmt.Errorf("failed to save physical inventory: %w", err)
	}

	s.logger.Info("Created physical inventory",
		"piNumber", pi.PINumber,
		"warehouseId", cmd.WarehouseID,
		"blindCount", cmd.BlindCount)
	return ToPhysicalInventoryDTO(pi, false), nil
}

// Get fetches one session
func (s *PhysicalInventoryService) Get(ctx context.Context, id string, includeBooks bool) (*PhysicalInventoryDTO, error) {
	pi, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToPhysicalInventoryDTO(pi, includeBooks), nil
}

// List fetches sessions for a warehouse, optionally filtered by status
func (s *PhysicalInventoryService) List(ctx context.Context, warehouseID string, status domain.PhysicalInventoryStatus, limit, offset int64) ([]PhysicalInventoryDTO, error) {
	sessions, err := s.sessions.List(ctx, warehouseID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]PhysicalInventoryDTO, 0, len(sessions))
	for _, pi := range sessions {
		out = append(out, *ToPhysicalInventoryDTO(pi, false))
	}
	return out, nil
}

// GenerateBooks resolves the session's in-scope locations and partitions
// them into count books
func (s *PhysicalInventoryService) GenerateBooks(ctx context.Context, piID string) (*PhysicalInventoryDTO, error) {
	pi, err := s.sessions.FindByID(ctx, piID)
	if err != nil {
		return nil, err
	}

	locations, err := s.records.DistinctLocations(ctx, pi.WarehouseID, pi.Zones)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve locations: %w", err)
	}

	recordsByLocation := make(map[string][]*domain.InventoryRecord, len(locations))
	for _, loc := range locations {
		recs, err := s.records.FindByLocation(ctx, pi.WarehouseID, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to load inventory at %s: %w", loc, err)
		}
		recordsByLocation[loc] = recs
	}

	if err := pi.GenerateBooks(locations, recordsByLocation); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, pi); err != nil {
		return nil, fmt.Errorf("failed to save physical inventory: %w", err)
	}

	s.logger.Info("Generated count books",
		"piNumber", pi.PINumber,
		"books", pi.TotalBooks,
		"locations", pi.TotalLocations)
	return ToPhysicalInventoryDTO(pi, true), nil
}

// AssignBook hands one book to a counter
func (s *PhysicalInventoryService) AssignBook(ctx context.Context, cmd AssignBookCommand) (*PhysicalInventoryDTO, error) {
	pi, err := s.sessions.FindByID(ctx, cmd.PIID)
	if err != nil {
		return nil, err
	}
	if err := pi.AssignBook(cmd.BookID, cmd.AssignedTo); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, pi); err != nil {
		return nil, fmt.Errorf("failed to save physical inventory: %w", err)
	}
	return ToPhysicalInventoryDTO(pi, true), nil
}

// StartBook opens one book for counting
func (s *PhysicalInventoryService) StartBook(ctx context.Context, piID, bookID string) (*PhysicalInventoryDTO, error) {
	pi, err := s.sessions.FindByID(ctx, piID)
	if err != nil {
		return nil, err
	}
	if err := pi.StartBook(bookID); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, pi); err != nil {
		return nil, fmt.Errorf("failed to save physical inventory: %w", err)
	}
	return ToPhysicalInventoryDTO(pi, true), nil
}

// RecordLine stores one count or recount on a book line
func (s *PhysicalInventoryService) RecordLine(ctx context.Context, cmd RecordBookLineCommand) (*PhysicalInventoryDTO, error) {
	pi, err := s.sessions.FindByID(ctx, cmd.PIID)
	if err != nil {
		return nil, err
	}

	var line *domain.CountBookLine
	if cmd.Recount {
		line, err = pi.RecountLine(cmd.BookID, cmd.LineID, cmd.Quantity, actor(cmd.ActorID))
	} else {
		line, err = pi.RecordLine(cmd.BookID, cmd.LineID, cmd.Quantity, actor(cmd.ActorID))
	}
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, pi); err != nil {
		return nil, fmt.Errorf("failed to save physical inventory: %w", err)
	}
	if line.Variance.RecountRequired && !cmd.Recount {
		s.logger.Warn("Count variance exceeds threshold",
			"piNumber", pi.PINumber,
			"lineId", line.ID,
			"variance", line.Variance.Variance)
	}
	return ToPhysicalInventoryDTO(pi, true), nil
}

// CompleteBook closes one book once every line is counted
func (s *PhysicalInventoryService) CompleteBook(ctx context.Context, piID, bookID string) (*PhysicalInventoryDTO, error) {
	pi, err := s.sessions.FindByID(ctx, piID)
	if err != nil {
		return nil, err
	}
	if err := pi.CompleteBook(bookID); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, pi); err != nil {
		return nil, fmt.Errorf("failed to save physical inventory: %w", err)
	}
	return ToPhysicalInventoryDTO(pi, true), nil
}

// VarianceReport aggregates every non-zero-variance line across all books
func (s *PhysicalInventoryService) VarianceReport(ctx context.Context, piID string) (*VarianceReportDTO, error) {
	pi, err := s.sessions.FindByID(ctx, piID)
	if err != nil {
		return nil, err
	}

	report := &VarianceReportDTO{
		PIID:    pi.ID,
		Summary: pi.Summary(),
	}
	for _, vl := range pi.VarianceLines() {
		report.Lines = append(report.Lines, VarianceReportLineDTO{
			BookID:     vl.BookID,
			BookNumber: vl.BookNumber,
			Line:       toCountBookLineDTO(vl.Line),
		})
	}
	return report, nil
}

// ApproveLine marks one variance line approved
func (s *PhysicalInventoryService) ApproveLine(ctx context.Context, cmd ApproveVarianceLineCommand) (*PhysicalInventoryDTO, error) {
	pi, err := s.sessions.FindByID(ctx, cmd.PIID)
	if err != nil {
		return nil, err
	}
	if err := pi.ApproveLine(cmd.BookID, cmd.LineID, actor(cmd.ActorID)); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, pi); err != nil {
		return nil, fmt.Errorf("failed to save physical inventory: %w", err)
	}
	return ToPhysicalInventoryDTO(pi, true), nil
}

// Complete closes the session. With postAdjustments every non-zero-variance
// line with an underlying record becomes one adjustment inside a single
// transaction; a failure on any line rolls the whole batch back.
func (s *PhysicalInventoryService) Complete(ctx context.Context, cmd CompletePhysicalInventoryCommand) (*PhysicalInventoryDTO, error) {
	pi, err := s.sessions.FindByID(ctx, cmd.PIID)
	if err != nil {
		return nil, err
	}
	if err := pi.CheckComplete(); err != nil {
		return nil, err
	}

	posted := 0
	var totalValueCents int64
	err = s.operator.WithinTransaction(ctx, func(txCtx context.Context) error {
		if cmd.PostAdjustments {
			for _, vl := range pi.VarianceLines() {
				line := vl.Line
				if line.RecordID == "" {
					// Found stock at a supposedly empty location; there is no
					// record to adjust until it is received properly.
					s.logger.Warn("Unexpected stock found at empty location",
						"piNumber", pi.PINumber,
						"locationId", line.LocationID)
					continue
				}
				delta := line.Variance.Variance
				rec, _, txErr := s.operator.AdjustInTx(txCtx, domain.EntryPhysicalInventory, AdjustCommand{
					RecordID:      line.RecordID.String(),
					Delta:         delta,
					Reason:        fmt.Sprintf("physical inventory %s", pi.PINumber),
					ReferenceType: "physical_inventory",
					ReferenceID:   pi.ID,
					ActorID:       cmd.ActorID,
				})
				if txErr != nil {
					return &domain.BatchPostError{LineID: line.ID, Err: txErr}
				}
				rec.MarkCounted(pi.UpdatedAt)
				if txErr = s.records.Save(txCtx, rec); txErr != nil {
					return fmt.Errorf("failed to stamp count date: %w", txErr)
				}
				posted++
				totalValueCents += int64(delta) * rec.UnitCostCents
			}
		}

		if txErr := pi.MarkCompleted(posted, totalValueCents, actor(cmd.ActorID)); txErr != nil {
			return txErr
		}
		return s.sessions.Save(txCtx, pi)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, pi.ID, pi.DomainEvents)
	pi.ClearDomainEvents()
	s.metrics.RecordCountCompleted("physical_inventory")
	s.metrics.RecordVarianceUnits("physical_inventory", pi.Summary().PositiveUnits+pi.Summary().NegativeUnits)

	s.logger.Audit(ctx, "complete", "physical_inventory", pi.ID, actor(cmd.ActorID), map[string]any{
		"piNumber":          pi.PINumber,
		"adjustmentsPosted": posted,
		"totalValueCents":   totalValueCents,
	})
	return ToPhysicalInventoryDTO(pi, false), nil
}

// Cancel aborts the session; blocked once completed
func (s *PhysicalInventoryService) Cancel(ctx context.Context, id string) (*PhysicalInventoryDTO, error) {
	pi, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := pi.Cancel(); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, pi); err != nil {
		return nil, fmt.Errorf("failed to save physical inventory: %w", err)
	}
	s.logger.Info("Cancelled physical inventory", "piNumber", pi.PINumber)
	return ToPhysicalInventoryDTO(pi, false), nil
}

func (s *PhysicalInventoryService) publishEvents(ctx context.Context, aggregateID string, events []domain.DomainEvent) {
	for _, ev := range events {
		row, err := outbox.NewOutboxEvent(aggregateID, "physical_inventory", kafka.Topics.CountEvents, ev)
		if err != nil {
			s.logger.WithError(err).Error("failed to build outbox event")
			continue
		}
		if err := s.outbox.Save(ctx, row); err != nil {
			s.logger.WithError(err).Error("failed to save outbox event")
		}
	}
}
