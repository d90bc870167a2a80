package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
	"github.com/wms-platform/inventory-ledger-service/pkg/kafka"
	"github.com/wms-platform/inventory-ledger-service/pkg/logging"
	"github.com/wms-platform/inventory-ledger-service/pkg/metrics"
	"github.com/wms-platform/inventory-ledger-service/pkg/outbox"
)

// CycleCountService drives the cycle count workflow. It reads record state to
// build the snapshot and posts all corrections through the operator, so count
// adjustments land in the ledger like any other mutation.
type CycleCountService struct {
	counts   domain.CycleCountRepository
	records  domain.InventoryRecordRepository
	operator *OperatorService
	outbox   outbox.Repository
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewCycleCountService creates the cycle count workflow service
func NewCycleCountService(
	counts domain.CycleCountRepository,
	records domain.InventoryRecordRepository,
	operator *OperatorService,
	outboxRepo outbox.Repository,
	m *metrics.Metrics,
	logger *logging.Logger,
) *CycleCountService {
	return &CycleCountService{
		counts:   counts,
		records:  records,
		operator: operator,
		outbox:   outboxRepo,
		metrics:  m,
		logger:   logger,
	}
}

// Create scopes a new session and snapshots every matching record's on-hand quantity
func (s *CycleCountService) Create(ctx context.Context, cmd CreateCycleCountCommand) (*CycleCountDTO, error) {
	if err := cmd.Scope.Validate(); err != nil {
		return nil, err
	}

	records, err := s.records.FindByScope(ctx, cmd.WarehouseID, cmd.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve count scope: %w", err)
	}

	cc, err := domain.NewCycleCount(cmd.WarehouseID, cmd.CountType, actor(cmd.ActorID), cmd.Scope, cmd.Thresholds, records)
	if err != nil {
		return nil, err
	}

	if err := s.counts.Save(ctx, cc); err != nil {
		return nil, fmt.Errorf("failed to save cycle count: %w", err)
	}
	s.publishEvents(ctx, cc.ID, cc.DomainEvents)
	cc.ClearDomainEvents()

	s.logger.Info("Created cycle count",
		"countNumber", cc.CountNumber,
		"warehouseId", cmd.WarehouseID,
		"lines", len(cc.Lines))
	return ToCycleCountDTO(cc), nil
}

// Get fetches one session
func (s *CycleCountService) Get(ctx context.Context, id string) (*CycleCountDTO, error) {
	cc, err := s.counts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCycleCountDTO(cc), nil
}

// List fetches sessions for a warehouse, optionally filtered by status
func (s *CycleCountService) List(ctx context.Context, warehouseID string, status domain.CycleCountStatus, limit, offset int64) ([]CycleCountDTO, error) {
	counts, err := s.counts.List(ctx, warehouseID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]CycleCountDTO, 0, len(counts))
	for _, cc := range counts {
		out = append(out, *ToCycleCountDTO(cc))
	}
	return out, nil
}

// Start opens the session for counting
func (s *CycleCountService) Start(ctx context.Context, id string) (*CycleCountDTO, error) {
	cc, err := s.counts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cc.Start(); err != nil {
		return nil, err
	}
	if err := s.counts.Save(ctx, cc); err != nil {
		return nil, fmt.Errorf("failed to save cycle count: %w", err)
	}
	return ToCycleCountDTO(cc), nil
}

// RecordCount stores one counted quantity and re-evaluates the line's variance
func (s *CycleCountService) RecordCount(ctx context.Context, cmd RecordCountCommand) (*CycleCountDTO, error) {
	cc, err := s.counts.FindByID(ctx, cmd.CountID)
	if err != nil {
		return nil, err
	}
	line, err := cc.RecordCount(cmd.LineID, cmd.CountedQuantity, actor(cmd.ActorID))
	if err != nil {
		return nil, err
	}
	if err := s.counts.Save(ctx, cc); err != nil {
		return nil, fmt.Errorf("failed to save cycle count: %w", err)
	}

	if line.Variance.RecountRequired {
		s.logger.Warn("Count variance exceeds threshold",
			"countNumber", cc.CountNumber,
			"lineId", line.ID,
			"variance", line.Variance.Variance)
	}
	return ToCycleCountDTO(cc), nil
}

// RecountLine resets one line so it can be counted again
func (s *CycleCountService) RecountLine(ctx context.Context, countID, lineID string) (*CycleCountDTO, error) {
	cc, err := s.counts.FindByID(ctx, countID)
	if err != nil {
		return nil, err
	}
	if err := cc.RecountLine(lineID); err != nil {
		return nil, err
	}
	if err := s.counts.Save(ctx, cc); err != nil {
		return nil, fmt.Errorf("failed to save cycle count: %w", err)
	}
	return ToCycleCountDTO(cc), nil
}

// Submit moves the session to approval once every line is counted
func (s *CycleCountService) Submit(ctx context.Context, id string) (*CycleCountDTO, error) {
	cc, err := s.counts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cc.Submit(); err != nil {
		return nil, err
	}
	if err := s.counts.Save(ctx, cc); err != nil {
		return nil, fmt.Errorf("failed to save cycle count: %w", err)
	}
	return ToCycleCountDTO(cc), nil
}

// Approve posts every variance through the operator inside one transaction
// and completes the session. A failure on any line rolls back the whole
// batch, including adjustments already applied.
func (s *CycleCountService) Approve(ctx context.Context, cmd ApproveCycleCountCommand) (*CycleCountDTO, error) {
	cc, err := s.counts.FindByID(ctx, cmd.CountID)
	if err != nil {
		return nil, err
	}
	lines, err := cc.LinesToPost(cmd.AdjustAll)
	if err != nil {
		return nil, err
	}

	varianceUnits := 0
	err = s.operator.WithinTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC()
		for _, line := range lines {
			delta := line.Variance.Variance
			if delta == 0 {
				continue
			}
			rec, _, txErr := s.operator.AdjustInTx(txCtx, domain.EntryCycleCount, AdjustCommand{
				RecordID:      line.RecordID.String(),
				Delta:         delta,
				Reason:        fmt.Sprintf("cycle count %s", cc.CountNumber),
				ReferenceType: "cycle_count",
				ReferenceID:   cc.ID,
				ActorID:       cmd.ActorID,
			})
			if txErr != nil {
				return &domain.BatchPostError{LineID: line.ID, Err: txErr}
			}
			rec.MarkCounted(now)
			if txErr = s.records.Save(txCtx, rec); txErr != nil {
				return fmt.Errorf("failed to stamp count date: %w", txErr)
			}
			varianceUnits += absInt(delta)
		}

		if txErr := cc.MarkApproved(actor(cmd.ActorID)); txErr != nil {
			return txErr
		}
		return s.counts.Save(txCtx, cc)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, cc.ID, cc.DomainEvents)
	cc.ClearDomainEvents()
	s.metrics.RecordCountCompleted("cycle_count")
	s.metrics.RecordVarianceUnits("cycle_count", varianceUnits)

	s.logger.Audit(ctx, "approve", "cycle_count", cc.ID, actor(cmd.ActorID), map[string]any{
		"countNumber":   cc.CountNumber,
		"discrepancies": cc.Discrepancies,
		"varianceUnits": varianceUnits,
	})
	return ToCycleCountDTO(cc), nil
}

// Cancel aborts the session; no adjustments are posted
func (s *CycleCountService) Cancel(ctx context.Context, id string) (*CycleCountDTO, error) {
	cc, err := s.counts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cc.Cancel(); err != nil {
		return nil, err
	}
	if err := s.counts.Save(ctx, cc); err != nil {
		return nil, fmt.Errorf("failed to save cycle count: %w", err)
	}
	s.logger.Info("Cancelled cycle count", "countNumber", cc.CountNumber)
	return ToCycleCountDTO(cc), nil
}

func (s *CycleCountService) publishEvents(ctx context.Context, aggregateID string, events []domain.DomainEvent) {
	for _, ev := range events {
		row, err := outbox.NewOutboxEvent(aggregateID, "cycle_count", kafka.Topics.CountEvents, ev)
		if err != nil {
			s.logger.WithError(err).Error("failed to build outbox event")
			continue
		}
		if err := s.outbox.Save(ctx, row); err != nil {
			s.logger.WithError(err).Error("failed to save outbox event")
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
