package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
	"github.com/wms-platform/inventory-ledger-service/pkg/logging"
)

// QueryService serves the read side: record lookups, ledger queries,
// summaries and open-discrepancy views. It never mutates anything.
type QueryService struct {
	records  domain.InventoryRecordRepository
	ledger   domain.LedgerRepository
	counts   domain.CycleCountRepository
	sessions domain.PhysicalInventoryRepository
	logger   *logging.Logger
}

// NewQueryService creates the read-side service
func NewQueryService(
	records domain.InventoryRecordRepository,
	ledger domain.LedgerRepository,
	counts domain.CycleCountRepository,
	sessions domain.PhysicalInventoryRepository,
	logger *logging.Logger,
) *QueryService {
	return &QueryService{
		records:  records,
		ledger:   ledger,
		counts:   counts,
		sessions: sessions,
		logger:   logger,
	}
}

// GetRecord fetches one inventory record
func (s *QueryService) GetRecord(ctx context.Context, id string) (*InventoryRecordDTO, error) {
	rec, err := s.records.FindByID(ctx, domain.RecordID(id))
	if err != nil {
		return nil, err
	}
	return ToInventoryRecordDTO(rec), nil
}

// SearchRecords fetches records matching a filter. Zero-quantity records are
// retained in storage and excluded here unless the filter opts in.
func (s *QueryService) SearchRecords(ctx context.Context, filter domain.RecordFilter) ([]InventoryRecordDTO, error) {
	recs, err := s.records.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	out := make([]InventoryRecordDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *ToInventoryRecordDTO(rec))
	}
	return out, nil
}

// GetLedger fetches ledger entries matching a filter, newest first
func (s *QueryService) GetLedger(ctx context.Context, filter domain.LedgerFilter) ([]LedgerEntryDTO, error) {
	entries, err := s.ledger.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	return ToLedgerEntryDTOs(entries), nil
}

// GetInventorySummary aggregates current quantities and value across the
// records matching a filter
func (s *QueryService) GetInventorySummary(ctx context.Context, filter domain.RecordFilter, includeRecords bool) (*InventorySummaryDTO, error) {
	recs, err := s.records.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}

	summary := &InventorySummaryDTO{
		WarehouseID: filter.WarehouseID,
		RecordCount: len(recs),
	}
	for _, rec := range recs {
		summary.TotalOnHand += rec.QuantityOnHand
		summary.TotalAllocated += rec.QuantityAllocated
		summary.TotalAvailable += rec.QuantityAvailable
		summary.TotalValue += int64(rec.QuantityOnHand) * rec.UnitCostCents
		if includeRecords {
			summary.Records = append(summary.Records, *ToInventoryRecordDTO(rec))
		}
	}
	return summary, nil
}

// GetDiscrepancies surfaces every open variance line across in-flight count
// sessions in a warehouse
func (s *QueryService) GetDiscrepancies(ctx context.Context, warehouseID string) ([]DiscrepancyDTO, error) {
	var out []DiscrepancyDTO

	for _, status := range []domain.CycleCountStatus{domain.CycleCountInProgress, domain.CycleCountPendingApproval} {
		counts, err := s.counts.List(ctx, warehouseID, status, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list cycle counts: %w", err)
		}
		for _, cc := range counts {
			for i := range cc.Lines {
				line := &cc.Lines[i]
				if !line.HasVariance() {
					continue
				}
				out = append(out, DiscrepancyDTO{
					SessionID:   cc.ID,
					SessionType: "CYCLE_COUNT",
					CountNumber: cc.CountNumber,
					LocationID:  line.LocationID,
					SKU:         line.SKU,
					Variance:    line.Variance,
				})
			}
		}
	}

	sessions, err := s.sessions.List(ctx, warehouseID, domain.PIInProgress, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list physical inventories: %w", err)
	}
	for _, pi := range sessions {
		for _, vl := range pi.VarianceLines() {
			out = append(out, DiscrepancyDTO{
				SessionID:   pi.ID,
				SessionType: "PHYSICAL_INVENTORY",
				CountNumber: pi.PINumber,
				LocationID:  vl.Line.LocationID,
				SKU:         vl.Line.SKU,
				Variance:    vl.Line.Variance,
			})
		}
	}
	return out, nil
}
