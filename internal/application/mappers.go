package application

import (
	"github.com/wms-platform/inventory-ledger-service/internal/domain"
)

// ToInventoryRecordDTO converts a domain record to its API shape
func ToInventoryRecordDTO(rec *domain.InventoryRecord) *InventoryRecordDTO {
	if rec == nil {
		return nil
	}
	return &InventoryRecordDTO{
		ID:                rec.ID.String(),
		SKU:               rec.SKU,
		ProductName:       rec.ProductName,
		WarehouseID:       rec.WarehouseID,
		LocationID:        rec.LocationID,
		Zone:              rec.Zone,
		LotNumber:         rec.LotNumber,
		SerialNumber:      rec.SerialNumber,
		LicensePlate:      rec.LicensePlate,
		QuantityOnHand:    rec.QuantityOnHand,
		QuantityAllocated: rec.QuantityAllocated,
		QuantityAvailable: rec.QuantityAvailable,
		Status:            string(rec.Status),
		VelocityClass:     string(rec.VelocityClass),
		UnitCostCents:     rec.UnitCostCents,
		ReorderPoint:      rec.ReorderPoint,
		LastCountDate:     rec.LastCountDate,
		UpdatedAt:         rec.UpdatedAt,
	}
}

// ToLedgerEntryDTO converts a ledger entry to its API shape
func ToLedgerEntryDTO(e *domain.LedgerEntry) *LedgerEntryDTO {
	if e == nil {
		return nil
	}
	return &LedgerEntryDTO{
		ID:             e.ID.String(),
		Type:           string(e.Type),
		RecordID:       e.RecordID.String(),
		SKU:            e.SKU,
		WarehouseID:    e.WarehouseID,
		FromLocationID: e.FromLocationID,
		ToLocationID:   e.ToLocationID,
		LotNumber:      e.LotNumber,
		Quantity:       e.Quantity,
		QuantityBefore: e.QuantityBefore,
		QuantityAfter:  e.QuantityAfter,
		ReferenceType:  e.ReferenceType,
		ReferenceID:    e.ReferenceID,
		ActorID:        e.ActorID,
		Reason:         e.Reason,
		CreatedAt:      e.CreatedAt,
	}
}

// ToLedgerEntryDTOs converts a slice of ledger entries
func ToLedgerEntryDTOs(entries []*domain.LedgerEntry) []LedgerEntryDTO {
	out := make([]LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, *ToLedgerEntryDTO(e))
	}
	return out
}

func toCycleCountLineDTO(l *domain.CycleCountLine) CycleCountLineDTO {
	return CycleCountLineDTO{
		ID:              l.ID,
		RecordID:        l.RecordID.String(),
		LocationID:      l.LocationID,
		SKU:             l.SKU,
		LotNumber:       l.LotNumber,
		SystemQuantity:  l.SystemQuantity,
		CountedQuantity: l.CountedQuantity,
		Recounted:       l.Recounted,
		Variance:        l.Variance,
		Status:          string(l.Status),
		CountedBy:       l.CountedBy,
		CountedAt:       l.CountedAt,
	}
}

// ToCycleCountDTO converts a cycle count session to its API shape
func ToCycleCountDTO(cc *domain.CycleCount) *CycleCountDTO {
	if cc == nil {
		return nil
	}
	lines := make([]CycleCountLineDTO, 0, len(cc.Lines))
	for i := range cc.Lines {
		lines = append(lines, toCycleCountLineDTO(&cc.Lines[i]))
	}
	return &CycleCountDTO{
		ID:               cc.ID,
		CountNumber:      cc.CountNumber,
		WarehouseID:      cc.WarehouseID,
		CountType:        cc.CountType,
		Status:           string(cc.Status),
		TotalLocations:   cc.TotalLocations,
		CountedLocations: cc.CountedLocations,
		Discrepancies:    cc.Discrepancies,
		Lines:            lines,
		CreatedBy:        cc.CreatedBy,
		CreatedAt:        cc.CreatedAt,
		StartedAt:        cc.StartedAt,
		CompletedAt:      cc.CompletedAt,
	}
}

func toCountBookLineDTO(l *domain.CountBookLine) CountBookLineDTO {
	return CountBookLineDTO{
		ID:               l.ID,
		RecordID:         l.RecordID.String(),
		LocationID:       l.LocationID,
		SKU:              l.SKU,
		LotNumber:        l.LotNumber,
		ExpectedQuantity: l.ExpectedQuantity,
		CountedQuantity:  l.CountedQuantity,
		RecountQuantity:  l.RecountQuantity,
		Variance:         l.Variance,
		Status:           string(l.Status),
		ApprovedBy:       l.ApprovedBy,
	}
}

func toCountBookDTO(b *domain.CountBook) CountBookDTO {
	lines := make([]CountBookLineDTO, 0, len(b.Lines))
	for i := range b.Lines {
		lines = append(lines, toCountBookLineDTO(&b.Lines[i]))
	}
	return CountBookDTO{
		ID:          b.ID,
		BookNumber:  b.BookNumber,
		Status:      string(b.Status),
		AssignedTo:  b.AssignedTo,
		LocationIDs: b.LocationIDs,
		Lines:       lines,
	}
}

// ToPhysicalInventoryDTO converts a physical inventory session to its API
// shape, optionally including the full book detail
func ToPhysicalInventoryDTO(pi *domain.PhysicalInventory, includeBooks bool) *PhysicalInventoryDTO {
	if pi == nil {
		return nil
	}
	dto := &PhysicalInventoryDTO{
		ID:                        pi.ID,
		PINumber:                  pi.PINumber,
		WarehouseID:               pi.WarehouseID,
		Status:                    string(pi.Status),
		Zones:                     pi.Zones,
		BlindCount:                pi.BlindCount,
		LocationsPerBook:          pi.LocationsPerBook,
		TotalBooks:                pi.TotalBooks,
		TotalLocations:            pi.TotalLocations,
		AdjustmentsPosted:         pi.AdjustmentsPosted,
		TotalAdjustmentValueCents: pi.TotalAdjustmentValueCents,
		CreatedBy:                 pi.CreatedBy,
		CreatedAt:                 pi.CreatedAt,
		CompletedAt:               pi.CompletedAt,
	}
	if includeBooks {
		dto.Books = make([]CountBookDTO, 0, len(pi.Books))
		for i := range pi.Books {
			dto.Books = append(dto.Books, toCountBookDTO(&pi.Books[i]))
		}
	}
	return dto
}
