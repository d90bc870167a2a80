package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
	"github.com/wms-platform/inventory-ledger-service/pkg/kafka"
	"github.com/wms-platform/inventory-ledger-service/pkg/logging"
	"github.com/wms-platform/inventory-ledger-service/pkg/metrics"
	"github.com/wms-platform/inventory-ledger-service/pkg/outbox"
)

// TxRunner runs a function inside one database transaction. Everything the
// function persists through the ctx it receives commits or rolls back
// together.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OperatorService is the single choke point for quantity mutation. Every
// change to an inventory record's quantities goes through here and lands
// exactly one ledger entry, whether triggered by an ad-hoc call or a count
// workflow posting its variances.
type OperatorService struct {
	records domain.InventoryRecordRepository
	ledger  domain.LedgerRepository
	outbox  outbox.Repository
	tx      TxRunner
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewOperatorService creates the operator
func NewOperatorService(
	records domain.InventoryRecordRepository,
	ledger domain.LedgerRepository,
	outboxRepo outbox.Repository,
	tx TxRunner,
	m *metrics.Metrics,
	logger *logging.Logger,
) *OperatorService {
	return &OperatorService{
		records: records,
		ledger:  ledger,
		outbox:  outboxRepo,
		tx:      tx,
		metrics: m,
		logger:  logger,
	}
}

// Adjust posts a signed delta against one record inside its own transaction
func (s *OperatorService) Adjust(ctx context.Context, cmd AdjustCommand) (*InventoryRecordDTO, error) {
	var rec *domain.InventoryRecord
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		rec, _, txErr = s.AdjustInTx(txCtx, domain.AdjustType(cmd.Delta), cmd)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Audit(ctx, "adjust", "inventory_record", rec.ID.String(), actor(cmd.ActorID), map[string]any{
		"sku":           rec.SKU,
		"delta":         cmd.Delta,
		"quantityAfter": rec.QuantityOnHand,
	})
	return ToInventoryRecordDTO(rec), nil
}

// AdjustInTx applies one adjustment inside the caller's transaction. The
// record is re-read through the transactional ctx so the availability check
// and the write see the same committed state. Workflows posting a batch of
// count corrections call this once per line inside one outer transaction.
func (s *OperatorService) AdjustInTx(ctx context.Context, entryType domain.EntryType, cmd AdjustCommand) (*domain.InventoryRecord, *domain.LedgerEntry, error) {
	rec, err := s.records.FindByID(ctx, domain.RecordID(cmd.RecordID))
	if err != nil {
		return nil, nil, err
	}

	before := rec.QuantityOnHand
	if err := rec.ApplyDelta(cmd.Delta); err != nil {
		return nil, nil, err
	}

	refType, refID := reference(cmd.ReferenceType, cmd.ReferenceID, "adjustment")
	entry, err := domain.NewLedgerEntry(entryType, rec, cmd.Delta, before, refType, refID, cmd.ActorID, cmd.Reason)
	if err != nil {
		return nil, nil, err
	}
	entry.FromLocationID = rec.LocationID

	if err := s.records.Save(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("failed to save record: %w", err)
	}
	if _, err := s.ledger.Append(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if err := s.saveEvents(ctx, rec, adjustedEvent(rec, entry), lowStockEvent(rec, cmd.Delta)); err != nil {
		return nil, nil, err
	}

	s.metrics.RecordAdjustmentPosted(refType, cmd.Delta)
	return rec, entry, nil
}

// Transfer splits quantity from a source record to a destination location.
// Both record updates and both ledger entries commit atomically; the pair
// shares one transfer ID so they reconstruct as a single logical move.
func (s *OperatorService) Transfer(ctx context.Context, cmd TransferCommand) (*TransferResultDTO, error) {
	if cmd.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	transferID := domain.NewTransferID()
	var from, to *domain.InventoryRecord
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		from, txErr = s.records.FindByID(txCtx, domain.RecordID(cmd.FromRecordID))
		if txErr != nil {
			return txErr
		}
		if from.QuantityAvailable < cmd.Quantity {
			return domain.ErrInsufficientAvailable
		}

		pos := from.Position()
		pos.LocationID = cmd.ToLocationID
		to, txErr = s.records.FindByPosition(txCtx, from.WarehouseID, pos)
		if txErr != nil && txErr != domain.ErrRecordNotFound {
			return txErr
		}
		if to == nil || txErr == domain.ErrRecordNotFound {
			to = domain.NewInventoryRecord(from.SKU, from.ProductName, from.WarehouseID, cmd.ToLocationID)
			to.Zone = cmd.ToZone
			to.LotNumber = from.LotNumber
			to.SerialNumber = from.SerialNumber
			to.LicensePlate = from.LicensePlate
			to.UnitCostCents = from.UnitCostCents
			to.VelocityClass = from.VelocityClass
			to.ReorderPoint = from.ReorderPoint
		}

		fromBefore := from.QuantityOnHand
		toBefore := to.QuantityOnHand
		if txErr = from.ApplyDelta(-cmd.Quantity); txErr != nil {
			return txErr
		}
		if txErr = to.ApplyDelta(cmd.Quantity); txErr != nil {
			return txErr
		}

		refID := cmd.ReferenceID
		if refID == "" {
			refID = transferID.String()
		}
		outEntry, txErr := domain.NewLedgerEntry(domain.EntryTransfer, from, -cmd.Quantity, fromBefore, "transfer", refID, cmd.ActorID, cmd.Reason)
		if txErr != nil {
			return txErr
		}
		outEntry.FromLocationID = from.LocationID
		outEntry.ToLocationID = cmd.ToLocationID

		inEntry, txErr := domain.NewLedgerEntry(domain.EntryTransfer, to, cmd.Quantity, toBefore, "transfer", refID, cmd.ActorID, cmd.Reason)
		if txErr != nil {
			return txErr
		}
		inEntry.FromLocationID = from.LocationID
		inEntry.ToLocationID = cmd.ToLocationID

		if txErr = s.records.Save(txCtx, from); txErr != nil {
			return fmt.Errorf("failed to save source record: %w", txErr)
		}
		if txErr = s.records.Save(txCtx, to); txErr != nil {
			return fmt.Errorf("failed to save destination record: %w", txErr)
		}
		if txErr = s.ledger.AppendAll(txCtx, []*domain.LedgerEntry{outEntry, inEntry}); txErr != nil {
			return fmt.Errorf("failed to append ledger entries: %w", txErr)
		}

		event := &domain.InventoryTransferredEvent{
			TransferID:     transferID.String(),
			SKU:            from.SKU,
			FromLocationID: from.LocationID,
			ToLocationID:   cmd.ToLocationID,
			Quantity:       cmd.Quantity,
			ActorID:        actor(cmd.ActorID),
			TransferredAt:  time.Now().UTC(),
		}
		return s.saveEvents(txCtx, from, event, lowStockEvent(from, -cmd.Quantity))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransferCompleted("transfer")
	s.logger.Audit(ctx, "transfer", "inventory_record", from.ID.String(), actor(cmd.ActorID), map[string]any{
		"transferId": transferID.String(),
		"sku":        from.SKU,
		"from":       from.LocationID,
		"to":         cmd.ToLocationID,
		"quantity":   cmd.Quantity,
	})
	return &TransferResultDTO{
		TransferID: transferID.String(),
		From:       ToInventoryRecordDTO(from),
		To:         ToInventoryRecordDTO(to),
	}, nil
}

// Move relocates a whole record without splitting quantity. Blocked while
// any of the record's quantity is allocated.
func (s *OperatorService) Move(ctx context.Context, cmd MoveCommand) (*InventoryRecordDTO, error) {
	var rec *domain.InventoryRecord
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		rec, txErr = s.records.FindByID(txCtx, domain.RecordID(cmd.RecordID))
		if txErr != nil {
			return txErr
		}

		fromLocation := rec.LocationID
		if txErr = rec.Relocate(cmd.ToLocationID, cmd.ToZone); txErr != nil {
			return txErr
		}

		entry, txErr := domain.NewLedgerEntry(domain.EntryMove, rec, 0, rec.QuantityOnHand, "move", uuid.New().String(), cmd.ActorID, cmd.Reason)
		if txErr != nil {
			return txErr
		}
		entry.FromLocationID = fromLocation
		entry.ToLocationID = cmd.ToLocationID

		if txErr = s.records.Save(txCtx, rec); txErr != nil {
			return fmt.Errorf("failed to save record: %w", txErr)
		}
		if _, txErr = s.ledger.Append(txCtx, entry); txErr != nil {
			return fmt.Errorf("failed to append ledger entry: %w", txErr)
		}

		event := &domain.InventoryMovedEvent{
			RecordID:       rec.ID.String(),
			SKU:            rec.SKU,
			LicensePlate:   rec.LicensePlate,
			FromLocationID: fromLocation,
			ToLocationID:   cmd.ToLocationID,
			Quantity:       rec.QuantityOnHand,
			ActorID:        actor(cmd.ActorID),
			MovedAt:        time.Now().UTC(),
		}
		return s.saveEvents(txCtx, rec, event)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransferCompleted("move")
	s.logger.Audit(ctx, "move", "inventory_record", rec.ID.String(), actor(cmd.ActorID), map[string]any{
		"to": cmd.ToLocationID,
	})
	return ToInventoryRecordDTO(rec), nil
}

// SetStatus changes a record's disposition, writing a zero-quantity ledger
// entry for audit
func (s *OperatorService) SetStatus(ctx context.Context, cmd SetStatusCommand) (*InventoryRecordDTO, error) {
	status := domain.InventoryStatus(cmd.Status)
	if !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	var rec *domain.InventoryRecord
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		rec, txErr = s.records.FindByID(txCtx, domain.RecordID(cmd.RecordID))
		if txErr != nil {
			return txErr
		}

		oldStatus := rec.Status
		if txErr = rec.SetStatus(status); txErr != nil {
			return txErr
		}

		entry, txErr := domain.NewLedgerEntry(domain.EntryStatusChange, rec, 0, rec.QuantityOnHand, "status_change", uuid.New().String(), cmd.ActorID, cmd.Reason)
		if txErr != nil {
			return txErr
		}
		entry.FromLocationID = rec.LocationID

		if txErr = s.records.Save(txCtx, rec); txErr != nil {
			return fmt.Errorf("failed to save record: %w", txErr)
		}
		if _, txErr = s.ledger.Append(txCtx, entry); txErr != nil {
			return fmt.Errorf("failed to append ledger entry: %w", txErr)
		}

		event := &domain.InventoryStatusChangedEvent{
			RecordID:   rec.ID.String(),
			SKU:        rec.SKU,
			LocationID: rec.LocationID,
			OldStatus:  string(oldStatus),
			NewStatus:  string(status),
			Reason:     cmd.Reason,
			ActorID:    actor(cmd.ActorID),
			ChangedAt:  time.Now().UTC(),
		}
		return s.saveEvents(txCtx, rec, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Audit(ctx, "status_change", "inventory_record", rec.ID.String(), actor(cmd.ActorID), map[string]any{
		"status": cmd.Status,
	})
	return ToInventoryRecordDTO(rec), nil
}

// Receive books stock into a stocking position, creating the record on first
// receipt
func (s *OperatorService) Receive(ctx context.Context, cmd ReceiveCommand) (*InventoryRecordDTO, error) {
	if cmd.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var rec *domain.InventoryRecord
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		pos := domain.PositionKey{
			SKU:          cmd.SKU,
			LocationID:   cmd.LocationID,
			LotNumber:    cmd.LotNumber,
			LicensePlate: cmd.LicensePlate,
		}
		found, txErr := s.records.FindByPosition(txCtx, cmd.WarehouseID, pos)
		if txErr != nil && txErr != domain.ErrRecordNotFound {
			return txErr
		}
		rec = found
		if rec == nil {
			rec = domain.NewInventoryRecord(cmd.SKU, cmd.ProductName, cmd.WarehouseID, cmd.LocationID)
			rec.Zone = cmd.Zone
			rec.LotNumber = cmd.LotNumber
			rec.LicensePlate = cmd.LicensePlate
			rec.UnitCostCents = cmd.UnitCostCents
			rec.ReorderPoint = cmd.ReorderPoint
		}

		before := rec.QuantityOnHand
		if txErr = rec.ApplyDelta(cmd.Quantity); txErr != nil {
			return txErr
		}

		refType, refID := reference("receipt", cmd.ReferenceID, "receipt")
		entry, txErr := domain.NewLedgerEntry(domain.EntryReceive, rec, cmd.Quantity, before, refType, refID, cmd.ActorID, "")
		if txErr != nil {
			return txErr
		}
		entry.ToLocationID = rec.LocationID

		if txErr = s.records.Save(txCtx, rec); txErr != nil {
			return fmt.Errorf("failed to save record: %w", txErr)
		}
		if _, txErr = s.ledger.Append(txCtx, entry); txErr != nil {
			return fmt.Errorf("failed to append ledger entry: %w", txErr)
		}
		return s.saveEvents(txCtx, rec, adjustedEvent(rec, entry))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAdjustmentPosted("receipt", cmd.Quantity)
	s.logger.Audit(ctx, "receive", "inventory_record", rec.ID.String(), actor(cmd.ActorID), map[string]any{
		"sku":      cmd.SKU,
		"location": cmd.LocationID,
		"quantity": cmd.Quantity,
	})
	return ToInventoryRecordDTO(rec), nil
}

// WithinTransaction exposes the operator's transaction runner so workflows
// can wrap their batch posting in one commit
func (s *OperatorService) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.WithinTransaction(ctx, fn)
}

// saveEvents writes domain events to the outbox in the same transaction as
// the state change. Nil events are skipped.
func (s *OperatorService) saveEvents(ctx context.Context, rec *domain.InventoryRecord, events ...domain.DomainEvent) error {
	var rows []*outbox.OutboxEvent
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if _, ok := ev.(*domain.LowStockAlertEvent); ok {
			s.metrics.RecordLowStockAlert()
		}
		row, err := outbox.NewOutboxEvent(rec.ID.String(), "inventory_record", kafka.Topics.InventoryEvents, ev)
		if err != nil {
			return fmt.Errorf("failed to build outbox event: %w", err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.outbox.SaveAll(ctx, rows); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

func adjustedEvent(rec *domain.InventoryRecord, entry *domain.LedgerEntry) domain.DomainEvent {
	return &domain.InventoryAdjustedEvent{
		RecordID:       rec.ID.String(),
		SKU:            rec.SKU,
		LocationID:     rec.LocationID,
		QuantityBefore: entry.QuantityBefore,
		QuantityAfter:  entry.QuantityAfter,
		ReferenceType:  entry.ReferenceType,
		ReferenceID:    entry.ReferenceID,
		Reason:         entry.Reason,
		ActorID:        entry.ActorID,
		AdjustedAt:     entry.CreatedAt,
	}
}

// lowStockEvent returns an alert when a draw-down leaves the record at or
// below its reorder point, nil otherwise
func lowStockEvent(rec *domain.InventoryRecord, delta int) domain.DomainEvent {
	if delta >= 0 || !rec.IsLowStock() {
		return nil
	}
	return &domain.LowStockAlertEvent{
		RecordID:          rec.ID.String(),
		SKU:               rec.SKU,
		LocationID:        rec.LocationID,
		AvailableQuantity: rec.QuantityAvailable,
		ReorderPoint:      rec.ReorderPoint,
		AlertedAt:         time.Now().UTC(),
	}
}

func actor(actorID string) string {
	if actorID == "" {
		return domain.SystemActor
	}
	return actorID
}

func reference(refType, refID, defaultType string) (string, string) {
	if refType == "" {
		refType = defaultType
	}
	if refID == "" {
		refID = uuid.New().String()
	}
	return refType, refID
}
