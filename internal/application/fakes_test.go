package application

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wms-platform/inventory-ledger-service/internal/domain"
	"github.com/wms-platform/inventory-ledger-service/pkg/logging"
	"github.com/wms-platform/inventory-ledger-service/pkg/metrics"
	"github.com/wms-platform/inventory-ledger-service/pkg/outbox"
)

// fakeRecordRepo keeps records in a map. Reads hand out copies so callers
// mutate nothing until Save, mirroring how a real store behaves.
type fakeRecordRepo struct {
	records       map[domain.RecordID]domain.InventoryRecord
	findErr       error
	findPosErr    error
	saveErr       error
	failSaveAfter int // fail the Nth save when > 0
	saves         int
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[domain.RecordID]domain.InventoryRecord)}
}

func (f *fakeRecordRepo) seed(rec *domain.InventoryRecord) {
	f.records[rec.ID] = *rec
}

func (f *fakeRecordRepo) FindByID(ctx context.Context, id domain.RecordID) (*domain.InventoryRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &rec, nil
}

func (f *fakeRecordRepo) FindByPosition(ctx context.Context, warehouseID string, pos domain.PositionKey) (*domain.InventoryRecord, error) {
	if f.findPosErr != nil {
		return nil, f.findPosErr
	}
	for _, rec := range f.records {
		if rec.WarehouseID == warehouseID && rec.Position() == pos {
			r := rec
			return &r, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (f *fakeRecordRepo) FindByScope(ctx context.Context, warehouseID string, scope domain.ScopeSelector) ([]*domain.InventoryRecord, error) {
	var out []*domain.InventoryRecord
	for _, rec := range f.records {
		if rec.WarehouseID != warehouseID {
			continue
		}
		if matchesScope(&rec, scope) {
			r := rec
			out = append(out, &r)
		}
	}
	return out, nil
}

func matchesScope(rec *domain.InventoryRecord, scope domain.ScopeSelector) bool {
	switch scope.Kind {
	case domain.ScopeByLocations:
		for _, loc := range scope.LocationIDs {
			if rec.LocationID == loc {
				return true
			}
		}
	case domain.ScopeByZone:
		return rec.Zone == scope.Zone
	case domain.ScopeBySKUs:
		for _, sku := range scope.SKUs {
			if rec.SKU == sku {
				return true
			}
		}
	case domain.ScopeByVelocityClass:
		return rec.VelocityClass == scope.VelocityClass
	}
	return false
}

func (f *fakeRecordRepo) FindByLocation(ctx context.Context, warehouseID, locationID string) ([]*domain.InventoryRecord, error) {
	var out []*domain.InventoryRecord
	for _, rec := range f.records {
		if rec.WarehouseID == warehouseID && rec.LocationID == locationID {
			r := rec
			out = append(out, &r)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) DistinctLocations(ctx context.Context, warehouseID string, zones []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range f.records {
		if rec.WarehouseID != warehouseID {
			continue
		}
		if len(zones) > 0 && !containsString(zones, rec.Zone) {
			continue
		}
		if _, ok := seen[rec.LocationID]; !ok {
			seen[rec.LocationID] = struct{}{}
			out = append(out, rec.LocationID)
		}
	}
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *fakeRecordRepo) Search(ctx context.Context, filter domain.RecordFilter) ([]*domain.InventoryRecord, error) {
	var out []*domain.InventoryRecord
	for _, rec := range f.records {
		if filter.WarehouseID != "" && rec.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.SKU != "" && rec.SKU != filter.SKU {
			continue
		}
		if filter.LocationID != "" && rec.LocationID != filter.LocationID {
			continue
		}
		if !filter.IncludeZero && rec.QuantityOnHand == 0 {
			continue
		}
		r := rec
		out = append(out, &r)
	}
	return out, nil
}

func (f *fakeRecordRepo) Save(ctx context.Context, record *domain.InventoryRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	if f.failSaveAfter > 0 && f.saves >= f.failSaveAfter {
		return fmt.Errorf("simulated save failure")
	}
	f.records[record.ID] = *record
	return nil
}

func (f *fakeRecordRepo) snapshot() map[domain.RecordID]domain.InventoryRecord {
	snap := make(map[domain.RecordID]domain.InventoryRecord, len(f.records))
	for k, v := range f.records {
		snap[k] = v
	}
	return snap
}

type fakeLedgerRepo struct {
	entries []domain.LedgerEntry
}

func (f *fakeLedgerRepo) Append(ctx context.Context, entry *domain.LedgerEntry) (domain.EntryID, error) {
	f.entries = append(f.entries, *entry)
	return entry.ID, nil
}

func (f *fakeLedgerRepo) AppendAll(ctx context.Context, entries []*domain.LedgerEntry) error {
	for _, e := range entries {
		f.entries = append(f.entries, *e)
	}
	return nil
}

func (f *fakeLedgerRepo) Query(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]
		if filter.RecordID != "" && e.RecordID != filter.RecordID {
			continue
		}
		if filter.ReferenceID != "" && e.ReferenceID != filter.ReferenceID {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		out = append(out, &e)
	}
	return out, nil
}

func (f *fakeLedgerRepo) byRecord(id domain.RecordID) []domain.LedgerEntry {
	var out []domain.LedgerEntry
	for _, e := range f.entries {
		if e.RecordID == id {
			out = append(out, e)
		}
	}
	return out
}

type fakeOutboxRepo struct {
	rows []*outbox.OutboxEvent
}

func (f *fakeOutboxRepo) Save(ctx context.Context, event *outbox.OutboxEvent) error {
	f.rows = append(f.rows, event)
	return nil
}

func (f *fakeOutboxRepo) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	f.rows = append(f.rows, events...)
	return nil
}

func (f *fakeOutboxRepo) FindUnpublished(ctx context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	return f.rows, nil
}

func (f *fakeOutboxRepo) MarkPublished(ctx context.Context, eventID string) error { return nil }

func (f *fakeOutboxRepo) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	return nil
}

func (f *fakeOutboxRepo) DeletePublished(ctx context.Context, olderThan time.Duration) error {
	return nil
}

func (f *fakeOutboxRepo) eventTypes() []string {
	var out []string
	for _, row := range f.rows {
		out = append(out, row.EventType)
	}
	return out
}

// fakeTxRunner snapshots the fake stores before running the function and
// restores them when it fails, imitating a transaction rollback
type fakeTxRunner struct {
	records *fakeRecordRepo
	ledger  *fakeLedgerRepo
	box     *fakeOutboxRepo
}

func (f *fakeTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	recSnap := f.records.snapshot()
	ledgerSnap := append([]domain.LedgerEntry(nil), f.ledger.entries...)
	boxSnap := append([]*outbox.OutboxEvent(nil), f.box.rows...)

	if err := fn(ctx); err != nil {
		f.records.records = recSnap
		f.ledger.entries = ledgerSnap
		f.box.rows = boxSnap
		return err
	}
	return nil
}

type fakeCycleCountRepo struct {
	counts map[string]*domain.CycleCount
}

func newFakeCycleCountRepo() *fakeCycleCountRepo {
	return &fakeCycleCountRepo{counts: make(map[string]*domain.CycleCount)}
}

func (f *fakeCycleCountRepo) FindByID(ctx context.Context, id string) (*domain.CycleCount, error) {
	cc, ok := f.counts[id]
	if !ok {
		return nil, domain.ErrCountNotFound
	}
	return cc, nil
}

func (f *fakeCycleCountRepo) List(ctx context.Context, warehouseID string, status domain.CycleCountStatus, limit, offset int64) ([]*domain.CycleCount, error) {
	var out []*domain.CycleCount
	for _, cc := range f.counts {
		if warehouseID != "" && cc.WarehouseID != warehouseID {
			continue
		}
		if status != "" && cc.Status != status {
			continue
		}
		out = append(out, cc)
	}
	return out, nil
}

func (f *fakeCycleCountRepo) Save(ctx context.Context, count *domain.CycleCount) error {
	f.counts[count.ID] = count
	return nil
}

type fakePIRepo struct {
	sessions map[string]*domain.PhysicalInventory
}

func newFakePIRepo() *fakePIRepo {
	return &fakePIRepo{sessions: make(map[string]*domain.PhysicalInventory)}
}

func (f *fakePIRepo) FindByID(ctx context.Context, id string) (*domain.PhysicalInventory, error) {
	pi, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrPINotFound
	}
	return pi, nil
}

func (f *fakePIRepo) List(ctx context.Context, warehouseID string, status domain.PhysicalInventoryStatus, limit, offset int64) ([]*domain.PhysicalInventory, error) {
	var out []*domain.PhysicalInventory
	for _, pi := range f.sessions {
		if warehouseID != "" && pi.WarehouseID != warehouseID {
			continue
		}
		if status != "" && pi.Status != status {
			continue
		}
		out = append(out, pi)
	}
	return out, nil
}

func (f *fakePIRepo) Save(ctx context.Context, pi *domain.PhysicalInventory) error {
	f.sessions[pi.ID] = pi
	return nil
}

type testEnv struct {
	records  *fakeRecordRepo
	ledger   *fakeLedgerRepo
	box      *fakeOutboxRepo
	counts   *fakeCycleCountRepo
	sessions *fakePIRepo
	operator *OperatorService
}

func newTestEnv() *testEnv {
	records := newFakeRecordRepo()
	ledger := &fakeLedgerRepo{}
	box := &fakeOutboxRepo{}
	tx := &fakeTxRunner{records: records, ledger: ledger, box: box}

	logger := logging.New(&logging.Config{ServiceName: "test", Output: io.Discard})
	m := metrics.New(metrics.DefaultConfig("test"))

	return &testEnv{
		records:  records,
		ledger:   ledger,
		box:      box,
		counts:   newFakeCycleCountRepo(),
		sessions: newFakePIRepo(),
		operator: NewOperatorService(records, ledger, box, tx, m, logger),
	}
}

func (e *testEnv) cycleCountService() *CycleCountService {
	logger := logging.New(&logging.Config{ServiceName: "test", Output: io.Discard})
	m := metrics.New(metrics.DefaultConfig("test"))
	return NewCycleCountService(e.counts, e.records, e.operator, e.box, m, logger)
}

func (e *testEnv) physicalInventoryService() *PhysicalInventoryService {
	logger := logging.New(&logging.Config{ServiceName: "test", Output: io.Discard})
	m := metrics.New(metrics.DefaultConfig("test"))
	return NewPhysicalInventoryService(e.sessions, e.records, e.operator, e.box, m, logger)
}

func seedRecord(e *testEnv, sku, location string, onHand, allocated int) *domain.InventoryRecord {
	rec := domain.NewInventoryRecord(sku, sku, "WH-001", location)
	rec.Zone = "A"
	rec.QuantityOnHand = onHand
	rec.QuantityAllocated = allocated
	rec.QuantityAvailable = onHand - allocated
	e.records.seed(rec)
	return rec
}
