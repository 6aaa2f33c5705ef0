package usecase

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// memState is a snapshot of every table the fulfillment core writes.
type memState struct {
	products   map[uuid.UUID]catalog.Product
	warehouses map[uuid.UUID]catalog.Warehouse
	customers  map[uuid.UUID]catalog.Customer
	suppliers  map[uuid.UUID]catalog.Supplier
	stock      map[inventory.StockKey]inventory.WarehouseStock
	txns       []inventory.InventoryTransaction
	sales      map[uuid.UUID]domain.Sale
	pos        map[uuid.UUID]domain.PurchaseOrder
	transfers  map[uuid.UUID]domain.WarehouseTransfer
}

func newMemState() *memState {
	return &memState{
		products:   map[uuid.UUID]catalog.Product{},
		warehouses: map[uuid.UUID]catalog.Warehouse{},
		customers:  map[uuid.UUID]catalog.Customer{},
		suppliers:  map[uuid.UUID]catalog.Supplier{},
		stock:      map[inventory.StockKey]inventory.WarehouseStock{},
		sales:      map[uuid.UUID]domain.Sale{},
		pos:        map[uuid.UUID]domain.PurchaseOrder{},
		transfers:  map[uuid.UUID]domain.WarehouseTransfer{},
	}
}

func (s *memState) clone() *memState {
	out := &memState{
		products:   maps.Clone(s.products),
		warehouses: maps.Clone(s.warehouses),
		customers:  maps.Clone(s.customers),
		suppliers:  maps.Clone(s.suppliers),
		stock:      maps.Clone(s.stock),
		txns:       slices.Clone(s.txns),
		sales:      make(map[uuid.UUID]domain.Sale, len(s.sales)),
		pos:        make(map[uuid.UUID]domain.PurchaseOrder, len(s.pos)),
		transfers:  make(map[uuid.UUID]domain.WarehouseTransfer, len(s.transfers)),
	}
	for id, v := range s.sales {
		out.sales[id] = cloneSale(v)
	}
	for id, v := range s.pos {
		v.Items = slices.Clone(v.Items)
		out.pos[id] = v
	}
	for id, v := range s.transfers {
		v.Items = slices.Clone(v.Items)
		out.transfers[id] = v
	}
	return out
}

func cloneSale(s domain.Sale) domain.Sale {
	s.Items = slices.Clone(s.Items)
	if s.Shipment != nil {
		sh := *s.Shipment
		s.Shipment = &sh
	}
	return s
}

// memUnitOfWork runs units serially against a private copy of the state and
// swaps it in only when the unit succeeds.
type memUnitOfWork struct {
	mu    sync.Mutex
	state *memState
}

func newMemUnitOfWork() *memUnitOfWork {
	return &memUnitOfWork{state: newMemState()}
}

func (m *memUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(ctx, memRepos{state: func() *memState { return work }}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memUnitOfWork) Read() domain.Repositories {
	return memRepos{state: func() *memState { return m.state }}
}

func (m *memUnitOfWork) committed() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

type memRepos struct {
	state func() *memState
}

func (r memRepos) Stock() inventory.StockLedger { return memStock(r) }
func (r memRepos) Transactions() inventory.TransactionLog { return memLog(r) }
func (r memRepos) Serials() inventory.SerialRepository { return memSerials{} }
func (r memRepos) Batches() inventory.BatchRepository { return nil }
func (r memRepos) Sales() domain.SaleRepository { return memSales(r) }
func (r memRepos) PurchaseOrders() domain.PurchaseOrderRepository { return memPOs(r) }
func (r memRepos) Transfers() domain.TransferRepository { return memTransfers(r) }
func (r memRepos) Catalog() catalog.Lookup { return memCatalog{state: r.state} }

// memCatalog serves lookups and the low stock report; the create and list
// methods are not used by the coordinator.
type memCatalog struct {
	catalog.Repository
	state func() *memState
}

func (c memCatalog) Product(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := c.state().products[id]
	if !ok {
		return nil, apperr.NotFound("product", id)
	}
	return &p, nil
}

func (c memCatalog) Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	out := make(map[uuid.UUID]*catalog.Product, len(ids))
	for _, id := range ids {
		p, err := c.Product(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

func (c memCatalog) Warehouse(_ context.Context, id uuid.UUID) (*catalog.Warehouse, error) {
	w, ok := c.state().warehouses[id]
	if !ok {
		return nil, apperr.NotFound("warehouse", id)
	}
	return &w, nil
}

func (c memCatalog) Customer(_ context.Context, id uuid.UUID) (*catalog.Customer, error) {
	v, ok := c.state().customers[id]
	if !ok {
		return nil, apperr.NotFound("customer", id)
	}
	return &v, nil
}

func (c memCatalog) Supplier(_ context.Context, id uuid.UUID) (*catalog.Supplier, error) {
	v, ok := c.state().suppliers[id]
	if !ok {
		return nil, apperr.NotFound("supplier", id)
	}
	return &v, nil
}

func (c memCatalog) LowStock(ctx context.Context, limit int) ([]catalog.StockLevel, error) {
	var out []catalog.StockLevel
	for _, p := range c.state().products {
		onHand, _ := memStock{state: c.state}.TotalOnHand(ctx, p.ID)
		if p.IsLow(onHand) {
			out = append(out, catalog.StockLevel{Product: p, OnHand: onHand})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memSerials holds no units; fixtures only use untracked products.
type memSerials struct {
	inventory.SerialRepository
}

func (memSerials) ReleaseSale(context.Context, uuid.UUID) (int64, error) { return 0, nil }

type memStock memRepos

func (r memStock) GetStock(_ context.Context, productID, warehouseID uuid.UUID) (inventory.StockSnapshot, error) {
	key := inventory.StockKey{ProductID: productID, WarehouseID: warehouseID}
	row, ok := r.state().stock[key]
	if !ok {
		return inventory.EmptySnapshot(key), nil
	}
	return row.Snapshot(), nil
}

func (r memStock) Lock(context.Context, ...inventory.StockKey) error { return nil }

func (r memStock) row(key inventory.StockKey, create bool) (inventory.WarehouseStock, bool) {
	row, ok := r.state().stock[key]
	if !ok && create {
		row = inventory.WarehouseStock{ID: uuid.New(), ProductID: key.ProductID, WarehouseID: key.WarehouseID}
		ok = true
	}
	return row, ok
}

func (r memStock) record(txn *inventory.InventoryTransaction) {
	txn.ID = uuid.New()
	txn.CreatedAt = time.Now().UTC()
	s := r.state()
	s.txns = append(s.txns, *txn)
}

func (r memStock) Adjust(_ context.Context, m inventory.Movement) (*inventory.InventoryTransaction, error) {
	if m.Delta.IsZero() {
		return nil, apperr.Validation("adjustment quantity must be non-zero")
	}
	key := inventory.StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
	row, ok := r.row(key, m.Delta.IsPositive())
	if !ok {
		return nil, apperr.InsufficientStock(m.ProductID, m.WarehouseID, m.Delta.Neg(), decimal.Zero)
	}
	if err := row.Apply(m.Delta); err != nil {
		return nil, err
	}
	r.state().stock[key] = row

	txn := inventory.NewTransaction(m.ProductID, m.WarehouseID, m.Delta, row.Quantity, m.ReferenceType, m.ReferenceID, m.Notes)
	r.record(txn)
	return txn, nil
}

func (r memStock) Reserve(_ context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) (inventory.StockSnapshot, error) {
	key := inventory.StockKey{ProductID: productID, WarehouseID: warehouseID}
	row, ok := r.row(key, false)
	if !ok {
		return inventory.StockSnapshot{}, apperr.InsufficientStock(productID, warehouseID, qty, decimal.Zero)
	}
	if err := row.Reserve(qty); err != nil {
		return inventory.StockSnapshot{}, err
	}
	r.state().stock[key] = row
	return row.Snapshot(), nil
}

func (r memStock) Release(_ context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) (inventory.StockSnapshot, error) {
	key := inventory.StockKey{ProductID: productID, WarehouseID: warehouseID}
	row, ok := r.row(key, false)
	if !ok {
		return inventory.EmptySnapshot(key), nil
	}
	row.Release(qty)
	r.state().stock[key] = row
	return row.Snapshot(), nil
}

func (r memStock) Consume(_ context.Context, c inventory.Consumption) (*inventory.InventoryTransaction, error) {
	key := inventory.StockKey{ProductID: c.ProductID, WarehouseID: c.WarehouseID}
	row, ok := r.row(key, false)
	if !ok {
		return nil, apperr.InsufficientStock(c.ProductID, c.WarehouseID, c.Quantity, decimal.Zero)
	}
	if err := row.Consume(c.Quantity, c.Held); err != nil {
		return nil, err
	}
	r.state().stock[key] = row

	txn := inventory.NewTransaction(c.ProductID, c.WarehouseID, c.Quantity.Neg(), row.Quantity, c.ReferenceType, c.ReferenceID, c.Notes)
	r.record(txn)
	return txn, nil
}

func (r memStock) TotalOnHand(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for key, row := range r.state().stock {
		if key.ProductID == productID {
			total = total.Add(row.Quantity)
		}
	}
	return total, nil
}

func (r memStock) ListByProduct(_ context.Context, productID uuid.UUID) ([]inventory.WarehouseStock, error) {
	var rows []inventory.WarehouseStock
	for key, row := range r.state().stock {
		if key.ProductID == productID {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b inventory.WarehouseStock) int { return a.Key().Compare(b.Key()) })
	return rows, nil
}

type memLog memRepos

func (r memLog) Record(_ context.Context, txn *inventory.InventoryTransaction) error {
	memStock(r).record(txn)
	return nil
}

// History pages newest first, breaking timestamp ties by id like the SQL
// ordering does.
func (r memLog) History(f inventory.HistoryFilter) *inventory.TransactionIterator {
	return inventory.NewTransactionIterator(f, func(_ context.Context, f inventory.HistoryFilter) ([]inventory.InventoryTransaction, error) {
		all := slices.Clone(r.state().txns)
		slices.SortFunc(all, newestFirst)
		var page []inventory.InventoryTransaction
		for _, txn := range all {
			if f.ProductID != nil && txn.ProductID != *f.ProductID {
				continue
			}
			if f.WarehouseID != nil && txn.WarehouseID != *f.WarehouseID {
				continue
			}
			if f.ReferenceType != "" && txn.ReferenceType != f.ReferenceType {
				continue
			}
			if f.After != nil && newestFirst(txn, inventory.InventoryTransaction{ID: f.After.ID, CreatedAt: f.After.CreatedAt}) <= 0 {
				continue
			}
			page = append(page, txn)
			if len(page) == f.PageSize {
				break
			}
		}
		return page, nil
	})
}

func newestFirst(a, b inventory.InventoryTransaction) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return bytes.Compare(b.ID[:], a.ID[:])
}

func (r memLog) Balance(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, txn := range r.state().txns {
		if txn.ProductID == productID {
			total = total.Add(txn.Signed())
		}
	}
	return total, nil
}

type memSales memRepos

func (r memSales) Create(_ context.Context, s *domain.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Items {
		s.Items[i].ID = uuid.New()
		s.Items[i].SaleID = s.ID
	}
	s.CreatedAt = time.Now().UTC()
	r.state().sales[s.ID] = cloneSale(*s)
	return nil
}

func (r memSales) FindByID(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	s, ok := r.state().sales[id]
	if !ok {
		return nil, apperr.NotFound("sale", id)
	}
	out := cloneSale(s)
	return &out, nil
}

func (r memSales) FindForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r memSales) Save(_ context.Context, s *domain.Sale) error {
	stored := cloneSale(*s)
	if prev, ok := r.state().sales[s.ID]; ok && stored.Shipment == nil {
		stored.Shipment = prev.Shipment
	}
	r.state().sales[s.ID] = stored
	return nil
}

func (r memSales) SaveItems(_ context.Context, items []domain.SaleItem) error {
	for _, item := range items {
		s := r.state().sales[item.SaleID]
		s.Items = slices.Clone(s.Items)
		for i := range s.Items {
			if s.Items[i].ID == item.ID {
				s.Items[i] = item
			}
		}
		r.state().sales[item.SaleID] = s
	}
	return nil
}

func (r memSales) ReplaceItems(_ context.Context, s *domain.Sale) error {
	for i := range s.Items {
		s.Items[i].ID = uuid.New()
		s.Items[i].SaleID = s.ID
	}
	stored := r.state().sales[s.ID]
	stored.Items = slices.Clone(s.Items)
	r.state().sales[s.ID] = stored
	return nil
}

func (r memSales) CreateShipment(ctx context.Context, sh *domain.Shipment) error {
	sh.ID = uuid.New()
	return r.SaveShipment(ctx, sh)
}

func (r memSales) SaveShipment(_ context.Context, sh *domain.Shipment) error {
	stored := r.state().sales[sh.SaleID]
	copied := *sh
	stored.Shipment = &copied
	r.state().sales[sh.SaleID] = stored
	return nil
}

func (r memSales) List(_ context.Context, f domain.SaleFilter) ([]domain.Sale, int64, error) {
	var all []domain.Sale
	for _, s := range r.state().sales {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.CustomerID != nil && s.CustomerID != *f.CustomerID {
			continue
		}
		all = append(all, cloneSale(s))
	}
	slices.SortFunc(all, func(a, b domain.Sale) int { return b.SaleDate.Compare(a.SaleDate) })
	total := int64(len(all))
	start := min(f.Offset, len(all))
	end := min(start+f.Limit, len(all))
	return all[start:end], total, nil
}

func (r memSales) PaymentDue(_ context.Context, asOf time.Time, limit int) ([]domain.Sale, error) {
	var out []domain.Sale
	for _, s := range r.state().sales {
		if s.PaymentDue(asOf) && len(out) < limit {
			out = append(out, cloneSale(s))
		}
	}
	return out, nil
}

type memPOs memRepos

func (r memPOs) Create(ctx context.Context, p *domain.PurchaseOrder) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Items {
		p.Items[i].ID = uuid.New()
		p.Items[i].PurchaseOrderID = p.ID
	}
	return r.Save(ctx, p)
}

func (r memPOs) FindByID(_ context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	p, ok := r.state().pos[id]
	if !ok {
		return nil, apperr.NotFound("purchase order", id)
	}
	p.Items = slices.Clone(p.Items)
	return &p, nil
}

func (r memPOs) FindForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return r.FindByID(ctx, id)
}

func (r memPOs) Save(_ context.Context, p *domain.PurchaseOrder) error {
	stored := *p
	stored.Items = slices.Clone(p.Items)
	r.state().pos[p.ID] = stored
	return nil
}

func (r memPOs) SaveItem(_ context.Context, item *domain.PurchaseOrderItem) error {
	p := r.state().pos[item.PurchaseOrderID]
	p.Items = slices.Clone(p.Items)
	for i := range p.Items {
		if p.Items[i].ID == item.ID {
			p.Items[i] = *item
		}
	}
	r.state().pos[item.PurchaseOrderID] = p
	return nil
}

type memTransfers memRepos

func (r memTransfers) Create(ctx context.Context, t *domain.WarehouseTransfer) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	for i := range t.Items {
		t.Items[i].ID = uuid.New()
		t.Items[i].TransferID = t.ID
	}
	return r.Save(ctx, t)
}

func (r memTransfers) FindByID(_ context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error) {
	t, ok := r.state().transfers[id]
	if !ok {
		return nil, apperr.NotFound("transfer", id)
	}
	t.Items = slices.Clone(t.Items)
	return &t, nil
}

func (r memTransfers) FindForUpdate(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error) {
	return r.FindByID(ctx, id)
}

func (r memTransfers) Save(_ context.Context, t *domain.WarehouseTransfer) error {
	stored := *t
	stored.Items = slices.Clone(t.Items)
	r.state().transfers[t.ID] = stored
	return nil
}

// recordingPublisher keeps every published event and fails when err is set.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
