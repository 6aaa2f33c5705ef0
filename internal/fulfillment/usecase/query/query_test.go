package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/internal/inventory/cache"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
)

func history(n int) []inventory.InventoryTransaction {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	out := make([]inventory.InventoryTransaction, n)
	for i := range out {
		out[i] = inventory.InventoryTransaction{
			ID:              uuid.New(),
			TransactionType: inventory.Inbound,
			Quantity:        decimal.NewFromInt(1),
			CreatedAt:       base.Add(-time.Duration(i) * time.Second),
		}
	}
	return out
}

func pages(all []inventory.InventoryTransaction) inventory.PageFunc {
	return func(_ context.Context, f inventory.HistoryFilter) ([]inventory.InventoryTransaction, error) {
		start := 0
		if f.After != nil {
			for i, txn := range all {
				if txn.ID == f.After.ID {
					start = i + 1
				}
			}
		}
		return all[start:min(start+f.PageSize, len(all))], nil
	}
}

func TestReadPage(t *testing.T) {
	ctx := context.Background()
	all := history(5)

	page, cursor, err := ReadPage(ctx, inventory.NewTransactionIterator(inventory.HistoryFilter{PageSize: 2}, pages(all)), 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.NotNil(t, cursor)
	assert.Equal(t, all[2].ID, cursor.ID)

	rest, cursor, err := ReadPage(ctx, inventory.NewTransactionIterator(inventory.HistoryFilter{PageSize: 2, After: cursor}, pages(all)), 3)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{all[3].ID, all[4].ID}, []uuid.UUID{rest[0].ID, rest[1].ID})
	assert.Nil(t, cursor, "a short page ends the history")
}

func TestReadPageError(t *testing.T) {
	boom := errors.New("connection reset")
	it := inventory.NewTransactionIterator(inventory.HistoryFilter{}, func(context.Context, inventory.HistoryFilter) ([]inventory.InventoryTransaction, error) {
		return nil, boom
	})
	_, _, err := ReadPage(context.Background(), it, 10)
	assert.ErrorIs(t, err, boom)
}

type fakeLedger struct {
	inventory.StockLedger
	rows  []inventory.WarehouseStock
	reads int
}

func (f *fakeLedger) ListByProduct(context.Context, uuid.UUID) ([]inventory.WarehouseStock, error) {
	return f.rows, nil
}

func (f *fakeLedger) GetStock(_ context.Context, productID, warehouseID uuid.UUID) (inventory.StockSnapshot, error) {
	f.reads++
	return inventory.StockSnapshot{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.NewFromInt(4)}, nil
}

type fakeLog struct {
	inventory.TransactionLog
	balance decimal.Decimal
}

func (f fakeLog) Balance(context.Context, uuid.UUID) (decimal.Decimal, error) {
	return f.balance, nil
}

func TestReconcile(t *testing.T) {
	productID := uuid.New()
	ledger := &fakeLedger{rows: []inventory.WarehouseStock{
		{ProductID: productID, WarehouseID: uuid.New(), Quantity: decimal.NewFromInt(7), ReservedQuantity: decimal.NewFromInt(2)},
		{ProductID: productID, WarehouseID: uuid.New(), Quantity: decimal.NewFromInt(3)},
	}}

	r, err := NewReconcileHandler(ledger, fakeLog{balance: decimal.NewFromInt(10)}).Handle(context.Background(), productID)
	require.NoError(t, err)
	assert.True(t, r.Balanced)
	assert.True(t, r.OnHand.Equal(decimal.NewFromInt(10)))
	assert.True(t, r.Reserved.Equal(decimal.NewFromInt(2)))
	assert.Len(t, r.Warehouses, 2)

	r, err = NewReconcileHandler(ledger, fakeLog{balance: decimal.NewFromInt(11)}).Handle(context.Background(), productID)
	require.NoError(t, err)
	assert.False(t, r.Balanced)
}

func TestGetStockWithoutCache(t *testing.T) {
	ledger := &fakeLedger{}
	h := NewGetStockHandler(ledger, cache.NewStockCache(nil, time.Minute))

	snap, err := h.Handle(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "4", snap.Quantity.String())

	_, err = h.Handle(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.reads, "a disabled cache always reads through")
}

type fakeSales struct {
	domain.SaleRepository
	filter domain.SaleFilter
}

func (f *fakeSales) List(_ context.Context, filter domain.SaleFilter) ([]domain.Sale, int64, error) {
	f.filter = filter
	return nil, 0, nil
}

func TestListSalesBounds(t *testing.T) {
	tests := []struct {
		name       string
		query      ListSalesQuery
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: ListSalesQuery{}, wantLimit: 10},
		{name: "caps limit", query: ListSalesQuery{Limit: 1000}, wantLimit: 100},
		{name: "negative offset", query: ListSalesQuery{Limit: 5, Offset: -3}, wantLimit: 5},
		{name: "keeps offset", query: ListSalesQuery{Limit: 20, Offset: 40}, wantLimit: 20, wantOffset: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeSales{}
			page, err := NewListSalesHandler(repo).Handle(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, repo.filter.Limit)
			assert.Equal(t, tt.wantOffset, repo.filter.Offset)
			assert.Equal(t, tt.wantLimit, page.Limit)
		})
	}
}

type fakeCatalog struct {
	catalog.Repository
	limit int
}

func (f *fakeCatalog) LowStock(_ context.Context, limit int) ([]catalog.StockLevel, error) {
	f.limit = limit
	return nil, nil
}

type fakeBatches struct {
	inventory.BatchRepository
	before time.Time
	limit  int
}

func (f *fakeBatches) Expiring(_ context.Context, before time.Time, limit int) ([]inventory.Batch, error) {
	f.before, f.limit = before, limit
	return nil, nil
}

type fakeSerials struct {
	inventory.SerialRepository
	filter inventory.SerialFilter
}

func (f *fakeSerials) List(_ context.Context, filter inventory.SerialFilter) ([]inventory.SerialNumber, error) {
	f.filter = filter
	return nil, nil
}

func TestListingDefaults(t *testing.T) {
	ctx := context.Background()

	cat := &fakeCatalog{}
	_, err := NewLowStockHandler(cat).Handle(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, cat.limit)

	batches := &fakeBatches{}
	_, err = NewExpiringBatchesHandler(batches).Handle(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, batches.limit)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), batches.before, time.Minute)

	serials := &fakeSerials{}
	_, err = NewListSerialsHandler(serials).Handle(ctx, inventory.SerialFilter{Limit: 9999})
	require.NoError(t, err)
	assert.Equal(t, 500, serials.filter.Limit)
}
