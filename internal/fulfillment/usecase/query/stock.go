package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/inventory/cache"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
)

// GetStockHandler reads one stock row through the cache
type GetStockHandler struct {
	ledger inventory.StockLedger
	cache  *cache.StockCache
}

// NewGetStockHandler creates a new get stock handler
func NewGetStockHandler(ledger inventory.StockLedger, c *cache.StockCache) *GetStockHandler {
	return &GetStockHandler{ledger: ledger, cache: c}
}

func (h *GetStockHandler) Handle(ctx context.Context, productID, warehouseID uuid.UUID) (inventory.StockSnapshot, error) {
	if snap, ok := h.cache.Get(ctx, productID, warehouseID); ok {
		return snap, nil
	}
	snap, err := h.ledger.GetStock(ctx, productID, warehouseID)
	if err != nil {
		return inventory.StockSnapshot{}, fmt.Errorf("failed to get stock: %w", err)
	}
	h.cache.Set(ctx, snap)
	return snap, nil
}

// ReadPage takes up to n transactions from it. The returned cursor resumes
// after the last one and is nil when the history is exhausted.
func ReadPage(ctx context.Context, it *inventory.TransactionIterator, n int) ([]inventory.InventoryTransaction, *inventory.Cursor, error) {
	page := make([]inventory.InventoryTransaction, 0, n)
	for len(page) < n && it.Next(ctx) {
		page = append(page, it.Transaction())
	}
	if err := it.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read transaction history: %w", err)
	}
	if len(page) < n {
		return page, nil, nil
	}
	return page, it.Cursor(), nil
}

// Reconciliation compares the audit trail of a product with its stock rows.
type Reconciliation struct {
	ProductID  uuid.UUID                 `json:"product_id"`
	LogBalance decimal.Decimal           `json:"log_balance"`
	OnHand     decimal.Decimal           `json:"on_hand"`
	Reserved   decimal.Decimal           `json:"reserved"`
	Balanced   bool                      `json:"balanced"`
	Warehouses []inventory.StockSnapshot `json:"warehouses"`
}

// ReconcileHandler handles the reconciliation query
type ReconcileHandler struct {
	ledger inventory.StockLedger
	log    inventory.TransactionLog
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(ledger inventory.StockLedger, log inventory.TransactionLog) *ReconcileHandler {
	return &ReconcileHandler{ledger: ledger, log: log}
}

func (h *ReconcileHandler) Handle(ctx context.Context, productID uuid.UUID) (*Reconciliation, error) {
	balance, err := h.log.Balance(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}
	rows, err := h.ledger.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock rows: %w", err)
	}

	r := &Reconciliation{
		ProductID:  productID,
		LogBalance: balance,
		Warehouses: make([]inventory.StockSnapshot, 0, len(rows)),
	}
	for _, row := range rows {
		r.OnHand = r.OnHand.Add(row.Quantity)
		r.Reserved = r.Reserved.Add(row.ReservedQuantity)
		r.Warehouses = append(r.Warehouses, row.Snapshot())
	}
	r.Balanced = r.OnHand.Equal(balance)
	return r, nil
}

// LowStockHandler lists products at or below their minimum level
type LowStockHandler struct {
	catalog catalog.Repository
}

// NewLowStockHandler creates a new low stock handler
func NewLowStockHandler(repo catalog.Repository) *LowStockHandler {
	return &LowStockHandler{catalog: repo}
}

func (h *LowStockHandler) Handle(ctx context.Context, limit int) ([]catalog.StockLevel, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	levels, err := h.catalog.LowStock(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}
	return levels, nil
}

// ExpiringBatchesHandler lists lots with stock left that expire soon
type ExpiringBatchesHandler struct {
	batches inventory.BatchRepository
}

// NewExpiringBatchesHandler creates a new expiring batches handler
func NewExpiringBatchesHandler(batches inventory.BatchRepository) *ExpiringBatchesHandler {
	return &ExpiringBatchesHandler{batches: batches}
}

// Handle returns lots expiring within the given number of days from now.
func (h *ExpiringBatchesHandler) Handle(ctx context.Context, withinDays, limit int) ([]inventory.Batch, error) {
	if withinDays <= 0 {
		withinDays = 30
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	before := time.Now().UTC().AddDate(0, 0, withinDays)
	batches, err := h.batches.Expiring(ctx, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring batches: %w", err)
	}
	return batches, nil
}

// ListSerialsHandler handles the serial number listing
type ListSerialsHandler struct {
	serials inventory.SerialRepository
}

// NewListSerialsHandler creates a new list serials handler
func NewListSerialsHandler(serials inventory.SerialRepository) *ListSerialsHandler {
	return &ListSerialsHandler{serials: serials}
}

func (h *ListSerialsHandler) Handle(ctx context.Context, f inventory.SerialFilter) ([]inventory.SerialNumber, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	serials, err := h.serials.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list serial numbers: %w", err)
	}
	return serials, nil
}
