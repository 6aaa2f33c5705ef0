package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/database"
)

// GormTransactionLog implements domain.TransactionLog. Rows are only ever
// inserted.
type GormTransactionLog struct {
	db *gorm.DB
}

func NewGormTransactionLog(db *gorm.DB) *GormTransactionLog {
	return &GormTransactionLog{db: db}
}

func (r *GormTransactionLog) Record(ctx context.Context, txn *domain.InventoryTransaction) error {
	if txn == nil {
		return apperr.Validation("transaction is required")
	}
	if !txn.Quantity.IsPositive() {
		return apperr.Validation("transaction quantity must be positive, got %s", txn.Quantity)
	}
	if !txn.ReferenceType.Valid() {
		return apperr.Validation("unknown reference type %q", txn.ReferenceType)
	}
	return database.MapError(r.db.WithContext(ctx).Create(txn).Error)
}

func (r *GormTransactionLog) History(f domain.HistoryFilter) *domain.TransactionIterator {
	return domain.NewTransactionIterator(f, r.page)
}

// page loads one keyset page in (created_at DESC, id DESC) order.
func (r *GormTransactionLog) page(ctx context.Context, f domain.HistoryFilter) ([]domain.InventoryTransaction, error) {
	q := r.db.WithContext(ctx).Model(&domain.InventoryTransaction{})
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *f.WarehouseID)
	}
	if f.ReferenceType != "" {
		q = q.Where("reference_type = ?", f.ReferenceType)
	}
	if f.ReferenceID != nil {
		q = q.Where("reference_id = ?", *f.ReferenceID)
	}
	if f.After != nil {
		q = q.Where("(created_at, id) < (?, ?)", f.After.CreatedAt, f.After.ID)
	}

	var page []domain.InventoryTransaction
	err := q.Order("created_at DESC").Order("id DESC").Limit(f.PageSize).Find(&page).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return page, nil
}

func (r *GormTransactionLog) Balance(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var out struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).Model(&domain.InventoryTransaction{}).
		Select("COALESCE(SUM(CASE WHEN transaction_type = ? THEN quantity ELSE -quantity END), 0) AS total", domain.Inbound).
		Where("product_id = ?", productID).
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, database.MapError(err)
	}
	return out.Total, nil
}
