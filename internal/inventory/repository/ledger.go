package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/database"
)

// GormStockLedger implements domain.StockLedger on warehouse_stock. Its row
// locks last until the enclosing database transaction ends.
type GormStockLedger struct {
	db  *gorm.DB
	log *GormTransactionLog
}

func NewGormStockLedger(db *gorm.DB) *GormStockLedger {
	return &GormStockLedger{db: db, log: NewGormTransactionLog(db)}
}

func (r *GormStockLedger) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (domain.StockSnapshot, error) {
	var row domain.WarehouseStock
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.EmptySnapshot(domain.StockKey{ProductID: productID, WarehouseID: warehouseID}), nil
	}
	if err != nil {
		return domain.StockSnapshot{}, database.MapError(err)
	}
	return row.Snapshot(), nil
}

func (r *GormStockLedger) Lock(ctx context.Context, keys ...domain.StockKey) error {
	for _, key := range domain.CanonicalKeys(keys) {
		if _, err := r.locked(ctx, key, false); err != nil {
			return err
		}
	}
	return nil
}

func (r *GormStockLedger) Adjust(ctx context.Context, m domain.Movement) (*domain.InventoryTransaction, error) {
	if m.Delta.IsZero() {
		return nil, apperr.Validation("adjustment quantity must be non-zero")
	}
	if !m.ReferenceType.Valid() {
		return nil, apperr.Validation("unknown reference type %q", m.ReferenceType)
	}

	key := domain.StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
	row, err := r.locked(ctx, key, m.Delta.IsPositive())
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.InsufficientStock(m.ProductID, m.WarehouseID, m.Delta.Neg(), decimal.Zero)
	}
	if err := row.Apply(m.Delta); err != nil {
		return nil, err
	}
	if err := r.save(ctx, row); err != nil {
		return nil, err
	}

	txn := domain.NewTransaction(m.ProductID, m.WarehouseID, m.Delta, row.Quantity, m.ReferenceType, m.ReferenceID, m.Notes)
	if err := r.log.Record(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *GormStockLedger) Reserve(ctx context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) (domain.StockSnapshot, error) {
	row, err := r.locked(ctx, domain.StockKey{ProductID: productID, WarehouseID: warehouseID}, false)
	if err != nil {
		return domain.StockSnapshot{}, err
	}
	if row == nil {
		return domain.StockSnapshot{}, apperr.InsufficientStock(productID, warehouseID, qty, decimal.Zero)
	}
	if err := row.Reserve(qty); err != nil {
		return domain.StockSnapshot{}, err
	}
	if err := r.save(ctx, row); err != nil {
		return domain.StockSnapshot{}, err
	}
	return row.Snapshot(), nil
}

func (r *GormStockLedger) Release(ctx context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) (domain.StockSnapshot, error) {
	key := domain.StockKey{ProductID: productID, WarehouseID: warehouseID}
	row, err := r.locked(ctx, key, false)
	if err != nil {
		return domain.StockSnapshot{}, err
	}
	if row == nil {
		return domain.EmptySnapshot(key), nil
	}
	if row.Release(qty).IsZero() {
		return row.Snapshot(), nil
	}
	if err := r.save(ctx, row); err != nil {
		return domain.StockSnapshot{}, err
	}
	return row.Snapshot(), nil
}

func (r *GormStockLedger) Consume(ctx context.Context, c domain.Consumption) (*domain.InventoryTransaction, error) {
	if !c.ReferenceType.Valid() {
		return nil, apperr.Validation("unknown reference type %q", c.ReferenceType)
	}
	row, err := r.locked(ctx, domain.StockKey{ProductID: c.ProductID, WarehouseID: c.WarehouseID}, false)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.InsufficientStock(c.ProductID, c.WarehouseID, c.Quantity, decimal.Zero)
	}
	if err := row.Consume(c.Quantity, c.Held); err != nil {
		return nil, err
	}
	if err := r.save(ctx, row); err != nil {
		return nil, err
	}

	txn := domain.NewTransaction(c.ProductID, c.WarehouseID, c.Quantity.Neg(), row.Quantity, c.ReferenceType, c.ReferenceID, c.Notes)
	if err := r.log.Record(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *GormStockLedger) TotalOnHand(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var out struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).Model(&domain.WarehouseStock{}).
		Select("COALESCE(SUM(quantity), 0) AS total").
		Where("product_id = ?", productID).
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, database.MapError(err)
	}
	return out.Total, nil
}

func (r *GormStockLedger) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.WarehouseStock, error) {
	var rows []domain.WarehouseStock
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("warehouse_id").
		Find(&rows).Error
	return rows, database.MapError(err)
}

// locked selects the row FOR UPDATE. When create is set a missing row is
// inserted first; concurrent creators converge on the same row through the
// unique index. A missing row with create unset yields nil.
func (r *GormStockLedger) locked(ctx context.Context, key domain.StockKey, create bool) (*domain.WarehouseStock, error) {
	row, err := r.selectForUpdate(ctx, key)
	if err != nil || row != nil || !create {
		return row, err
	}

	seed := domain.WarehouseStock{ProductID: key.ProductID, WarehouseID: key.WarehouseID}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoNothing: true,
		}).
		Create(&seed).Error
	if err != nil {
		return nil, database.MapError(err)
	}

	row, err = r.selectForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("stock row for product %s in warehouse %s vanished after insert", key.ProductID, key.WarehouseID)
	}
	return row, nil
}

func (r *GormStockLedger) selectForUpdate(ctx context.Context, key domain.StockKey) (*domain.WarehouseStock, error) {
	var row domain.WarehouseStock
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", key.ProductID, key.WarehouseID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.MapError(err)
	}
	return &row, nil
}

func (r *GormStockLedger) save(ctx context.Context, row *domain.WarehouseStock) error {
	err := r.db.WithContext(ctx).Model(row).
		Select("quantity", "reserved_quantity", "updated_at").
		Updates(row).Error
	return database.MapError(err)
}
