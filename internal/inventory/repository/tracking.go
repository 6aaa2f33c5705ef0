package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/database"
)

type GormSerialRepository struct {
	db *gorm.DB
}

func NewGormSerialRepository(db *gorm.DB) *GormSerialRepository {
	return &GormSerialRepository{db: db}
}

func (r *GormSerialRepository) Register(ctx context.Context, productID, warehouseID uuid.UUID, serials []string) ([]domain.SerialNumber, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	rows := make([]domain.SerialNumber, len(serials))
	for i, sn := range serials {
		rows[i] = domain.SerialNumber{
			ProductID:    productID,
			WarehouseID:  warehouseID,
			SerialNumber: sn,
			Status:       domain.SerialAvailable,
		}
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, database.MapError(err)
	}
	return rows, nil
}

func (r *GormSerialRepository) Allocate(ctx context.Context, productID, warehouseID uuid.UUID, count int, saleID uuid.UUID, status domain.SerialStatus) ([]domain.SerialNumber, error) {
	if count <= 0 {
		return nil, nil
	}
	rows, err := r.claim(ctx, productID, warehouseID, count)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&domain.SerialNumber{}).
		Where("id IN ?", ids(rows)).
		Updates(map[string]any{"status": status, "sale_id": saleID}).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	for i := range rows {
		rows[i].Status = status
		rows[i].SaleID = &saleID
	}
	return rows, nil
}

func (r *GormSerialRepository) MarkSold(ctx context.Context, saleID, productID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.SerialNumber{}).
		Where("sale_id = ? AND product_id = ? AND status = ?", saleID, productID, domain.SerialReserved).
		Update("status", domain.SerialSold)
	return res.RowsAffected, database.MapError(res.Error)
}

func (r *GormSerialRepository) ReleaseSale(ctx context.Context, saleID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.SerialNumber{}).
		Where("sale_id = ? AND status = ?", saleID, domain.SerialReserved).
		Updates(map[string]any{"status": domain.SerialAvailable, "sale_id": nil})
	return res.RowsAffected, database.MapError(res.Error)
}

func (r *GormSerialRepository) Move(ctx context.Context, productID, fromWarehouseID, toWarehouseID uuid.UUID, count int) (int64, error) {
	if count <= 0 {
		return 0, nil
	}
	rows, err := r.claim(ctx, productID, fromWarehouseID, count)
	if err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Model(&domain.SerialNumber{}).
		Where("id IN ?", ids(rows)).
		Update("warehouse_id", toWarehouseID)
	return res.RowsAffected, database.MapError(res.Error)
}

func (r *GormSerialRepository) Retire(ctx context.Context, productID, warehouseID uuid.UUID, serials []string) (int64, error) {
	if len(serials) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ? AND status = ? AND serial_number IN ?",
			productID, warehouseID, domain.SerialAvailable, serials).
		Delete(&domain.SerialNumber{})
	if res.Error != nil {
		return 0, database.MapError(res.Error)
	}
	if res.RowsAffected != int64(len(serials)) {
		return 0, apperr.Validation("only %d of %d serial numbers are available in the warehouse",
			res.RowsAffected, len(serials))
	}
	return res.RowsAffected, nil
}

func (r *GormSerialRepository) RetireOldest(ctx context.Context, productID, warehouseID uuid.UUID, count int) (int64, error) {
	if count <= 0 {
		return 0, nil
	}
	rows, err := r.claim(ctx, productID, warehouseID, count)
	if err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids(rows)).Delete(&domain.SerialNumber{})
	return res.RowsAffected, database.MapError(res.Error)
}

func (r *GormSerialRepository) Count(ctx context.Context, productID, warehouseID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.SerialNumber{}).
		Where("product_id = ? AND warehouse_id = ? AND status <> ?", productID, warehouseID, domain.SerialSold).
		Count(&n).Error
	return n, database.MapError(err)
}

func (r *GormSerialRepository) List(ctx context.Context, f domain.SerialFilter) ([]domain.SerialNumber, error) {
	q := r.db.WithContext(ctx).Model(&domain.SerialNumber{})
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *f.WarehouseID)
	}
	if f.SaleID != nil {
		q = q.Where("sale_id = ?", *f.SaleID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}

	var rows []domain.SerialNumber
	err := q.Order("serial_number").Limit(f.Limit).Offset(f.Offset).Find(&rows).Error
	return rows, database.MapError(err)
}

// claim locks count available units, oldest first. Rows held by another
// transaction are skipped so concurrent allocations never pick the same unit.
func (r *GormSerialRepository) claim(ctx context.Context, productID, warehouseID uuid.UUID, count int) ([]domain.SerialNumber, error) {
	var rows []domain.SerialNumber
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("product_id = ? AND warehouse_id = ? AND status = ?", productID, warehouseID, domain.SerialAvailable).
		Order("created_at").Order("id").
		Limit(count).
		Find(&rows).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	if len(rows) < count {
		return nil, apperr.InsufficientStock(productID, warehouseID,
			decimal.NewFromInt(int64(count)), decimal.NewFromInt(int64(len(rows))))
	}
	return rows, nil
}

func ids(rows []domain.SerialNumber) []uuid.UUID {
	out := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		out[i] = row.ID
	}
	return out
}

type GormBatchRepository struct {
	db *gorm.DB
}

func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

func (r *GormBatchRepository) Receive(ctx context.Context, rc domain.BatchReceipt) (*domain.Batch, error) {
	if rc.BatchNumber == "" {
		return nil, apperr.Validation("batch_number is required")
	}
	if !rc.Quantity.IsPositive() {
		return nil, apperr.Validation("batch quantity must be positive, got %s", rc.Quantity)
	}

	seed := domain.Batch{
		ProductID:         rc.ProductID,
		WarehouseID:       rc.WarehouseID,
		BatchNumber:       rc.BatchNumber,
		ManufacturingDate: rc.ManufacturingDate,
		ExpiryDate:        rc.ExpiryDate,
		Quantity:          rc.Quantity,
		AvailableQuantity: rc.Quantity,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}, {Name: "batch_number"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":           gorm.Expr("batches.quantity + EXCLUDED.quantity"),
				"available_quantity": gorm.Expr("batches.available_quantity + EXCLUDED.available_quantity"),
				"expiry_date":        gorm.Expr("COALESCE(batches.expiry_date, EXCLUDED.expiry_date)"),
			}),
		}).
		Create(&seed).Error
	if err != nil {
		return nil, database.MapError(err)
	}

	var batch domain.Batch
	err = r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ? AND batch_number = ?", rc.ProductID, rc.WarehouseID, rc.BatchNumber).
		Take(&batch).Error
	if err != nil {
		return nil, database.MapError(err)
	}
	return &batch, nil
}

func (r *GormBatchRepository) Draw(ctx context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) ([]domain.BatchDraw, error) {
	var lots []domain.Batch
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ? AND available_quantity > 0", productID, warehouseID).
		Order("expiry_date ASC NULLS LAST").Order("created_at").Order("id").
		Find(&lots).Error
	if err != nil {
		return nil, database.MapError(err)
	}

	draws, short := domain.PlanDraw(lots, qty)
	if short.IsPositive() {
		return nil, apperr.InsufficientStock(productID, warehouseID, qty, qty.Sub(short))
	}
	for _, draw := range draws {
		err := r.db.WithContext(ctx).Model(&domain.Batch{}).
			Where("id = ?", draw.BatchID).
			Update("available_quantity", gorm.Expr("available_quantity - ?", draw.Quantity)).Error
		if err != nil {
			return nil, database.MapError(err)
		}
	}
	return draws, nil
}

func (r *GormBatchRepository) Expiring(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error) {
	if limit <= 0 {
		limit = 100
	}
	var lots []domain.Batch
	err := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date <= ? AND available_quantity > 0", before).
		Order("expiry_date").Order("batch_number").
		Limit(limit).
		Find(&lots).Error
	return lots, database.MapError(err)
}
