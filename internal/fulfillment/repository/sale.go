package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/database"
)

type GormSaleRepository struct {
	db *gorm.DB
}

func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) Create(ctx context.Context, s *domain.Sale) error {
	return database.MapError(r.db.WithContext(ctx).Create(s).Error)
}

func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *GormSaleRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormSaleRepository) find(q *gorm.DB, id uuid.UUID) (*domain.Sale, error) {
	var sale domain.Sale
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sale_items.id")
	}).Preload("Shipment").
		Where("sales.id = ?", id).
		Take(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("sale", id)
	}
	if err != nil {
		return nil, database.MapError(err)
	}
	return &sale, nil
}

// Save writes the sale header; items and shipment are saved separately.
func (r *GormSaleRepository) Save(ctx context.Context, s *domain.Sale) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
	return database.MapError(err)
}

func (r *GormSaleRepository) SaveItems(ctx context.Context, items []domain.SaleItem) error {
	for i := range items {
		err := r.db.WithContext(ctx).Model(&items[i]).
			Update("reserved_quantity", items[i].ReservedQuantity).Error
		if err != nil {
			return database.MapError(err)
		}
	}
	return nil
}

// ReplaceItems deletes the stored lines of s and inserts s.Items.
func (r *GormSaleRepository) ReplaceItems(ctx context.Context, s *domain.Sale) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("sale_id = ?", s.ID).Delete(&domain.SaleItem{}).Error; err != nil {
		return database.MapError(err)
	}
	if len(s.Items) == 0 {
		return nil
	}
	for i := range s.Items {
		s.Items[i].ID = uuid.Nil
		s.Items[i].SaleID = s.ID
	}
	return database.MapError(db.Create(&s.Items).Error)
}

func (r *GormSaleRepository) CreateShipment(ctx context.Context, sh *domain.Shipment) error {
	return database.MapError(r.db.WithContext(ctx).Create(sh).Error)
}

func (r *GormSaleRepository) SaveShipment(ctx context.Context, sh *domain.Shipment) error {
	return database.MapError(r.db.WithContext(ctx).Save(sh).Error)
}

func (r *GormSaleRepository) List(ctx context.Context, f domain.SaleFilter) ([]domain.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Sale{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, database.MapError(err)
	}

	var sales []domain.Sale
	err := q.Preload("Items").
		Order("sale_date DESC").Order("id").
		Limit(f.Limit).Offset(f.Offset).
		Find(&sales).Error
	if err != nil {
		return nil, 0, database.MapError(err)
	}
	return sales, total, nil
}

func (r *GormSaleRepository) PaymentDue(ctx context.Context, asOf time.Time, limit int) ([]domain.Sale, error) {
	var sales []domain.Sale
	err := r.db.WithContext(ctx).
		Where("status <> ? AND payment_status <> ? AND due_date IS NOT NULL AND due_date <= ?",
			domain.SaleCancelled, domain.PaymentPaid, asOf).
		Order("due_date").Order("id").
		Limit(limit).
		Find(&sales).Error
	return sales, database.MapError(err)
}
