package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/database"
)

type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func (r *GormPurchaseOrderRepository) Create(ctx context.Context, p *domain.PurchaseOrder) error {
	return database.MapError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *GormPurchaseOrderRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPurchaseOrderRepository) find(q *gorm.DB, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("purchase_order_items.id")
	}).Where("purchase_orders.id = ?", id).Take(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("purchase order", id)
	}
	if err != nil {
		return nil, database.MapError(err)
	}
	return &po, nil
}

func (r *GormPurchaseOrderRepository) Save(ctx context.Context, p *domain.PurchaseOrder) error {
	return database.MapError(r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error)
}

func (r *GormPurchaseOrderRepository) SaveItem(ctx context.Context, item *domain.PurchaseOrderItem) error {
	err := r.db.WithContext(ctx).Model(item).Update("received_qty", item.ReceivedQty).Error
	return database.MapError(err)
}
