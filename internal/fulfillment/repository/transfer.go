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

type GormTransferRepository struct {
	db *gorm.DB
}

func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

func (r *GormTransferRepository) Create(ctx context.Context, t *domain.WarehouseTransfer) error {
	return database.MapError(r.db.WithContext(ctx).Create(t).Error)
}

func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *GormTransferRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormTransferRepository) find(q *gorm.DB, id uuid.UUID) (*domain.WarehouseTransfer, error) {
	var t domain.WarehouseTransfer
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("warehouse_transfer_items.id")
	}).Where("warehouse_transfers.id = ?", id).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("transfer", id)
	}
	if err != nil {
		return nil, database.MapError(err)
	}
	return &t, nil
}

// Save writes the header and the received quantities of every item.
func (r *GormTransferRepository) Save(ctx context.Context, t *domain.WarehouseTransfer) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(t).Error; err != nil {
		return database.MapError(err)
	}
	for i := range t.Items {
		item := &t.Items[i]
		if item.ReceivedQuantity == nil {
			continue
		}
		if err := db.Model(item).Update("received_quantity", *item.ReceivedQuantity).Error; err != nil {
			return database.MapError(err)
		}
	}
	return nil
}
