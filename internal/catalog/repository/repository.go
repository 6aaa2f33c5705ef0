package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/database"
)

type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{}, &domain.Warehouse{}, &domain.Customer{}, &domain.Supplier{})
}

func find[T any](ctx context.Context, db *gorm.DB, entity string, id uuid.UUID) (*T, error) {
	var out T
	err := db.WithContext(ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(entity, id)
	}
	if err != nil {
		return nil, database.MapError(err)
	}
	return &out, nil
}

func (r *GormCatalogRepository) Product(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return find[domain.Product](ctx, r.db, "product", id)
}

func (r *GormCatalogRepository) Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []domain.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, database.MapError(err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, apperr.NotFound("product", id)
		}
	}
	return out, nil
}

func (r *GormCatalogRepository) Warehouse(ctx context.Context, id uuid.UUID) (*domain.Warehouse, error) {
	return find[domain.Warehouse](ctx, r.db, "warehouse", id)
}

func (r *GormCatalogRepository) Customer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return find[domain.Customer](ctx, r.db, "customer", id)
}

func (r *GormCatalogRepository) Supplier(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	return find[domain.Supplier](ctx, r.db, "supplier", id)
}

func (r *GormCatalogRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	return database.MapError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormCatalogRepository) CreateWarehouse(ctx context.Context, w *domain.Warehouse) error {
	return database.MapError(r.db.WithContext(ctx).Create(w).Error)
}

func (r *GormCatalogRepository) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	return database.MapError(r.db.WithContext(ctx).Create(c).Error)
}

func (r *GormCatalogRepository) CreateSupplier(ctx context.Context, s *domain.Supplier) error {
	return database.MapError(r.db.WithContext(ctx).Create(s).Error)
}

func (r *GormCatalogRepository) ListProducts(ctx context.Context, category string, limit, offset int) ([]domain.Product, error) {
	q := r.db.WithContext(ctx)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var products []domain.Product
	err := q.Order("sku").Limit(limit).Offset(offset).Find(&products).Error
	return products, database.MapError(err)
}

func (r *GormCatalogRepository) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	var warehouses []domain.Warehouse
	err := r.db.WithContext(ctx).Order("code").Find(&warehouses).Error
	return warehouses, database.MapError(err)
}

// LowStock lists active products whose summed warehouse stock is at or below
// their minimum level, lowest first.
func (r *GormCatalogRepository) LowStock(ctx context.Context, limit int) ([]domain.StockLevel, error) {
	var levels []domain.StockLevel
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select("p.*, COALESCE(SUM(ws.quantity), 0) AS on_hand").
		Joins("LEFT JOIN warehouse_stock ws ON ws.product_id = p.id").
		Where("p.is_active AND p.min_stock_level > 0").
		Group("p.id").
		Having("COALESCE(SUM(ws.quantity), 0) <= p.min_stock_level").
		Order("on_hand").Order("p.sku").
		Limit(limit).
		Scan(&levels).Error
	return levels, database.MapError(err)
}
