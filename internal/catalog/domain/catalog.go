package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents the product entity. Stock lives in warehouse_stock; the
// total on hand is always derived from it.
type Product struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	SKU             string          `json:"sku" gorm:"type:varchar(100);not null;uniqueIndex"`
	Barcode         *string         `json:"barcode,omitempty" gorm:"type:varchar(100);uniqueIndex"`
	Name            string          `json:"name" gorm:"type:varchar(255);not null"`
	Description     string          `json:"description,omitempty" gorm:"type:text"`
	Category        string          `json:"category,omitempty" gorm:"type:varchar(100);index"`
	Brand           string          `json:"brand,omitempty" gorm:"type:varchar(100)"`
	Unit            string          `json:"unit" gorm:"type:varchar(20);not null;default:'pcs'"`
	MinStockLevel   decimal.Decimal `json:"min_stock_level" gorm:"type:numeric(12,2);not null;default:0"`
	ReorderPoint    decimal.Decimal `json:"reorder_point" gorm:"type:numeric(12,2);not null;default:0"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity" gorm:"type:numeric(12,2);not null;default:0"`
	CostPrice       decimal.Decimal `json:"cost_price" gorm:"type:numeric(12,4);not null;default:0"`
	SellingPrice    decimal.Decimal `json:"selling_price" gorm:"type:numeric(12,4);not null;default:0"`
	TrackSerials    bool            `json:"track_serials" gorm:"not null;default:false"`
	TrackBatches    bool            `json:"track_batches" gorm:"not null;default:false"`
	IsActive        bool            `json:"is_active" gorm:"not null"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsLow reports whether onHand is at or below the minimum stock level.
func (p *Product) IsLow(onHand decimal.Decimal) bool {
	return p.MinStockLevel.IsPositive() && onHand.LessThanOrEqual(p.MinStockLevel)
}

// NeedsReorder reports whether onHand reached the reorder point.
func (p *Product) NeedsReorder(onHand decimal.Decimal) bool {
	return p.ReorderPoint.IsPositive() && onHand.LessThanOrEqual(p.ReorderPoint)
}

// Warehouse represents a stock location
type Warehouse struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Code      string    `json:"code" gorm:"type:varchar(50);not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Address   string    `json:"address,omitempty" gorm:"type:text"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Warehouse) TableName() string {
	return "warehouses"
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Customer is the buyer on a sale
type Customer struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email,omitempty" gorm:"type:varchar(255);index"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Supplier is the vendor on a purchase order
type Supplier struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Email        string    `json:"email,omitempty" gorm:"type:varchar(255)"`
	PaymentTerms string    `json:"payment_terms,omitempty" gorm:"type:varchar(100)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Supplier) TableName() string {
	return "suppliers"
}

func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StockLevel is a product with its derived total on hand.
type StockLevel struct {
	Product
	OnHand decimal.Decimal `json:"on_hand" gorm:"column:on_hand"`
}

// Lookup answers the existence and pricing questions the fulfillment core
// asks. Every method fails with apperr.ErrNotFound for unknown ids.
type Lookup interface {
	Product(ctx context.Context, id uuid.UUID) (*Product, error)
	Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	Warehouse(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	Customer(ctx context.Context, id uuid.UUID) (*Customer, error)
	Supplier(ctx context.Context, id uuid.UUID) (*Supplier, error)
}

// Repository defines the contract for catalog data access
type Repository interface {
	Lookup
	CreateProduct(ctx context.Context, p *Product) error
	CreateWarehouse(ctx context.Context, w *Warehouse) error
	CreateCustomer(ctx context.Context, c *Customer) error
	CreateSupplier(ctx context.Context, s *Supplier) error
	ListProducts(ctx context.Context, category string, limit, offset int) ([]Product, error)
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	LowStock(ctx context.Context, limit int) ([]StockLevel, error)
}
