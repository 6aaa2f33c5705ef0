package domain

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// WarehouseStock is the on-hand and reserved counter of one product in one
// warehouse. AvailableQuantity is a generated column kept for SQL readers;
// Go code uses Available().
type WarehouseStock struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID         uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:uix_product_warehouse,priority:1"`
	WarehouseID       uuid.UUID       `json:"warehouse_id" gorm:"type:uuid;not null;uniqueIndex:uix_product_warehouse,priority:2;index"`
	Quantity          decimal.Decimal `json:"quantity" gorm:"type:numeric(12,2);not null;default:0"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity" gorm:"type:numeric(12,2);not null;default:0"`
	AvailableQuantity decimal.Decimal `json:"available_quantity" gorm:"->;-:migration;type:numeric(12,2)"`
	BinLocation       string          `json:"bin_location,omitempty" gorm:"type:varchar(50)"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (WarehouseStock) TableName() string {
	return "warehouse_stock"
}

func (s *WarehouseStock) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Key returns the (product, warehouse) identity of the row.
func (s *WarehouseStock) Key() StockKey {
	return StockKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}
}

// Available is on-hand minus reserved.
func (s *WarehouseStock) Available() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}

// Apply adds a signed delta to the on-hand quantity.
func (s *WarehouseStock) Apply(delta decimal.Decimal) error {
	next := s.Quantity.Add(delta)
	if next.IsNegative() || s.ReservedQuantity.GreaterThan(next) {
		return apperr.InsufficientStock(s.ProductID, s.WarehouseID, delta.Neg(), s.Available())
	}
	s.Quantity = next
	s.sync()
	return nil
}

// Reserve earmarks qty units. It fails when fewer than qty are available.
func (s *WarehouseStock) Reserve(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return apperr.Validation("reserve quantity must be positive, got %s", qty)
	}
	if s.Available().LessThan(qty) {
		return apperr.InsufficientStock(s.ProductID, s.WarehouseID, qty, s.Available())
	}
	s.ReservedQuantity = s.ReservedQuantity.Add(qty)
	s.sync()
	return nil
}

// Release gives back up to qty reserved units and returns how many were freed.
func (s *WarehouseStock) Release(qty decimal.Decimal) decimal.Decimal {
	if !qty.IsPositive() {
		return decimal.Zero
	}
	freed := decimal.Min(qty, s.ReservedQuantity)
	s.ReservedQuantity = s.ReservedQuantity.Sub(freed)
	s.sync()
	return freed
}

// Consume removes qty units from on-hand on behalf of an order that holds
// `held` of them in reserve. The order's own reservation counts toward
// availability and is released together with the decrement.
func (s *WarehouseStock) Consume(qty, held decimal.Decimal) error {
	if !qty.IsPositive() {
		return apperr.Validation("consume quantity must be positive, got %s", qty)
	}
	held = decimal.Max(decimal.Min(held, qty, s.ReservedQuantity), decimal.Zero)
	if s.Available().Add(held).LessThan(qty) {
		return apperr.InsufficientStock(s.ProductID, s.WarehouseID, qty, s.Available().Add(held))
	}
	s.Quantity = s.Quantity.Sub(qty)
	s.ReservedQuantity = s.ReservedQuantity.Sub(held)
	s.sync()
	return nil
}

// Valid reports whether the row satisfies the ledger invariants.
func (s *WarehouseStock) Valid() bool {
	return !s.Quantity.IsNegative() &&
		!s.ReservedQuantity.IsNegative() &&
		s.ReservedQuantity.LessThanOrEqual(s.Quantity) &&
		s.AvailableQuantity.Equal(s.Available())
}

// Snapshot returns the read model of the row.
func (s *WarehouseStock) Snapshot() StockSnapshot {
	return StockSnapshot{
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		Quantity:    s.Quantity,
		Reserved:    s.ReservedQuantity,
		Available:   s.Available(),
		UpdatedAt:   s.UpdatedAt,
	}
}

func (s *WarehouseStock) sync() {
	s.AvailableQuantity = s.Available()
}

// StockSnapshot is the result of a stock lookup.
type StockSnapshot struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reserved    decimal.Decimal `json:"reserved_quantity"`
	Available   decimal.Decimal `json:"available_quantity"`
	UpdatedAt   time.Time       `json:"updated_at,omitzero"`
}

// EmptySnapshot is the reading of a row that does not exist yet.
func EmptySnapshot(key StockKey) StockSnapshot {
	return StockSnapshot{ProductID: key.ProductID, WarehouseID: key.WarehouseID}
}

// StockKey identifies a stock row.
type StockKey struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
}

// Compare orders keys by product, then warehouse.
func (k StockKey) Compare(o StockKey) int {
	if c := bytes.Compare(k.ProductID[:], o.ProductID[:]); c != 0 {
		return c
	}
	return bytes.Compare(k.WarehouseID[:], o.WarehouseID[:])
}

// CanonicalKeys returns the distinct keys in lock order.
func CanonicalKeys(keys []StockKey) []StockKey {
	out := slices.Clone(keys)
	slices.SortFunc(out, StockKey.Compare)
	return slices.Compact(out)
}

// Movement is a signed on-hand change with its cause.
type Movement struct {
	ProductID     uuid.UUID
	WarehouseID   uuid.UUID
	Delta         decimal.Decimal
	ReferenceType ReferenceType
	ReferenceID   *uuid.UUID
	Notes         string
}

// Consumption removes shipped units, releasing what the order held.
type Consumption struct {
	ProductID     uuid.UUID
	WarehouseID   uuid.UUID
	Quantity      decimal.Decimal
	Held          decimal.Decimal
	ReferenceType ReferenceType
	ReferenceID   *uuid.UUID
	Notes         string
}

// StockLedger is the single writer of warehouse stock. Every mutating method
// locks the affected row for the rest of the enclosing transaction, and every
// on-hand change appends its transaction row in that same transaction.
type StockLedger interface {
	GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (StockSnapshot, error)
	Lock(ctx context.Context, keys ...StockKey) error
	Adjust(ctx context.Context, m Movement) (*InventoryTransaction, error)
	Reserve(ctx context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) (StockSnapshot, error)
	Release(ctx context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) (StockSnapshot, error)
	Consume(ctx context.Context, c Consumption) (*InventoryTransaction, error)
	TotalOnHand(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]WarehouseStock, error)
}
