package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SerialStatus is the lifecycle of one serialized unit.
type SerialStatus string

const (
	SerialAvailable SerialStatus = "available"
	SerialReserved  SerialStatus = "reserved"
	SerialSold      SerialStatus = "sold"
)

// SerialNumber is a single tracked unit held by a warehouse.
type SerialNumber struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID    `json:"product_id" gorm:"type:uuid;not null;index:idx_serial_lookup,priority:1"`
	WarehouseID  uuid.UUID    `json:"warehouse_id" gorm:"type:uuid;not null;index:idx_serial_lookup,priority:2"`
	SerialNumber string       `json:"serial_number" gorm:"type:varchar(100);not null;uniqueIndex"`
	Status       SerialStatus `json:"status" gorm:"type:varchar(20);not null;default:'available';index:idx_serial_lookup,priority:3"`
	SaleID       *uuid.UUID   `json:"sale_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName specifies the table name
func (SerialNumber) TableName() string {
	return "serial_numbers"
}

func (s *SerialNumber) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SerialFilter narrows a serial listing.
type SerialFilter struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	SaleID      *uuid.UUID
	Status      SerialStatus
	Limit       int
	Offset      int
}

// SerialRepository moves serialized units in lockstep with stock.
type SerialRepository interface {
	Register(ctx context.Context, productID, warehouseID uuid.UUID, serials []string) ([]SerialNumber, error)
	// Allocate claims count available units and moves them to status for the sale.
	Allocate(ctx context.Context, productID, warehouseID uuid.UUID, count int, saleID uuid.UUID, status SerialStatus) ([]SerialNumber, error)
	// MarkSold moves the units the sale reserved for productID to sold.
	MarkSold(ctx context.Context, saleID, productID uuid.UUID) (int64, error)
	// ReleaseSale returns every unit the sale reserved to available.
	ReleaseSale(ctx context.Context, saleID uuid.UUID) (int64, error)
	// Move relocates count available units, oldest first.
	Move(ctx context.Context, productID, fromWarehouseID, toWarehouseID uuid.UUID, count int) (int64, error)
	// Retire removes units that left the warehouse without a sale.
	Retire(ctx context.Context, productID, warehouseID uuid.UUID, serials []string) (int64, error)
	// RetireOldest removes count available units, oldest first.
	RetireOldest(ctx context.Context, productID, warehouseID uuid.UUID, count int) (int64, error)
	// Count returns the units in the warehouse that are not sold.
	Count(ctx context.Context, productID, warehouseID uuid.UUID) (int64, error)
	List(ctx context.Context, f SerialFilter) ([]SerialNumber, error)
}

// Batch is a received lot of a product in a warehouse. Quantity is what the
// warehouse received into the lot, AvailableQuantity what remains.
type Batch struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID         uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:uq_batch_combination,priority:1"`
	WarehouseID       uuid.UUID       `json:"warehouse_id" gorm:"type:uuid;not null;uniqueIndex:uq_batch_combination,priority:2"`
	BatchNumber       string          `json:"batch_number" gorm:"type:varchar(100);not null;uniqueIndex:uq_batch_combination,priority:3"`
	ManufacturingDate *time.Time      `json:"manufacturing_date,omitempty" gorm:"type:date"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty" gorm:"type:date;index"`
	Quantity          decimal.Decimal `json:"quantity" gorm:"type:numeric(12,2);not null"`
	AvailableQuantity decimal.Decimal `json:"available_quantity" gorm:"type:numeric(12,2);not null"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TableName specifies the table name
func (Batch) TableName() string {
	return "batches"
}

func (b *Batch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the lot is past its expiry date at t.
func (b *Batch) Expired(t time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(t)
}

// BatchDraw is the part of one lot taken by a draw.
type BatchDraw struct {
	BatchID           uuid.UUID       `json:"batch_id"`
	BatchNumber       string          `json:"batch_number"`
	ManufacturingDate *time.Time      `json:"manufacturing_date,omitempty"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
}

// PlanDraw takes qty from lots in the given order and returns the draws. The
// second result is the part of qty the lots could not cover.
func PlanDraw(lots []Batch, qty decimal.Decimal) ([]BatchDraw, decimal.Decimal) {
	var draws []BatchDraw
	remaining := qty
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		if !lot.AvailableQuantity.IsPositive() {
			continue
		}
		take := decimal.Min(lot.AvailableQuantity, remaining)
		draws = append(draws, BatchDraw{
			BatchID:           lot.ID,
			BatchNumber:       lot.BatchNumber,
			ManufacturingDate: lot.ManufacturingDate,
			ExpiryDate:        lot.ExpiryDate,
			Quantity:          take,
		})
		remaining = remaining.Sub(take)
	}
	return draws, remaining
}

// BatchReceipt adds quantity to a lot, creating it when needed.
type BatchReceipt struct {
	ProductID         uuid.UUID
	WarehouseID       uuid.UUID
	BatchNumber       string
	ManufacturingDate *time.Time
	ExpiryDate        *time.Time
	Quantity          decimal.Decimal
}

// BatchRepository keeps lot quantities in lockstep with stock.
type BatchRepository interface {
	Receive(ctx context.Context, r BatchReceipt) (*Batch, error)
	// Draw takes qty first-expiry-first-out under row locks.
	Draw(ctx context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) ([]BatchDraw, error)
	Expiring(ctx context.Context, before time.Time, limit int) ([]Batch, error)
}
