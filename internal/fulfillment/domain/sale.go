package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

type SaleStatus string

const (
	SaleDraft     SaleStatus = "draft"
	SaleConfirmed SaleStatus = "confirmed"
	SaleShipped   SaleStatus = "shipped"
	SaleDelivered SaleStatus = "delivered"
	SaleCancelled SaleStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Sale represents a customer order
type Sale struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	SaleNumber      string          `json:"sale_number" gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID      uuid.UUID       `json:"customer_id" gorm:"type:uuid;not null;index"`
	WarehouseID     *uuid.UUID      `json:"warehouse_id,omitempty" gorm:"type:uuid;index"`
	Status          SaleStatus      `json:"status" gorm:"type:varchar(20);not null;index"`
	PaymentStatus   PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal `json:"tax_amount" gorm:"type:numeric(12,2);not null"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" gorm:"type:numeric(12,2);not null"`
	PaidAmount      decimal.Decimal `json:"paid_amount" gorm:"type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	SaleDate        time.Time       `json:"sale_date" gorm:"not null"`
	DueDate         *time.Time      `json:"due_date,omitempty" gorm:"type:date;index"`
	ShippingAddress string          `json:"shipping_address,omitempty" gorm:"type:text"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	Items           []SaleItem      `json:"items" gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Shipment        *Shipment       `json:"shipment,omitempty" gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (Sale) TableName() string {
	return "sales"
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SaleItem is one order line. ReservedQuantity is how much of the line the
// ledger currently holds in reserve on the sale's behalf.
type SaleItem struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	SaleID           uuid.UUID       `json:"sale_id" gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity         decimal.Decimal `json:"quantity" gorm:"type:numeric(12,2);not null"`
	UnitPrice        decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,4);not null"`
	Discount         decimal.Decimal `json:"discount" gorm:"type:numeric(12,2);not null"`
	Tax              decimal.Decimal `json:"tax" gorm:"type:numeric(12,2);not null"`
	LineTotal        decimal.Decimal `json:"line_total" gorm:"type:numeric(12,2);not null"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity" gorm:"type:numeric(12,2);not null"`
}

// TableName specifies the table name
func (SaleItem) TableName() string {
	return "sale_items"
}

func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Net is quantity × unit price minus the line discount.
func (i *SaleItem) Net() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Sub(i.Discount)
}

// SaleLine is the input form of an order line. A zero UnitPrice means the
// catalog selling price applies.
type SaleLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
}

// NewSaleItems validates lines and builds the items.
func NewSaleItems(lines []SaleLine) ([]SaleItem, error) {
	items := make([]SaleItem, 0, len(lines))
	for n, l := range lines {
		switch {
		case l.ProductID == uuid.Nil:
			return nil, apperr.Validation("item %d: product_id is required", n+1)
		case !l.Quantity.IsPositive():
			return nil, apperr.Validation("item %d: quantity must be positive", n+1)
		case l.UnitPrice.IsNegative():
			return nil, apperr.Validation("item %d: unit_price cannot be negative", n+1)
		case l.Discount.IsNegative() || l.Tax.IsNegative():
			return nil, apperr.Validation("item %d: discount and tax cannot be negative", n+1)
		case l.Discount.GreaterThan(l.Quantity.Mul(l.UnitPrice)):
			return nil, apperr.Validation("item %d: discount exceeds line amount", n+1)
		}
		items = append(items, SaleItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Discount:  l.Discount,
			Tax:       l.Tax,
		})
	}
	return items, nil
}

// Recalculate derives line totals and the order totals from the items.
func (s *Sale) Recalculate() error {
	subtotal, tax := decimal.Zero, decimal.Zero
	for i := range s.Items {
		item := &s.Items[i]
		item.LineTotal = item.Net().Add(item.Tax)
		subtotal = subtotal.Add(item.Net())
		tax = tax.Add(item.Tax)
	}
	if s.DiscountAmount.IsNegative() {
		return apperr.Validation("discount_amount cannot be negative")
	}
	total := subtotal.Add(tax).Sub(s.DiscountAmount)
	if total.IsNegative() {
		return apperr.Validation("discount_amount %s exceeds order amount %s", s.DiscountAmount, subtotal.Add(tax))
	}
	s.Subtotal, s.TaxAmount, s.TotalAmount = subtotal, tax, total
	return nil
}

// Editable reports whether items may still be replaced.
func (s *Sale) Editable() bool {
	return s.Status == SaleDraft || s.Status == SaleConfirmed
}

func (s *Sale) Confirm(now time.Time) error {
	if s.Status != SaleDraft {
		return apperr.InvalidTransition("sale", s.ID, string(s.Status), "confirm")
	}
	if len(s.Items) == 0 {
		return apperr.EmptyOrder("sale", s.ID)
	}
	s.Status = SaleConfirmed
	s.ConfirmedAt = &now
	return nil
}

// CanShip checks the preconditions of a shipment without changing state.
func (s *Sale) CanShip() error {
	if s.Status != SaleConfirmed {
		return apperr.InvalidTransition("sale", s.ID, string(s.Status), "ship")
	}
	if s.WarehouseID == nil {
		return apperr.NoWarehouse("sale", s.ID)
	}
	return nil
}

func (s *Sale) MarkShipped(now time.Time) error {
	if err := s.CanShip(); err != nil {
		return err
	}
	for i := range s.Items {
		s.Items[i].ReservedQuantity = decimal.Zero
	}
	s.Status = SaleShipped
	s.ShippedAt = &now
	return nil
}

func (s *Sale) Deliver(now time.Time) error {
	if s.Status != SaleShipped {
		return apperr.InvalidTransition("sale", s.ID, string(s.Status), "deliver")
	}
	s.Status = SaleDelivered
	s.DeliveredAt = &now
	if s.Shipment != nil {
		s.Shipment.Status = ShipmentDelivered
		s.Shipment.DeliveredAt = &now
	}
	return nil
}

func (s *Sale) Cancel(now time.Time) error {
	if !s.Editable() {
		return apperr.InvalidTransition("sale", s.ID, string(s.Status), "cancel")
	}
	s.Status = SaleCancelled
	s.CancelledAt = &now
	return nil
}

// ApplyPayment adds amount to the paid total and derives the payment status.
func (s *Sale) ApplyPayment(amount decimal.Decimal) error {
	if s.Status == SaleCancelled {
		return apperr.InvalidTransition("sale", s.ID, string(s.Status), "record payment")
	}
	if !amount.IsPositive() {
		return apperr.Validation("payment amount must be positive")
	}
	paid := s.PaidAmount.Add(amount)
	if paid.GreaterThan(s.TotalAmount) {
		return apperr.ConstraintViolation("payment of "+amount.String()+" exceeds outstanding balance "+s.Outstanding().String(), nil)
	}
	s.PaidAmount = paid
	s.PaymentStatus = PaymentStatusFor(paid, s.TotalAmount)
	return nil
}

// Outstanding is the unpaid part of the total.
func (s *Sale) Outstanding() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidAmount)
}

// PaymentDue reports whether the sale has an open balance past its due date.
func (s *Sale) PaymentDue(asOf time.Time) bool {
	return s.Status != SaleCancelled &&
		s.PaymentStatus != PaymentPaid &&
		s.DueDate != nil && !s.DueDate.After(asOf)
}

// PaymentStatusFor derives the payment status from paid and total amounts.
func PaymentStatusFor(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case !paid.IsPositive():
		return PaymentUnpaid
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	default:
		return PaymentPartial
	}
}

type ShipmentStatus string

const (
	ShipmentShipped   ShipmentStatus = "shipped"
	ShipmentDelivered ShipmentStatus = "delivered"
)

// Shipment records how a sale left the warehouse
type Shipment struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	SaleID         uuid.UUID       `json:"sale_id" gorm:"type:uuid;not null;uniqueIndex"`
	CarrierName    string          `json:"carrier_name,omitempty" gorm:"type:varchar(100)"`
	TrackingNumber string          `json:"tracking_number,omitempty" gorm:"type:varchar(100)"`
	ShippingMethod string          `json:"shipping_method,omitempty" gorm:"type:varchar(50)"`
	ShippingCost   decimal.Decimal `json:"shipping_cost" gorm:"type:numeric(12,2);not null"`
	Status         ShipmentStatus  `json:"status" gorm:"type:varchar(20);not null"`
	ShippedAt      time.Time       `json:"shipped_at"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
}

// TableName specifies the table name
func (Shipment) TableName() string {
	return "shipments"
}

func (s *Shipment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
