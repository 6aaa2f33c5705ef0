package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

type PurchaseOrderStatus string

const (
	PurchasePending   PurchaseOrderStatus = "pending"
	PurchaseReceived  PurchaseOrderStatus = "received"
	PurchaseCancelled PurchaseOrderStatus = "cancelled"
)

// PurchaseOrder is an inbound replenishment from a supplier into one warehouse
type PurchaseOrder struct {
	ID           uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	PONumber     string              `json:"po_number" gorm:"column:po_number;type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID           `json:"supplier_id" gorm:"type:uuid;not null;index"`
	WarehouseID  uuid.UUID           `json:"warehouse_id" gorm:"type:uuid;not null;index"`
	Status       PurchaseOrderStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	TotalAmount  decimal.Decimal     `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	ExpectedDate *time.Time          `json:"expected_date,omitempty" gorm:"type:date"`
	Notes        string              `json:"notes,omitempty" gorm:"type:text"`
	ReceivedAt   *time.Time          `json:"received_at,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	Items        []PurchaseOrderItem `json:"items" gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TableName specifies the table name
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

func (p *PurchaseOrder) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type PurchaseOrderItem struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id" gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `json:"product_id" gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:numeric(12,2);not null"`
	UnitPrice       decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,4);not null"`
	ReceivedQty     decimal.Decimal `json:"received_qty" gorm:"column:received_qty;type:numeric(12,2);not null"`
}

// TableName specifies the table name
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

func (i *PurchaseOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Outstanding is what remains to be received.
func (i *PurchaseOrderItem) Outstanding() decimal.Decimal {
	return i.Quantity.Sub(i.ReceivedQty)
}

// PurchaseLine is the input form of a purchase order line.
type PurchaseLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// NewPurchaseOrderItems validates lines and builds the items.
func NewPurchaseOrderItems(lines []PurchaseLine) ([]PurchaseOrderItem, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, apperr.EmptyOrder("purchase order", "new")
	}
	total := decimal.Zero
	items := make([]PurchaseOrderItem, 0, len(lines))
	for n, l := range lines {
		switch {
		case l.ProductID == uuid.Nil:
			return nil, decimal.Zero, apperr.Validation("item %d: product_id is required", n+1)
		case !l.Quantity.IsPositive():
			return nil, decimal.Zero, apperr.Validation("item %d: quantity must be positive", n+1)
		case l.UnitPrice.IsNegative():
			return nil, decimal.Zero, apperr.Validation("item %d: unit_price cannot be negative", n+1)
		}
		items = append(items, PurchaseOrderItem{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
		total = total.Add(l.Quantity.Mul(l.UnitPrice))
	}
	return items, total.Round(2), nil
}

// Item returns the line with the given id.
func (p *PurchaseOrder) Item(itemID uuid.UUID) (*PurchaseOrderItem, error) {
	for i := range p.Items {
		if p.Items[i].ID == itemID {
			return &p.Items[i], nil
		}
	}
	return nil, apperr.NotFound("purchase order item", itemID)
}

// Receive books qty against one line. The order becomes received once every
// line is complete.
func (p *PurchaseOrder) Receive(itemID uuid.UUID, qty decimal.Decimal, now time.Time) (*PurchaseOrderItem, error) {
	if p.Status != PurchasePending {
		return nil, apperr.InvalidTransition("purchase order", p.ID, string(p.Status), "receive")
	}
	if !qty.IsPositive() {
		return nil, apperr.Validation("received quantity must be positive")
	}
	item, err := p.Item(itemID)
	if err != nil {
		return nil, err
	}
	if item.ReceivedQty.Add(qty).GreaterThan(item.Quantity) {
		return nil, apperr.ConstraintViolation(
			"receiving "+qty.String()+" exceeds outstanding quantity "+item.Outstanding().String(), nil)
	}
	item.ReceivedQty = item.ReceivedQty.Add(qty)

	if p.FullyReceived() {
		p.Status = PurchaseReceived
		p.ReceivedAt = &now
	}
	return item, nil
}

// FullyReceived reports whether every line has received its full quantity.
func (p *PurchaseOrder) FullyReceived() bool {
	for _, item := range p.Items {
		if item.ReceivedQty.LessThan(item.Quantity) {
			return false
		}
	}
	return len(p.Items) > 0
}

func (p *PurchaseOrder) Cancel(now time.Time) error {
	if p.Status != PurchasePending {
		return apperr.InvalidTransition("purchase order", p.ID, string(p.Status), "cancel")
	}
	p.Status = PurchaseCancelled
	p.CancelledAt = &now
	return nil
}
