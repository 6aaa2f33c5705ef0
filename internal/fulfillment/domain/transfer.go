package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferInTransit TransferStatus = "in_transit"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// WarehouseTransfer moves stock between two warehouses
type WarehouseTransfer struct {
	ID              uuid.UUID               `json:"id" gorm:"type:uuid;primaryKey"`
	TransferNumber  string                  `json:"transfer_number" gorm:"type:varchar(50);not null;uniqueIndex"`
	FromWarehouseID uuid.UUID               `json:"from_warehouse_id" gorm:"type:uuid;not null;index"`
	ToWarehouseID   uuid.UUID               `json:"to_warehouse_id" gorm:"type:uuid;not null;index"`
	Status          TransferStatus          `json:"status" gorm:"type:varchar(20);not null;index"`
	Notes           string                  `json:"notes,omitempty" gorm:"type:text"`
	DispatchedAt    *time.Time              `json:"dispatched_at,omitempty"`
	CompletedAt     *time.Time              `json:"completed_at,omitempty"`
	CancelledAt     *time.Time              `json:"cancelled_at,omitempty"`
	Items           []WarehouseTransferItem `json:"items" gorm:"foreignKey:TransferID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// TableName specifies the table name
func (WarehouseTransfer) TableName() string {
	return "warehouse_transfers"
}

func (t *WarehouseTransfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// WarehouseTransferItem is one product moved by a transfer. ReceivedQuantity
// stays nil until the transfer completes.
type WarehouseTransferItem struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	TransferID       uuid.UUID        `json:"transfer_id" gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID        `json:"product_id" gorm:"type:uuid;not null"`
	Quantity         decimal.Decimal  `json:"quantity" gorm:"type:numeric(12,2);not null"`
	ReceivedQuantity *decimal.Decimal `json:"received_quantity,omitempty" gorm:"type:numeric(12,2)"`
}

// TableName specifies the table name
func (WarehouseTransferItem) TableName() string {
	return "warehouse_transfer_items"
}

func (i *WarehouseTransferItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Received is the quantity credited to the destination.
func (i *WarehouseTransferItem) Received() decimal.Decimal {
	if i.ReceivedQuantity == nil {
		return i.Quantity
	}
	return *i.ReceivedQuantity
}

// Lost is the part of the quantity that left the source but never arrived.
func (i *WarehouseTransferItem) Lost() decimal.Decimal {
	return i.Quantity.Sub(i.Received())
}

// TransferLine is the input form of a transfer line.
type TransferLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// NewTransfer validates the route and lines.
func NewTransfer(from, to uuid.UUID, lines []TransferLine) (*WarehouseTransfer, error) {
	if from == uuid.Nil || to == uuid.Nil {
		return nil, apperr.Validation("from_warehouse_id and to_warehouse_id are required")
	}
	if from == to {
		return nil, apperr.Validation("source and destination warehouse must differ")
	}
	if len(lines) == 0 {
		return nil, apperr.EmptyOrder("transfer", "new")
	}
	t := &WarehouseTransfer{FromWarehouseID: from, ToWarehouseID: to, Status: TransferPending}
	seen := make(map[uuid.UUID]bool, len(lines))
	for n, l := range lines {
		switch {
		case l.ProductID == uuid.Nil:
			return nil, apperr.Validation("item %d: product_id is required", n+1)
		case !l.Quantity.IsPositive():
			return nil, apperr.Validation("item %d: quantity must be positive", n+1)
		case seen[l.ProductID]:
			return nil, apperr.Validation("item %d: product %s listed twice", n+1, l.ProductID)
		}
		seen[l.ProductID] = true
		t.Items = append(t.Items, WarehouseTransferItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return t, nil
}

func (t *WarehouseTransfer) Dispatch(now time.Time) error {
	if t.Status != TransferPending {
		return apperr.InvalidTransition("transfer", t.ID, string(t.Status), "dispatch")
	}
	t.Status = TransferInTransit
	t.DispatchedAt = &now
	return nil
}

// Complete sets the received quantities and closes the transfer. Items missing
// from received arrive in full.
func (t *WarehouseTransfer) Complete(received map[uuid.UUID]decimal.Decimal, now time.Time) error {
	if t.Status != TransferPending && t.Status != TransferInTransit {
		return apperr.InvalidTransition("transfer", t.ID, string(t.Status), "complete")
	}
	for id := range received {
		if !t.hasItem(id) {
			return apperr.NotFound("transfer item", id)
		}
	}
	arrived := make([]decimal.Decimal, len(t.Items))
	for i, item := range t.Items {
		qty, ok := received[item.ID]
		if !ok {
			qty = item.Quantity
		}
		if qty.IsNegative() || qty.GreaterThan(item.Quantity) {
			return apperr.Validation("item %s: received quantity must be between 0 and %s", item.ID, item.Quantity)
		}
		arrived[i] = qty
	}
	for i := range t.Items {
		t.Items[i].ReceivedQuantity = &arrived[i]
	}
	t.Status = TransferCompleted
	t.CompletedAt = &now
	return nil
}

func (t *WarehouseTransfer) Cancel(now time.Time) error {
	if t.Status != TransferPending {
		return apperr.InvalidTransition("transfer", t.ID, string(t.Status), "cancel")
	}
	t.Status = TransferCancelled
	t.CancelledAt = &now
	return nil
}

func (t *WarehouseTransfer) hasItem(id uuid.UUID) bool {
	for _, item := range t.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}
