package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published after a successful commit.
const (
	EventStockLow              = "stock.low"
	EventStockReorder          = "stock.reorder"
	EventSaleConfirmed         = "sale.confirmed"
	EventSaleShipped           = "sale.shipped"
	EventSaleDelivered         = "sale.delivered"
	EventSaleCancelled         = "sale.cancelled"
	EventSalePaymentDue        = "sale.payment_due"
	EventPurchaseOrderReceived = "purchase_order.received"
	EventTransferCompleted     = "transfer.completed"
)

// Event is a fact about a committed change.
type Event struct {
	ID          string    `json:"event_id"`
	Type        string    `json:"event_type"`
	AggregateID uuid.UUID `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType string, aggregateID uuid.UUID, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

// EventPublisher hands events to the notification collaborator.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

type StockLevelPayload struct {
	ProductID       uuid.UUID       `json:"product_id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	OnHand          decimal.Decimal `json:"on_hand"`
	MinStockLevel   decimal.Decimal `json:"min_stock_level"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
}

type SalePayload struct {
	SaleID        uuid.UUID       `json:"sale_id"`
	SaleNumber    string          `json:"sale_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	WarehouseID   *uuid.UUID      `json:"warehouse_id,omitempty"`
	Status        SaleStatus      `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
}

// SaleEvent builds an event carrying the sale summary.
func SaleEvent(eventType string, s *Sale) Event {
	return NewEvent(eventType, s.ID, SalePayload{
		SaleID:        s.ID,
		SaleNumber:    s.SaleNumber,
		CustomerID:    s.CustomerID,
		WarehouseID:   s.WarehouseID,
		Status:        s.Status,
		PaymentStatus: s.PaymentStatus,
		TotalAmount:   s.TotalAmount,
		PaidAmount:    s.PaidAmount,
		DueDate:       s.DueDate,
	})
}

type PurchaseOrderPayload struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	PONumber        string    `json:"po_number"`
	SupplierID      uuid.UUID `json:"supplier_id"`
	WarehouseID     uuid.UUID `json:"warehouse_id"`
}

type TransferPayload struct {
	TransferID      uuid.UUID `json:"transfer_id"`
	TransferNumber  string    `json:"transfer_number"`
	FromWarehouseID uuid.UUID `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID `json:"to_warehouse_id"`
}
