package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
)

// ConfirmSaleHandler handles the draft to confirmed transition
type ConfirmSaleHandler struct {
	policy ReservationPolicy
}

// NewConfirmSaleHandler creates a new confirm sale handler
func NewConfirmSaleHandler(policy ReservationPolicy) *ConfirmSaleHandler {
	return &ConfirmSaleHandler{policy: policy}
}

// Handle confirms the sale and, under reserve-at-confirm, holds its lines.
func (h *ConfirmSaleHandler) Handle(ctx context.Context, u *Unit, saleID uuid.UUID) (*domain.Sale, error) {
	sale, err := u.Sales().FindForUpdate(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := sale.Confirm(now()); err != nil {
		return nil, err
	}
	if h.policy == ReserveAtConfirm {
		if err := reserveSale(ctx, u, sale); err != nil {
			return nil, err
		}
		if err := u.Sales().SaveItems(ctx, sale.Items); err != nil {
			return nil, fmt.Errorf("failed to save reservations: %w", err)
		}
	}
	if err := u.Sales().Save(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to confirm sale: %w", err)
	}
	u.Emit(domain.SaleEvent(domain.EventSaleConfirmed, sale))
	return sale, nil
}

// CancelSaleHandler handles sale cancellation
type CancelSaleHandler struct{}

// NewCancelSaleHandler creates a new cancel sale handler
func NewCancelSaleHandler() *CancelSaleHandler {
	return &CancelSaleHandler{}
}

// Handle cancels a draft or confirmed sale and frees what it held.
func (h *CancelSaleHandler) Handle(ctx context.Context, u *Unit, saleID uuid.UUID) (*domain.Sale, error) {
	sale, err := u.Sales().FindForUpdate(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := sale.Cancel(now()); err != nil {
		return nil, err
	}
	if err := releaseSale(ctx, u, sale); err != nil {
		return nil, fmt.Errorf("failed to release sale %s: %w", sale.SaleNumber, err)
	}
	if err := u.Sales().SaveItems(ctx, sale.Items); err != nil {
		return nil, fmt.Errorf("failed to save released items: %w", err)
	}
	if err := u.Sales().Save(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to cancel sale: %w", err)
	}
	u.Emit(domain.SaleEvent(domain.EventSaleCancelled, sale))
	return sale, nil
}

// DeliverSaleHandler handles the shipped to delivered transition
type DeliverSaleHandler struct{}

// NewDeliverSaleHandler creates a new deliver sale handler
func NewDeliverSaleHandler() *DeliverSaleHandler {
	return &DeliverSaleHandler{}
}

func (h *DeliverSaleHandler) Handle(ctx context.Context, u *Unit, saleID uuid.UUID) (*domain.Sale, error) {
	sale, err := u.Sales().FindForUpdate(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := sale.Deliver(now()); err != nil {
		return nil, err
	}
	if err := u.Sales().Save(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to deliver sale: %w", err)
	}
	if sale.Shipment != nil {
		if err := u.Sales().SaveShipment(ctx, sale.Shipment); err != nil {
			return nil, fmt.Errorf("failed to update shipment: %w", err)
		}
	}
	u.Emit(domain.SaleEvent(domain.EventSaleDelivered, sale))
	return sale, nil
}

// RecordPaymentCommand represents a payment received against a sale
type RecordPaymentCommand struct {
	SaleID uuid.UUID
	Amount decimal.Decimal
}

// RecordPaymentHandler handles record payment command
type RecordPaymentHandler struct{}

// NewRecordPaymentHandler creates a new record payment handler
func NewRecordPaymentHandler() *RecordPaymentHandler {
	return &RecordPaymentHandler{}
}

func (h *RecordPaymentHandler) Handle(ctx context.Context, u *Unit, cmd RecordPaymentCommand) (*domain.Sale, error) {
	sale, err := u.Sales().FindForUpdate(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}
	if err := sale.ApplyPayment(cmd.Amount); err != nil {
		return nil, err
	}
	if err := u.Sales().Save(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return sale, nil
}
