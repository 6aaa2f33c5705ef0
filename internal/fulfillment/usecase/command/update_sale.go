package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// UpdateSaleCommand replaces the lines of a sale that has not shipped. Nil
// fields keep their current value.
type UpdateSaleCommand struct {
	SaleID          uuid.UUID
	Items           []SaleItemInput
	WarehouseID     *uuid.UUID
	DiscountAmount  *decimal.Decimal
	DueDate         *time.Time
	ShippingAddress *string
	Notes           *string
}

// UpdateSaleHandler handles update sale command
type UpdateSaleHandler struct {
	policy ReservationPolicy
}

// NewUpdateSaleHandler creates a new update sale handler
func NewUpdateSaleHandler(policy ReservationPolicy) *UpdateSaleHandler {
	return &UpdateSaleHandler{policy: policy}
}

// Handle releases what the old lines held, swaps the lines and, for a
// confirmed sale under reserve-at-confirm, holds the new ones.
func (h *UpdateSaleHandler) Handle(ctx context.Context, u *Unit, cmd UpdateSaleCommand) (*domain.Sale, error) {
	sale, err := u.Sales().FindForUpdate(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}
	if !sale.Editable() {
		return nil, apperr.InvalidTransition("sale", sale.ID, string(sale.Status), "update")
	}
	if sale.Status == domain.SaleConfirmed && len(cmd.Items) == 0 {
		return nil, apperr.EmptyOrder("sale", sale.ID)
	}
	if cmd.WarehouseID != nil {
		if _, err := u.Catalog().Warehouse(ctx, *cmd.WarehouseID); err != nil {
			return nil, err
		}
	}

	items, err := buildSaleItems(ctx, u, cmd.Items)
	if err != nil {
		return nil, err
	}
	if err := releaseSale(ctx, u, sale); err != nil {
		return nil, fmt.Errorf("failed to release sale %s: %w", sale.SaleNumber, err)
	}

	if cmd.WarehouseID != nil {
		sale.WarehouseID = cmd.WarehouseID
	}
	if cmd.DiscountAmount != nil {
		sale.DiscountAmount = *cmd.DiscountAmount
	}
	if cmd.DueDate != nil {
		sale.DueDate = cmd.DueDate
	}
	if cmd.ShippingAddress != nil {
		sale.ShippingAddress = *cmd.ShippingAddress
	}
	if cmd.Notes != nil {
		sale.Notes = *cmd.Notes
	}
	sale.Items = items
	if err := sale.Recalculate(); err != nil {
		return nil, err
	}
	if sale.PaidAmount.GreaterThan(sale.TotalAmount) {
		return nil, apperr.ConstraintViolation(
			"new total "+sale.TotalAmount.String()+" is below the paid amount "+sale.PaidAmount.String(), nil)
	}
	sale.PaymentStatus = domain.PaymentStatusFor(sale.PaidAmount, sale.TotalAmount)

	if err := u.Sales().ReplaceItems(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to replace sale items: %w", err)
	}
	if sale.Status == domain.SaleConfirmed && h.policy == ReserveAtConfirm {
		if err := reserveSale(ctx, u, sale); err != nil {
			return nil, err
		}
		if err := u.Sales().SaveItems(ctx, sale.Items); err != nil {
			return nil, fmt.Errorf("failed to save reservations: %w", err)
		}
	}
	if err := u.Sales().Save(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}
	return sale, nil
}
