package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/numbering"
)

// SaleItemInput is one requested order line. A nil UnitPrice takes the
// product's selling price.
type SaleItemInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
}

// CreateSaleCommand represents the command to create a draft sale
type CreateSaleCommand struct {
	SaleNumber      string
	CustomerID      uuid.UUID
	WarehouseID     *uuid.UUID
	Items           []SaleItemInput
	DiscountAmount  decimal.Decimal
	DueDate         *time.Time
	ShippingAddress string
	Notes           string
}

// CreateSaleHandler handles create sale command
type CreateSaleHandler struct {
	numbers *numbering.Generator
}

// NewCreateSaleHandler creates a new create sale handler
func NewCreateSaleHandler(numbers *numbering.Generator) *CreateSaleHandler {
	return &CreateSaleHandler{numbers: numbers}
}

// Handle executes the create sale command
func (h *CreateSaleHandler) Handle(ctx context.Context, u *Unit, cmd CreateSaleCommand) (*domain.Sale, error) {
	if cmd.CustomerID == uuid.Nil {
		return nil, apperr.Validation("customer_id is required")
	}
	if _, err := u.Catalog().Customer(ctx, cmd.CustomerID); err != nil {
		return nil, err
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

	if cmd.SaleNumber == "" {
		cmd.SaleNumber = h.numbers.SaleNumber()
	}
	sale := &domain.Sale{
		SaleNumber:      cmd.SaleNumber,
		CustomerID:      cmd.CustomerID,
		WarehouseID:     cmd.WarehouseID,
		Status:          domain.SaleDraft,
		PaymentStatus:   domain.PaymentUnpaid,
		DiscountAmount:  cmd.DiscountAmount,
		SaleDate:        now(),
		DueDate:         cmd.DueDate,
		ShippingAddress: cmd.ShippingAddress,
		Notes:           cmd.Notes,
		Items:           items,
	}
	if err := sale.Recalculate(); err != nil {
		return nil, err
	}

	if err := u.Sales().Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}
	return sale, nil
}

// buildSaleItems resolves prices against the catalog and validates lines.
func buildSaleItems(ctx context.Context, u *Unit, inputs []SaleItemInput) ([]domain.SaleItem, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	products, err := u.products(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.SaleLine, 0, len(inputs))
	for _, in := range inputs {
		p, ok := products[in.ProductID]
		if !ok {
			return nil, apperr.NotFound("product", in.ProductID)
		}
		if err := sellable(p, in.Quantity); err != nil {
			return nil, err
		}
		price := p.SellingPrice
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		lines = append(lines, domain.SaleLine{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: price,
			Discount:  in.Discount,
			Tax:       in.Tax,
		})
	}
	return domain.NewSaleItems(lines)
}

func sellable(p *catalog.Product, qty decimal.Decimal) error {
	if !p.IsActive {
		return apperr.Validation("product %s is not active", p.SKU)
	}
	return tracked(p, qty)
}
