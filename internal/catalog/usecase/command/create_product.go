package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// CreateProductCommand represents the command to register a product
type CreateProductCommand struct {
	SKU             string
	Barcode         string
	Name            string
	Description     string
	Category        string
	Brand           string
	Unit            string
	MinStockLevel   decimal.Decimal
	ReorderPoint    decimal.Decimal
	ReorderQuantity decimal.Decimal
	CostPrice       decimal.Decimal
	SellingPrice    decimal.Decimal
	TrackSerials    bool
	TrackBatches    bool
}

// CreateProductHandler handles product registration
type CreateProductHandler struct {
	repo domain.Repository
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(repo domain.Repository) *CreateProductHandler {
	return &CreateProductHandler{repo: repo}
}

// Handle executes the create product command
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	cmd.SKU = strings.TrimSpace(cmd.SKU)
	if cmd.SKU == "" {
		return nil, apperr.Validation("SKU is required")
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.Validation("product name is required")
	}
	for field, v := range map[string]decimal.Decimal{
		"min_stock_level":  cmd.MinStockLevel,
		"reorder_point":    cmd.ReorderPoint,
		"reorder_quantity": cmd.ReorderQuantity,
		"cost_price":       cmd.CostPrice,
		"selling_price":    cmd.SellingPrice,
	} {
		if v.IsNegative() {
			return nil, apperr.Validation("%s cannot be negative", field)
		}
	}
	if cmd.Unit == "" {
		cmd.Unit = "pcs"
	}

	product := &domain.Product{
		SKU:             cmd.SKU,
		Name:            cmd.Name,
		Description:     cmd.Description,
		Category:        cmd.Category,
		Brand:           cmd.Brand,
		Unit:            cmd.Unit,
		MinStockLevel:   cmd.MinStockLevel,
		ReorderPoint:    cmd.ReorderPoint,
		ReorderQuantity: cmd.ReorderQuantity,
		CostPrice:       cmd.CostPrice,
		SellingPrice:    cmd.SellingPrice,
		TrackSerials:    cmd.TrackSerials,
		TrackBatches:    cmd.TrackBatches,
		IsActive:        true,
	}
	if b := strings.TrimSpace(cmd.Barcode); b != "" {
		product.Barcode = &b
	}

	if err := h.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}
