package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// CreateWarehouseCommand registers a stock location
type CreateWarehouseCommand struct {
	Code    string
	Name    string
	Address string
}

type CreateWarehouseHandler struct {
	repo domain.Repository
}

func NewCreateWarehouseHandler(repo domain.Repository) *CreateWarehouseHandler {
	return &CreateWarehouseHandler{repo: repo}
}

func (h *CreateWarehouseHandler) Handle(ctx context.Context, cmd CreateWarehouseCommand) (*domain.Warehouse, error) {
	if strings.TrimSpace(cmd.Code) == "" {
		return nil, apperr.Validation("warehouse code is required")
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.Validation("warehouse name is required")
	}

	w := &domain.Warehouse{
		Code:     strings.TrimSpace(cmd.Code),
		Name:     cmd.Name,
		Address:  cmd.Address,
		IsActive: true,
	}
	if err := h.repo.CreateWarehouse(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}
	return w, nil
}

// CreatePartyCommand registers a customer or a supplier
type CreatePartyCommand struct {
	Name         string
	Email        string
	PaymentTerms string
}

type CreateCustomerHandler struct {
	repo domain.Repository
}

func NewCreateCustomerHandler(repo domain.Repository) *CreateCustomerHandler {
	return &CreateCustomerHandler{repo: repo}
}

func (h *CreateCustomerHandler) Handle(ctx context.Context, cmd CreatePartyCommand) (*domain.Customer, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.Validation("customer name is required")
	}
	c := &domain.Customer{Name: cmd.Name, Email: cmd.Email, IsActive: true}
	if err := h.repo.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

type CreateSupplierHandler struct {
	repo domain.Repository
}

func NewCreateSupplierHandler(repo domain.Repository) *CreateSupplierHandler {
	return &CreateSupplierHandler{repo: repo}
}

func (h *CreateSupplierHandler) Handle(ctx context.Context, cmd CreatePartyCommand) (*domain.Supplier, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.Validation("supplier name is required")
	}
	s := &domain.Supplier{Name: cmd.Name, Email: cmd.Email, PaymentTerms: cmd.PaymentTerms}
	if err := h.repo.CreateSupplier(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return s, nil
}
