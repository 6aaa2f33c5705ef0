package query

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
)

// GetSaleHandler handles get sale query
type GetSaleHandler struct {
	repo domain.SaleRepository
}

// NewGetSaleHandler creates a new get sale handler
func NewGetSaleHandler(repo domain.SaleRepository) *GetSaleHandler {
	return &GetSaleHandler{repo: repo}
}

func (h *GetSaleHandler) Handle(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return h.repo.FindByID(ctx, id)
}

// ListSalesQuery represents the query to list sales
type ListSalesQuery struct {
	Status     domain.SaleStatus
	CustomerID *uuid.UUID
	Limit      int
	Offset     int
}

// SalePage is one page of a sale listing.
type SalePage struct {
	Sales  []domain.Sale `json:"sales"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListSalesHandler handles list sales query
type ListSalesHandler struct {
	repo domain.SaleRepository
}

// NewListSalesHandler creates a new list sales handler
func NewListSalesHandler(repo domain.SaleRepository) *ListSalesHandler {
	return &ListSalesHandler{repo: repo}
}

// Handle executes the list sales query
func (h *ListSalesHandler) Handle(ctx context.Context, query ListSalesQuery) (*SalePage, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}

	if query.Limit > 100 {
		query.Limit = 100
	}

	if query.Offset < 0 {
		query.Offset = 0
	}

	sales, total, err := h.repo.List(ctx, domain.SaleFilter{
		Status:     query.Status,
		CustomerID: query.CustomerID,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	return &SalePage{Sales: sales, Total: total, Limit: query.Limit, Offset: query.Offset}, nil
}

// GetPurchaseOrderHandler handles get purchase order query
type GetPurchaseOrderHandler struct {
	repo domain.PurchaseOrderRepository
}

// NewGetPurchaseOrderHandler creates a new get purchase order handler
func NewGetPurchaseOrderHandler(repo domain.PurchaseOrderRepository) *GetPurchaseOrderHandler {
	return &GetPurchaseOrderHandler{repo: repo}
}

func (h *GetPurchaseOrderHandler) Handle(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return h.repo.FindByID(ctx, id)
}

// GetTransferHandler handles get transfer query
type GetTransferHandler struct {
	repo domain.TransferRepository
}

// NewGetTransferHandler creates a new get transfer handler
func NewGetTransferHandler(repo domain.TransferRepository) *GetTransferHandler {
	return &GetTransferHandler{repo: repo}
}

func (h *GetTransferHandler) Handle(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error) {
	return h.repo.FindByID(ctx, id)
}
