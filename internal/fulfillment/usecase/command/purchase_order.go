package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/numbering"
)

// PurchaseItemInput is one requested purchase line. A nil UnitPrice takes the
// product's cost price.
type PurchaseItemInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
}

// CreatePurchaseOrderCommand represents the command to create a purchase order
type CreatePurchaseOrderCommand struct {
	PONumber     string
	SupplierID   uuid.UUID
	WarehouseID  uuid.UUID
	Items        []PurchaseItemInput
	ExpectedDate *time.Time
	Notes        string
}

// CreatePurchaseOrderHandler handles create purchase order command
type CreatePurchaseOrderHandler struct {
	numbers *numbering.Generator
}

// NewCreatePurchaseOrderHandler creates a new create purchase order handler
func NewCreatePurchaseOrderHandler(numbers *numbering.Generator) *CreatePurchaseOrderHandler {
	return &CreatePurchaseOrderHandler{numbers: numbers}
}

func (h *CreatePurchaseOrderHandler) Handle(ctx context.Context, u *Unit, cmd CreatePurchaseOrderCommand) (*domain.PurchaseOrder, error) {
	if cmd.SupplierID == uuid.Nil || cmd.WarehouseID == uuid.Nil {
		return nil, apperr.Validation("supplier_id and warehouse_id are required")
	}
	if _, err := u.Catalog().Supplier(ctx, cmd.SupplierID); err != nil {
		return nil, err
	}
	if _, err := u.Catalog().Warehouse(ctx, cmd.WarehouseID); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(cmd.Items))
	for _, in := range cmd.Items {
		ids = append(ids, in.ProductID)
	}
	products, err := u.products(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.PurchaseLine, 0, len(cmd.Items))
	for _, in := range cmd.Items {
		p, ok := products[in.ProductID]
		if !ok {
			return nil, apperr.NotFound("product", in.ProductID)
		}
		if err := tracked(p, in.Quantity); err != nil {
			return nil, err
		}
		price := p.CostPrice
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		lines = append(lines, domain.PurchaseLine{ProductID: in.ProductID, Quantity: in.Quantity, UnitPrice: price})
	}
	items, total, err := domain.NewPurchaseOrderItems(lines)
	if err != nil {
		return nil, err
	}

	if cmd.PONumber == "" {
		cmd.PONumber = h.numbers.PurchaseOrderNumber()
	}
	po := &domain.PurchaseOrder{
		PONumber:     cmd.PONumber,
		SupplierID:   cmd.SupplierID,
		WarehouseID:  cmd.WarehouseID,
		Status:       domain.PurchasePending,
		TotalAmount:  total,
		ExpectedDate: cmd.ExpectedDate,
		Notes:        cmd.Notes,
		Items:        items,
	}
	if err := u.PurchaseOrders().Create(ctx, po); err != nil {
		return nil, fmt.Errorf("failed to create purchase order: %w", err)
	}
	return po, nil
}

// ReceivePurchaseOrderCommand books a delivery against one purchase order line
type ReceivePurchaseOrderCommand struct {
	PurchaseOrderID uuid.UUID
	ItemID          uuid.UUID
	Quantity        decimal.Decimal
	Lot             LotReceipt
}

// ReceivePurchaseOrderHandler handles receive purchase order command
type ReceivePurchaseOrderHandler struct{}

// NewReceivePurchaseOrderHandler creates a new receive purchase order handler
func NewReceivePurchaseOrderHandler() *ReceivePurchaseOrderHandler {
	return &ReceivePurchaseOrderHandler{}
}

// Handle adds the received units to the order's warehouse. Once every line
// is complete the order becomes received.
func (h *ReceivePurchaseOrderHandler) Handle(ctx context.Context, u *Unit, cmd ReceivePurchaseOrderCommand) (*domain.PurchaseOrder, error) {
	po, err := u.PurchaseOrders().FindForUpdate(ctx, cmd.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	item, err := po.Receive(cmd.ItemID, cmd.Quantity, now())
	if err != nil {
		return nil, err
	}
	product, err := u.Catalog().Product(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if err := tracked(product, cmd.Quantity); err != nil {
		return nil, err
	}

	txn, err := u.Stock().Adjust(ctx, inventory.Movement{
		ProductID:     item.ProductID,
		WarehouseID:   po.WarehouseID,
		Delta:         cmd.Quantity,
		ReferenceType: inventory.RefPurchase,
		ReferenceID:   &po.ID,
		Notes:         "Purchase order " + po.PONumber,
	})
	if err != nil {
		return nil, err
	}
	u.Moved(txn)
	if err := receiveInbound(ctx, u, product, po.WarehouseID, cmd.Quantity, cmd.Lot); err != nil {
		return nil, err
	}

	if err := u.PurchaseOrders().SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save received quantity: %w", err)
	}
	if err := u.PurchaseOrders().Save(ctx, po); err != nil {
		return nil, fmt.Errorf("failed to update purchase order: %w", err)
	}
	if po.Status == domain.PurchaseReceived {
		u.Emit(domain.NewEvent(domain.EventPurchaseOrderReceived, po.ID, domain.PurchaseOrderPayload{
			PurchaseOrderID: po.ID,
			PONumber:        po.PONumber,
			SupplierID:      po.SupplierID,
			WarehouseID:     po.WarehouseID,
		}))
	}
	return po, nil
}

// CancelPurchaseOrderHandler handles purchase order cancellation
type CancelPurchaseOrderHandler struct{}

// NewCancelPurchaseOrderHandler creates a new cancel purchase order handler
func NewCancelPurchaseOrderHandler() *CancelPurchaseOrderHandler {
	return &CancelPurchaseOrderHandler{}
}

func (h *CancelPurchaseOrderHandler) Handle(ctx context.Context, u *Unit, poID uuid.UUID) (*domain.PurchaseOrder, error) {
	po, err := u.PurchaseOrders().FindForUpdate(ctx, poID)
	if err != nil {
		return nil, err
	}
	if err := po.Cancel(now()); err != nil {
		return nil, err
	}
	if err := u.PurchaseOrders().Save(ctx, po); err != nil {
		return nil, fmt.Errorf("failed to cancel purchase order: %w", err)
	}
	return po, nil
}
