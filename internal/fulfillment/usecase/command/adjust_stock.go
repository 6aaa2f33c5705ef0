package command

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// AdjustStockCommand is a manual correction of on-hand stock. Delta is
// signed; Lot describes inbound units and Lot.SerialNumbers names outbound
// units when known.
type AdjustStockCommand struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Delta       decimal.Decimal
	Notes       string
	Lot         LotReceipt
}

// AdjustStockResult is the movement an adjustment produced.
type AdjustStockResult struct {
	Transaction *inventory.InventoryTransaction `json:"transaction"`
	Stock       inventory.StockSnapshot         `json:"stock"`
	Batches     []inventory.BatchDraw           `json:"batches,omitempty"`
}

// AdjustStockHandler handles adjust stock command
type AdjustStockHandler struct{}

// NewAdjustStockHandler creates a new adjust stock handler
func NewAdjustStockHandler() *AdjustStockHandler {
	return &AdjustStockHandler{}
}

func (h *AdjustStockHandler) Handle(ctx context.Context, u *Unit, cmd AdjustStockCommand) (*AdjustStockResult, error) {
	if cmd.ProductID == uuid.Nil || cmd.WarehouseID == uuid.Nil {
		return nil, apperr.Validation("product_id and warehouse_id are required")
	}
	if cmd.Delta.IsZero() {
		return nil, apperr.Validation("adjustment quantity must not be zero")
	}
	product, err := u.Catalog().Product(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := u.Catalog().Warehouse(ctx, cmd.WarehouseID); err != nil {
		return nil, err
	}
	if err := tracked(product, cmd.Delta); err != nil {
		return nil, err
	}

	txn, err := u.Stock().Adjust(ctx, inventory.Movement{
		ProductID:     cmd.ProductID,
		WarehouseID:   cmd.WarehouseID,
		Delta:         cmd.Delta,
		ReferenceType: inventory.RefAdjustment,
		Notes:         cmd.Notes,
	})
	if err != nil {
		return nil, err
	}
	u.Moved(txn)

	result := &AdjustStockResult{Transaction: txn}
	if cmd.Delta.IsPositive() {
		err = receiveInbound(ctx, u, product, cmd.WarehouseID, cmd.Delta, cmd.Lot)
	} else {
		result.Batches, err = drawOutbound(ctx, u, product, cmd.WarehouseID, cmd.Delta.Neg(), cmd.Lot.SerialNumbers)
	}
	if err != nil {
		return nil, err
	}

	if result.Stock, err = u.Stock().GetStock(ctx, cmd.ProductID, cmd.WarehouseID); err != nil {
		return nil, err
	}
	return result, nil
}

// RegisterSerialsCommand records serial numbers for units already on hand.
type RegisterSerialsCommand struct {
	ProductID     uuid.UUID
	WarehouseID   uuid.UUID
	SerialNumbers []string
}

// RegisterSerialsHandler handles register serials command
type RegisterSerialsHandler struct{}

// NewRegisterSerialsHandler creates a new register serials handler
func NewRegisterSerialsHandler() *RegisterSerialsHandler {
	return &RegisterSerialsHandler{}
}

// Handle registers the serials as available. The warehouse can never hold
// more unsold serials than units on hand.
func (h *RegisterSerialsHandler) Handle(ctx context.Context, u *Unit, cmd RegisterSerialsCommand) ([]inventory.SerialNumber, error) {
	if len(cmd.SerialNumbers) == 0 {
		return nil, apperr.Validation("serial_numbers must not be empty")
	}
	product, err := u.Catalog().Product(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.TrackSerials {
		return nil, apperr.Validation("product %s does not track serial numbers", product.SKU)
	}

	key := inventory.StockKey{ProductID: cmd.ProductID, WarehouseID: cmd.WarehouseID}
	if err := u.Stock().Lock(ctx, key); err != nil {
		return nil, err
	}
	stock, err := u.Stock().GetStock(ctx, cmd.ProductID, cmd.WarehouseID)
	if err != nil {
		return nil, err
	}
	registered, err := u.Serials().Count(ctx, cmd.ProductID, cmd.WarehouseID)
	if err != nil {
		return nil, err
	}
	total := decimal.NewFromInt(registered + int64(len(cmd.SerialNumbers)))
	if total.GreaterThan(stock.Quantity) {
		return nil, apperr.ConstraintViolation("registering "+decimal.NewFromInt(int64(len(cmd.SerialNumbers))).String()+
			" serials exceeds the "+stock.Quantity.String()+" units on hand", nil)
	}
	return u.Serials().Register(ctx, cmd.ProductID, cmd.WarehouseID, cmd.SerialNumbers)
}
