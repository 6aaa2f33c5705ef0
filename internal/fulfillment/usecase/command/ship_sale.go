package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
)

// ShipSaleCommand represents the command to ship a confirmed sale
type ShipSaleCommand struct {
	SaleID         uuid.UUID
	CarrierName    string
	TrackingNumber string
	ShippingMethod string
	ShippingCost   decimal.Decimal
}

// ShipSaleHandler handles ship sale command
type ShipSaleHandler struct{}

// NewShipSaleHandler creates a new ship sale handler
func NewShipSaleHandler() *ShipSaleHandler {
	return &ShipSaleHandler{}
}

// Handle removes every line from the sale's warehouse and records the
// shipment. Either all lines leave or none do.
func (h *ShipSaleHandler) Handle(ctx context.Context, u *Unit, cmd ShipSaleCommand) (*domain.Sale, error) {
	sale, err := u.Sales().FindForUpdate(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}
	if err := sale.CanShip(); err != nil {
		return nil, err
	}
	warehouseID := *sale.WarehouseID

	if err := u.Stock().Lock(ctx, saleKeys(sale)...); err != nil {
		return nil, err
	}
	products, err := u.products(ctx, saleProductIDs(sale))
	if err != nil {
		return nil, err
	}

	notes := "Sale " + sale.SaleNumber
	soldSerials := make(map[uuid.UUID]int64)
	for _, item := range sale.Items {
		txn, err := u.Stock().Consume(ctx, inventory.Consumption{
			ProductID:     item.ProductID,
			WarehouseID:   warehouseID,
			Quantity:      item.Quantity,
			Held:          item.ReservedQuantity,
			ReferenceType: inventory.RefSale,
			ReferenceID:   &sale.ID,
			Notes:         notes,
		})
		if err != nil {
			return nil, err
		}
		u.Moved(txn)

		product := products[item.ProductID]
		if product.TrackBatches {
			if _, err := u.Batches().Draw(ctx, item.ProductID, warehouseID, item.Quantity); err != nil {
				return nil, err
			}
		}
		if product.TrackSerials {
			if err := h.sellSerials(ctx, u, sale.ID, item, warehouseID, soldSerials); err != nil {
				return nil, err
			}
		}
	}

	shippedAt := now()
	if err := sale.MarkShipped(shippedAt); err != nil {
		return nil, err
	}
	if err := u.Sales().SaveItems(ctx, sale.Items); err != nil {
		return nil, fmt.Errorf("failed to save shipped items: %w", err)
	}
	if err := u.Sales().Save(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to ship sale: %w", err)
	}

	sale.Shipment = &domain.Shipment{
		SaleID:         sale.ID,
		CarrierName:    cmd.CarrierName,
		TrackingNumber: cmd.TrackingNumber,
		ShippingMethod: cmd.ShippingMethod,
		ShippingCost:   cmd.ShippingCost,
		Status:         domain.ShipmentShipped,
		ShippedAt:      shippedAt,
	}
	if err := u.Sales().CreateShipment(ctx, sale.Shipment); err != nil {
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}

	u.Emit(domain.SaleEvent(domain.EventSaleShipped, sale))
	return sale, nil
}

// sellSerials marks the units reserved for the line as sold and allocates
// the rest. sold counts units already marked per product, since MarkSold
// converts every reservation of the product at once.
func (h *ShipSaleHandler) sellSerials(ctx context.Context, u *Unit, saleID uuid.UUID,
	item domain.SaleItem, warehouseID uuid.UUID, sold map[uuid.UUID]int64) error {
	if _, seen := sold[item.ProductID]; !seen {
		n, err := u.Serials().MarkSold(ctx, saleID, item.ProductID)
		if err != nil {
			return err
		}
		sold[item.ProductID] = n
	}
	need := item.Quantity.IntPart()
	take := min(need, sold[item.ProductID])
	sold[item.ProductID] -= take
	if short := need - take; short > 0 {
		if _, err := u.Serials().Allocate(ctx, item.ProductID, warehouseID,
			int(short), saleID, inventory.SerialSold); err != nil {
			return err
		}
	}
	return nil
}
