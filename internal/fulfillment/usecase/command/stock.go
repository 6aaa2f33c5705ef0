package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// ReservationPolicy decides when confirmed sales hold stock.
type ReservationPolicy string

const (
	// ReserveAtShip checks availability only when the sale ships.
	ReserveAtShip ReservationPolicy = "ship"
	// ReserveAtConfirm reserves every line when the sale is confirmed.
	ReserveAtConfirm ReservationPolicy = "confirm"
)

func saleKeys(s *domain.Sale) []inventory.StockKey {
	if s.WarehouseID == nil {
		return nil
	}
	keys := make([]inventory.StockKey, 0, len(s.Items))
	for _, item := range s.Items {
		keys = append(keys, inventory.StockKey{ProductID: item.ProductID, WarehouseID: *s.WarehouseID})
	}
	return keys
}

func saleProductIDs(s *domain.Sale) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Items))
	for _, item := range s.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// reserveSale holds every line of a confirmed sale. A sale without a
// warehouse holds nothing until one is assigned.
func reserveSale(ctx context.Context, u *Unit, s *domain.Sale) error {
	if s.WarehouseID == nil {
		return nil
	}
	keys := saleKeys(s)
	if err := u.Stock().Lock(ctx, keys...); err != nil {
		return err
	}
	products, err := u.products(ctx, saleProductIDs(s))
	if err != nil {
		return err
	}
	for i := range s.Items {
		item := &s.Items[i]
		need := item.Quantity.Sub(item.ReservedQuantity)
		if !need.IsPositive() {
			continue
		}
		if _, err := u.Stock().Reserve(ctx, item.ProductID, *s.WarehouseID, need); err != nil {
			return err
		}
		if products[item.ProductID].TrackSerials {
			if _, err := u.Serials().Allocate(ctx, item.ProductID, *s.WarehouseID,
				int(need.IntPart()), s.ID, inventory.SerialReserved); err != nil {
				return err
			}
		}
		item.ReservedQuantity = item.Quantity
	}
	u.Touch(keys...)
	return nil
}

// releaseSale gives back whatever the sale holds.
func releaseSale(ctx context.Context, u *Unit, s *domain.Sale) error {
	if s.WarehouseID == nil {
		return nil
	}
	keys := saleKeys(s)
	if err := u.Stock().Lock(ctx, keys...); err != nil {
		return err
	}
	held := false
	for i := range s.Items {
		item := &s.Items[i]
		if !item.ReservedQuantity.IsPositive() {
			continue
		}
		if _, err := u.Stock().Release(ctx, item.ProductID, *s.WarehouseID, item.ReservedQuantity); err != nil {
			return err
		}
		item.ReservedQuantity = decimal.Zero
		held = true
	}
	if !held {
		return nil
	}
	if _, err := u.Serials().ReleaseSale(ctx, s.ID); err != nil {
		return err
	}
	u.Touch(keys...)
	return nil
}

// tracked checks that quantities of a serial-tracked product are whole units.
func tracked(p *catalog.Product, qty decimal.Decimal) error {
	if p.TrackSerials && !qty.IsInteger() {
		return apperr.Validation("product %s is serial-tracked, quantity %s must be a whole number", p.SKU, qty)
	}
	return nil
}

// drawOutbound takes units that left a warehouse out of its lots and serials.
// Listed serials are retired exactly, otherwise the oldest units go.
func drawOutbound(ctx context.Context, u *Unit, p *catalog.Product, warehouseID uuid.UUID,
	qty decimal.Decimal, serials []string) ([]inventory.BatchDraw, error) {
	var draws []inventory.BatchDraw
	if p.TrackBatches {
		var err error
		if draws, err = u.Batches().Draw(ctx, p.ID, warehouseID, qty); err != nil {
			return nil, err
		}
	}
	if p.TrackSerials {
		if len(serials) > 0 {
			if _, err := u.Serials().Retire(ctx, p.ID, warehouseID, serials); err != nil {
				return nil, err
			}
		} else if _, err := u.Serials().RetireOldest(ctx, p.ID, warehouseID, int(qty.IntPart())); err != nil {
			return nil, err
		}
	}
	return draws, nil
}

// LotReceipt names the lot and units of an inbound movement.
type LotReceipt struct {
	BatchNumber       string
	ManufacturingDate *time.Time
	ExpiryDate        *time.Time
	SerialNumbers     []string
}

// receiveInbound books units that arrived into lots and serials.
func receiveInbound(ctx context.Context, u *Unit, p *catalog.Product, warehouseID uuid.UUID,
	qty decimal.Decimal, lot LotReceipt) error {
	if p.TrackBatches {
		if lot.BatchNumber == "" {
			return apperr.Validation("product %s is batch-tracked, batch_number is required", p.SKU)
		}
		if _, err := u.Batches().Receive(ctx, inventory.BatchReceipt{
			ProductID:         p.ID,
			WarehouseID:       warehouseID,
			BatchNumber:       lot.BatchNumber,
			ManufacturingDate: lot.ManufacturingDate,
			ExpiryDate:        lot.ExpiryDate,
			Quantity:          qty,
		}); err != nil {
			return fmt.Errorf("failed to receive batch %s: %w", lot.BatchNumber, err)
		}
	}
	if p.TrackSerials {
		if int64(len(lot.SerialNumbers)) != qty.IntPart() {
			return apperr.Validation("product %s is serial-tracked, expected %s serial numbers, got %d",
				p.SKU, qty, len(lot.SerialNumbers))
		}
		if _, err := u.Serials().Register(ctx, p.ID, warehouseID, lot.SerialNumbers); err != nil {
			return err
		}
	}
	return nil
}
