package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/numbering"
)

// CreateTransferCommand represents the command to plan a warehouse transfer
type CreateTransferCommand struct {
	TransferNumber  string
	FromWarehouseID uuid.UUID
	ToWarehouseID   uuid.UUID
	Items           []domain.TransferLine
	Notes           string
}

// CreateTransferHandler handles create transfer command
type CreateTransferHandler struct {
	numbers *numbering.Generator
}

// NewCreateTransferHandler creates a new create transfer handler
func NewCreateTransferHandler(numbers *numbering.Generator) *CreateTransferHandler {
	return &CreateTransferHandler{numbers: numbers}
}

func (h *CreateTransferHandler) Handle(ctx context.Context, u *Unit, cmd CreateTransferCommand) (*domain.WarehouseTransfer, error) {
	transfer, err := domain.NewTransfer(cmd.FromWarehouseID, cmd.ToWarehouseID, cmd.Items)
	if err != nil {
		return nil, err
	}
	for _, id := range []uuid.UUID{cmd.FromWarehouseID, cmd.ToWarehouseID} {
		if _, err := u.Catalog().Warehouse(ctx, id); err != nil {
			return nil, err
		}
	}
	ids := make([]uuid.UUID, 0, len(cmd.Items))
	for _, l := range cmd.Items {
		ids = append(ids, l.ProductID)
	}
	products, err := u.products(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range cmd.Items {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, apperr.NotFound("product", l.ProductID)
		}
		if err := tracked(p, l.Quantity); err != nil {
			return nil, err
		}
	}

	transfer.TransferNumber = cmd.TransferNumber
	if transfer.TransferNumber == "" {
		transfer.TransferNumber = h.numbers.TransferNumber()
	}
	transfer.Notes = cmd.Notes
	if err := u.Transfers().Create(ctx, transfer); err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}
	return transfer, nil
}

// DispatchTransferHandler marks a pending transfer as in transit
type DispatchTransferHandler struct{}

// NewDispatchTransferHandler creates a new dispatch transfer handler
func NewDispatchTransferHandler() *DispatchTransferHandler {
	return &DispatchTransferHandler{}
}

func (h *DispatchTransferHandler) Handle(ctx context.Context, u *Unit, transferID uuid.UUID) (*domain.WarehouseTransfer, error) {
	transfer, err := u.Transfers().FindForUpdate(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := transfer.Dispatch(now()); err != nil {
		return nil, err
	}
	if err := u.Transfers().Save(ctx, transfer); err != nil {
		return nil, fmt.Errorf("failed to dispatch transfer: %w", err)
	}
	return transfer, nil
}

// CancelTransferHandler cancels a pending transfer
type CancelTransferHandler struct{}

// NewCancelTransferHandler creates a new cancel transfer handler
func NewCancelTransferHandler() *CancelTransferHandler {
	return &CancelTransferHandler{}
}

func (h *CancelTransferHandler) Handle(ctx context.Context, u *Unit, transferID uuid.UUID) (*domain.WarehouseTransfer, error) {
	transfer, err := u.Transfers().FindForUpdate(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := transfer.Cancel(now()); err != nil {
		return nil, err
	}
	if err := u.Transfers().Save(ctx, transfer); err != nil {
		return nil, fmt.Errorf("failed to cancel transfer: %w", err)
	}
	return transfer, nil
}

// CompleteTransferCommand closes a transfer. Received maps item ids to the
// quantity that arrived; missing items arrived in full.
type CompleteTransferCommand struct {
	TransferID uuid.UUID
	Received   map[uuid.UUID]decimal.Decimal
}

// CompleteTransferHandler handles complete transfer command
type CompleteTransferHandler struct{}

// NewCompleteTransferHandler creates a new complete transfer handler
func NewCompleteTransferHandler() *CompleteTransferHandler {
	return &CompleteTransferHandler{}
}

// Handle removes the full quantity of every line from the source and credits
// what arrived to the destination.
func (h *CompleteTransferHandler) Handle(ctx context.Context, u *Unit, cmd CompleteTransferCommand) (*domain.WarehouseTransfer, error) {
	transfer, err := u.Transfers().FindForUpdate(ctx, cmd.TransferID)
	if err != nil {
		return nil, err
	}
	if err := transfer.Complete(cmd.Received, now()); err != nil {
		return nil, err
	}

	keys := make([]inventory.StockKey, 0, 2*len(transfer.Items))
	ids := make([]uuid.UUID, 0, len(transfer.Items))
	for _, item := range transfer.Items {
		keys = append(keys,
			inventory.StockKey{ProductID: item.ProductID, WarehouseID: transfer.FromWarehouseID},
			inventory.StockKey{ProductID: item.ProductID, WarehouseID: transfer.ToWarehouseID})
		ids = append(ids, item.ProductID)
	}
	if err := u.Stock().Lock(ctx, keys...); err != nil {
		return nil, err
	}
	products, err := u.products(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, item := range transfer.Items {
		product := products[item.ProductID]
		if err := tracked(product, item.Received()); err != nil {
			return nil, err
		}
		if err := h.move(ctx, u, transfer, item, product); err != nil {
			return nil, err
		}
	}

	if err := u.Transfers().Save(ctx, transfer); err != nil {
		return nil, fmt.Errorf("failed to complete transfer: %w", err)
	}
	u.Emit(domain.NewEvent(domain.EventTransferCompleted, transfer.ID, domain.TransferPayload{
		TransferID:      transfer.ID,
		TransferNumber:  transfer.TransferNumber,
		FromWarehouseID: transfer.FromWarehouseID,
		ToWarehouseID:   transfer.ToWarehouseID,
	}))
	return transfer, nil
}

func (h *CompleteTransferHandler) move(ctx context.Context, u *Unit, t *domain.WarehouseTransfer,
	item domain.WarehouseTransferItem, product *catalog.Product) error {
	out, err := u.Stock().Adjust(ctx, inventory.Movement{
		ProductID:     item.ProductID,
		WarehouseID:   t.FromWarehouseID,
		Delta:         item.Quantity.Neg(),
		ReferenceType: inventory.RefTransfer,
		ReferenceID:   &t.ID,
		Notes:         "Transfer " + t.TransferNumber + " out",
	})
	if err != nil {
		return err
	}
	u.Moved(out)

	received := item.Received()
	if received.IsPositive() {
		in, err := u.Stock().Adjust(ctx, inventory.Movement{
			ProductID:     item.ProductID,
			WarehouseID:   t.ToWarehouseID,
			Delta:         received,
			ReferenceType: inventory.RefTransfer,
			ReferenceID:   &t.ID,
			Notes:         "Transfer " + t.TransferNumber + " in",
		})
		if err != nil {
			return err
		}
		u.Moved(in)
	}

	if product.TrackBatches {
		if err := h.moveLots(ctx, u, t, item); err != nil {
			return err
		}
	}
	if product.TrackSerials {
		if received.IsPositive() {
			if _, err := u.Serials().Move(ctx, item.ProductID, t.FromWarehouseID, t.ToWarehouseID,
				int(received.IntPart())); err != nil {
				return err
			}
		}
		if lost := item.Lost(); lost.IsPositive() {
			if _, err := u.Serials().RetireOldest(ctx, item.ProductID, t.FromWarehouseID,
				int(lost.IntPart())); err != nil {
				return err
			}
		}
	}
	return nil
}

// moveLots draws the full quantity from the source lots and re-creates the
// received part under the same lot numbers at the destination.
func (h *CompleteTransferHandler) moveLots(ctx context.Context, u *Unit, t *domain.WarehouseTransfer,
	item domain.WarehouseTransferItem) error {
	draws, err := u.Batches().Draw(ctx, item.ProductID, t.FromWarehouseID, item.Quantity)
	if err != nil {
		return err
	}
	remaining := item.Received()
	for _, draw := range draws {
		if !remaining.IsPositive() {
			break
		}
		qty := decimal.Min(draw.Quantity, remaining)
		if _, err := u.Batches().Receive(ctx, inventory.BatchReceipt{
			ProductID:         item.ProductID,
			WarehouseID:       t.ToWarehouseID,
			BatchNumber:       draw.BatchNumber,
			ManufacturingDate: draw.ManufacturingDate,
			ExpiryDate:        draw.ExpiryDate,
			Quantity:          qty,
		}); err != nil {
			return err
		}
		remaining = remaining.Sub(qty)
	}
	return nil
}
