package command

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
)

// now is the clock of every state transition.
var now = func() time.Time { return time.Now().UTC() }

// Effects is what a committed unit leaves for the post-commit phase.
type Effects struct {
	Touched   []inventory.StockKey
	Movements []inventory.InventoryTransaction
	Events    []domain.Event
}

// Unit is one atomic operation in progress. Handlers mutate through its
// repositories and record what must happen once the unit commits.
type Unit struct {
	domain.Repositories
	effects   Effects
	decreased []uuid.UUID
}

func NewUnit(repos domain.Repositories) *Unit {
	return &Unit{Repositories: repos}
}

// Moved records a committed-to-be stock movement.
func (u *Unit) Moved(txn *inventory.InventoryTransaction) {
	if txn == nil {
		return
	}
	u.effects.Movements = append(u.effects.Movements, *txn)
	u.Touch(inventory.StockKey{ProductID: txn.ProductID, WarehouseID: txn.WarehouseID})
	if txn.TransactionType == inventory.Outbound {
		u.decreased = append(u.decreased, txn.ProductID)
	}
}

// Touch marks stock rows whose cached snapshots go stale.
func (u *Unit) Touch(keys ...inventory.StockKey) {
	u.effects.Touched = append(u.effects.Touched, keys...)
}

func (u *Unit) Emit(events ...domain.Event) {
	u.effects.Events = append(u.effects.Events, events...)
}

// Effects finalizes the unit: it emits stock level events for every product
// whose on-hand went down and returns the collected effects.
func (u *Unit) Effects(ctx context.Context) (Effects, error) {
	products := slices.Clone(u.decreased)
	slices.SortFunc(products, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	for _, id := range slices.Compact(products) {
		if err := u.checkStockLevel(ctx, id); err != nil {
			return Effects{}, err
		}
	}
	u.effects.Touched = inventory.CanonicalKeys(u.effects.Touched)
	return u.effects, nil
}

func (u *Unit) checkStockLevel(ctx context.Context, productID uuid.UUID) error {
	product, err := u.Catalog().Product(ctx, productID)
	if err != nil {
		return err
	}
	onHand, err := u.Stock().TotalOnHand(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to total stock for %s: %w", product.SKU, err)
	}

	payload := domain.StockLevelPayload{
		ProductID:       product.ID,
		SKU:             product.SKU,
		Name:            product.Name,
		OnHand:          onHand,
		MinStockLevel:   product.MinStockLevel,
		ReorderPoint:    product.ReorderPoint,
		ReorderQuantity: product.ReorderQuantity,
	}
	if product.IsLow(onHand) {
		u.Emit(domain.NewEvent(domain.EventStockLow, product.ID, payload))
	}
	if product.NeedsReorder(onHand) {
		u.Emit(domain.NewEvent(domain.EventStockReorder, product.ID, payload))
	}
	return nil
}

// products loads every product referenced by ids.
func (u *Unit) products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	return u.Catalog().Products(ctx, ids)
}
