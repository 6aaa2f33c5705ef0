package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
)

// SaleFilter narrows a sale listing.
type SaleFilter struct {
	Status     SaleStatus
	CustomerID *uuid.UUID
	Limit      int
	Offset     int
}

type SaleRepository interface {
	Create(ctx context.Context, s *Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	// FindForUpdate loads the sale with its items and locks the sale row.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
	Save(ctx context.Context, s *Sale) error
	SaveItems(ctx context.Context, items []SaleItem) error
	ReplaceItems(ctx context.Context, s *Sale) error
	CreateShipment(ctx context.Context, sh *Shipment) error
	SaveShipment(ctx context.Context, sh *Shipment) error
	List(ctx context.Context, f SaleFilter) ([]Sale, int64, error)
	PaymentDue(ctx context.Context, asOf time.Time, limit int) ([]Sale, error)
}

type PurchaseOrderRepository interface {
	Create(ctx context.Context, p *PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	Save(ctx context.Context, p *PurchaseOrder) error
	SaveItem(ctx context.Context, item *PurchaseOrderItem) error
}

type TransferRepository interface {
	Create(ctx context.Context, t *WarehouseTransfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*WarehouseTransfer, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*WarehouseTransfer, error)
	Save(ctx context.Context, t *WarehouseTransfer) error
}

// Repositories is the set of stores bound to one unit of work.
type Repositories interface {
	Stock() inventory.StockLedger
	Transactions() inventory.TransactionLog
	Serials() inventory.SerialRepository
	Batches() inventory.BatchRepository
	Sales() SaleRepository
	PurchaseOrders() PurchaseOrderRepository
	Transfers() TransferRepository
	Catalog() catalog.Lookup
}

// UnitOfWork is the persistence and transaction boundary. Do runs fn in one
// database transaction and commits only when fn returns nil. Read returns
// stores outside any transaction for queries.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Read() Repositories
}
