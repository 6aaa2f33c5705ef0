package repository

import (
	"context"

	"gorm.io/gorm"

	catalogdomain "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	catalogrepo "github.com/tair/fulfillment-ledger/internal/catalog/repository"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	inventoryrepo "github.com/tair/fulfillment-ledger/internal/inventory/repository"
	"github.com/tair/fulfillment-ledger/pkg/database"
)

// GormUnitOfWork runs each unit in one gorm transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, newRepositories(tx))
	})
	return database.MapError(err)
}

func (u *GormUnitOfWork) Read() domain.Repositories {
	return newRepositories(u.db)
}

type repositories struct {
	stock     inventory.StockLedger
	log       *inventoryrepo.GormTransactionLog
	serials   *inventoryrepo.GormSerialRepository
	batches   *inventoryrepo.GormBatchRepository
	sales     *GormSaleRepository
	purchases *GormPurchaseOrderRepository
	transfers *GormTransferRepository
	catalog   *catalogrepo.GormCatalogRepository
}

func newRepositories(db *gorm.DB) *repositories {
	return &repositories{
		stock:     inventoryrepo.NewTracingStockLedger(inventoryrepo.NewGormStockLedger(db)),
		log:       inventoryrepo.NewGormTransactionLog(db),
		serials:   inventoryrepo.NewGormSerialRepository(db),
		batches:   inventoryrepo.NewGormBatchRepository(db),
		sales:     NewGormSaleRepository(db),
		purchases: NewGormPurchaseOrderRepository(db),
		transfers: NewGormTransferRepository(db),
		catalog:   catalogrepo.NewGormCatalogRepository(db),
	}
}

func (r *repositories) Stock() inventory.StockLedger { return r.stock }
func (r *repositories) Transactions() inventory.TransactionLog { return r.log }
func (r *repositories) Serials() inventory.SerialRepository { return r.serials }
func (r *repositories) Batches() inventory.BatchRepository { return r.batches }
func (r *repositories) Sales() domain.SaleRepository { return r.sales }
func (r *repositories) PurchaseOrders() domain.PurchaseOrderRepository { return r.purchases }
func (r *repositories) Transfers() domain.TransferRepository { return r.transfers }
func (r *repositories) Catalog() catalogdomain.Lookup { return r.catalog }
