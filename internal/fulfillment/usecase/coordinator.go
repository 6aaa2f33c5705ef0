package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	catalog "github.com/tair/fulfillment-ledger/internal/catalog/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase/command"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase/query"
	"github.com/tair/fulfillment-ledger/internal/inventory/cache"
	inventory "github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/logger"
	"github.com/tair/fulfillment-ledger/pkg/metrics"
	"github.com/tair/fulfillment-ledger/pkg/numbering"
)

var tracer = otel.Tracer("fulfillment-usecase")

// Coordinator runs every fulfillment operation as one unit of work and
// applies the post-commit effects of the units that commit.
type Coordinator struct {
	uow       domain.UnitOfWork
	cache     *cache.StockCache
	publisher domain.EventPublisher

	createSale    *command.CreateSaleHandler
	updateSale    *command.UpdateSaleHandler
	confirmSale   *command.ConfirmSaleHandler
	shipSale      *command.ShipSaleHandler
	deliverSale   *command.DeliverSaleHandler
	cancelSale    *command.CancelSaleHandler
	recordPayment *command.RecordPaymentHandler
	createPO      *command.CreatePurchaseOrderHandler
	receivePO     *command.ReceivePurchaseOrderHandler
	cancelPO      *command.CancelPurchaseOrderHandler
	createTr      *command.CreateTransferHandler
	dispatchTr    *command.DispatchTransferHandler
	completeTr    *command.CompleteTransferHandler
	cancelTr      *command.CancelTransferHandler
	adjustStock   *command.AdjustStockHandler
	registerSer   *command.RegisterSerialsHandler

	getStock     *query.GetStockHandler
	reconcile    *query.ReconcileHandler
	lowStock     *query.LowStockHandler
	expiring     *query.ExpiringBatchesHandler
	listSerials  *query.ListSerialsHandler
	getSale      *query.GetSaleHandler
	listSales    *query.ListSalesHandler
	getPO        *query.GetPurchaseOrderHandler
	getTransfer  *query.GetTransferHandler
	transactions inventory.TransactionLog
}

// NewCoordinator wires the command and query handlers. A nil publisher drops
// events.
func NewCoordinator(uow domain.UnitOfWork, catalogRepo catalog.Repository, stockCache *cache.StockCache,
	publisher domain.EventPublisher, policy command.ReservationPolicy, numbers *numbering.Generator) *Coordinator {
	read := uow.Read()
	return &Coordinator{
		uow:       uow,
		cache:     stockCache,
		publisher: publisher,

		createSale:    command.NewCreateSaleHandler(numbers),
		updateSale:    command.NewUpdateSaleHandler(policy),
		confirmSale:   command.NewConfirmSaleHandler(policy),
		shipSale:      command.NewShipSaleHandler(),
		deliverSale:   command.NewDeliverSaleHandler(),
		cancelSale:    command.NewCancelSaleHandler(),
		recordPayment: command.NewRecordPaymentHandler(),
		createPO:      command.NewCreatePurchaseOrderHandler(numbers),
		receivePO:     command.NewReceivePurchaseOrderHandler(),
		cancelPO:      command.NewCancelPurchaseOrderHandler(),
		createTr:      command.NewCreateTransferHandler(numbers),
		dispatchTr:    command.NewDispatchTransferHandler(),
		completeTr:    command.NewCompleteTransferHandler(),
		cancelTr:      command.NewCancelTransferHandler(),
		adjustStock:   command.NewAdjustStockHandler(),
		registerSer:   command.NewRegisterSerialsHandler(),

		getStock:     query.NewGetStockHandler(read.Stock(), stockCache),
		reconcile:    query.NewReconcileHandler(read.Stock(), read.Transactions()),
		lowStock:     query.NewLowStockHandler(catalogRepo),
		expiring:     query.NewExpiringBatchesHandler(read.Batches()),
		listSerials:  query.NewListSerialsHandler(read.Serials()),
		getSale:      query.NewGetSaleHandler(read.Sales()),
		listSales:    query.NewListSalesHandler(read.Sales()),
		getPO:        query.NewGetPurchaseOrderHandler(read.PurchaseOrders()),
		getTransfer:  query.NewGetTransferHandler(read.Transfers()),
		transactions: read.Transactions(),
	}
}

// run executes fn in one database transaction. Effects are applied only
// once the transaction has committed.
func run[T any](ctx context.Context, c *Coordinator, op string, fn func(ctx context.Context, u *command.Unit) (T, error)) (T, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "coordinator."+op)
	defer span.End()

	var (
		result  T
		effects command.Effects
	)
	err := c.uow.Do(ctx, func(ctx context.Context, repos domain.Repositories) error {
		u := command.NewUnit(repos)
		out, err := fn(ctx, u)
		if err != nil {
			return err
		}
		if effects, err = u.Effects(ctx); err != nil {
			return err
		}
		result = out
		return nil
	})
	metrics.ObserveOperation(op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logOperationError(ctx, op, err)
		var zero T
		return zero, err
	}

	span.SetAttributes(
		attribute.Int("fulfillment.movements", len(effects.Movements)),
		attribute.Int("fulfillment.events", len(effects.Events)),
	)
	c.afterCommit(context.WithoutCancel(ctx), op, effects)
	return result, nil
}

func logOperationError(ctx context.Context, op string, err error) {
	kind := apperr.KindOf(err)
	event := logger.Warn(ctx)
	if kind == nil {
		event = logger.Error(ctx)
	}
	event.Err(err).Str("operation", op).Msg("Fulfillment operation failed")
}

// afterCommit never fails the operation; problems are logged.
func (c *Coordinator) afterCommit(ctx context.Context, op string, e command.Effects) {
	if err := c.cache.Invalidate(ctx, e.Touched...); err != nil {
		logger.Warn(ctx).Err(err).Str("operation", op).Int("keys", len(e.Touched)).
			Msg("Failed to invalidate stock cache")
	}

	for _, txn := range e.Movements {
		metrics.ObserveMovement(string(txn.TransactionType), string(txn.ReferenceType), txn.Quantity)
	}

	if len(e.Events) == 0 || c.publisher == nil {
		return
	}
	err := c.publisher.Publish(ctx, e.Events...)
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
		logger.Error(ctx).Err(err).Str("operation", op).Int("events", len(e.Events)).
			Msg("Failed to publish domain events")
	}
	for _, ev := range e.Events {
		metrics.EventsPublished.WithLabelValues(ev.Type, result).Inc()
	}
}

func (c *Coordinator) CreateSale(ctx context.Context, cmd command.CreateSaleCommand) (*domain.Sale, error) {
	return run(ctx, c, "create_sale", func(ctx context.Context, u *command.Unit) (*domain.Sale, error) {
		return c.createSale.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) UpdateSale(ctx context.Context, cmd command.UpdateSaleCommand) (*domain.Sale, error) {
	return run(ctx, c, "update_sale", func(ctx context.Context, u *command.Unit) (*domain.Sale, error) {
		return c.updateSale.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) ConfirmSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return run(ctx, c, "confirm_sale", func(ctx context.Context, u *command.Unit) (*domain.Sale, error) {
		return c.confirmSale.Handle(ctx, u, id)
	})
}

func (c *Coordinator) ShipSale(ctx context.Context, cmd command.ShipSaleCommand) (*domain.Sale, error) {
	return run(ctx, c, "ship_sale", func(ctx context.Context, u *command.Unit) (*domain.Sale, error) {
		return c.shipSale.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) DeliverSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return run(ctx, c, "deliver_sale", func(ctx context.Context, u *command.Unit) (*domain.Sale, error) {
		return c.deliverSale.Handle(ctx, u, id)
	})
}

func (c *Coordinator) CancelSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return run(ctx, c, "cancel_sale", func(ctx context.Context, u *command.Unit) (*domain.Sale, error) {
		return c.cancelSale.Handle(ctx, u, id)
	})
}

func (c *Coordinator) RecordPayment(ctx context.Context, cmd command.RecordPaymentCommand) (*domain.Sale, error) {
	return run(ctx, c, "record_payment", func(ctx context.Context, u *command.Unit) (*domain.Sale, error) {
		return c.recordPayment.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) CreatePurchaseOrder(ctx context.Context, cmd command.CreatePurchaseOrderCommand) (*domain.PurchaseOrder, error) {
	return run(ctx, c, "create_purchase_order", func(ctx context.Context, u *command.Unit) (*domain.PurchaseOrder, error) {
		return c.createPO.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) ReceivePurchaseOrderItem(ctx context.Context, cmd command.ReceivePurchaseOrderCommand) (*domain.PurchaseOrder, error) {
	return run(ctx, c, "receive_purchase_order", func(ctx context.Context, u *command.Unit) (*domain.PurchaseOrder, error) {
		return c.receivePO.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) CancelPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return run(ctx, c, "cancel_purchase_order", func(ctx context.Context, u *command.Unit) (*domain.PurchaseOrder, error) {
		return c.cancelPO.Handle(ctx, u, id)
	})
}

func (c *Coordinator) CreateTransfer(ctx context.Context, cmd command.CreateTransferCommand) (*domain.WarehouseTransfer, error) {
	return run(ctx, c, "create_transfer", func(ctx context.Context, u *command.Unit) (*domain.WarehouseTransfer, error) {
		return c.createTr.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) DispatchTransfer(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error) {
	return run(ctx, c, "dispatch_transfer", func(ctx context.Context, u *command.Unit) (*domain.WarehouseTransfer, error) {
		return c.dispatchTr.Handle(ctx, u, id)
	})
}

func (c *Coordinator) CompleteTransfer(ctx context.Context, cmd command.CompleteTransferCommand) (*domain.WarehouseTransfer, error) {
	return run(ctx, c, "complete_transfer", func(ctx context.Context, u *command.Unit) (*domain.WarehouseTransfer, error) {
		return c.completeTr.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) CancelTransfer(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error) {
	return run(ctx, c, "cancel_transfer", func(ctx context.Context, u *command.Unit) (*domain.WarehouseTransfer, error) {
		return c.cancelTr.Handle(ctx, u, id)
	})
}

func (c *Coordinator) AdjustStock(ctx context.Context, cmd command.AdjustStockCommand) (*command.AdjustStockResult, error) {
	return run(ctx, c, "adjust_stock", func(ctx context.Context, u *command.Unit) (*command.AdjustStockResult, error) {
		return c.adjustStock.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) RegisterSerialNumbers(ctx context.Context, cmd command.RegisterSerialsCommand) ([]inventory.SerialNumber, error) {
	return run(ctx, c, "register_serials", func(ctx context.Context, u *command.Unit) ([]inventory.SerialNumber, error) {
		return c.registerSer.Handle(ctx, u, cmd)
	})
}

func (c *Coordinator) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (inventory.StockSnapshot, error) {
	return c.getStock.Handle(ctx, productID, warehouseID)
}

// ListTransactions returns a lazy newest-first walk over the audit trail.
func (c *Coordinator) ListTransactions(f inventory.HistoryFilter) *inventory.TransactionIterator {
	return c.transactions.History(f)
}

func (c *Coordinator) Reconcile(ctx context.Context, productID uuid.UUID) (*query.Reconciliation, error) {
	return c.reconcile.Handle(ctx, productID)
}

func (c *Coordinator) LowStock(ctx context.Context, limit int) ([]catalog.StockLevel, error) {
	return c.lowStock.Handle(ctx, limit)
}

func (c *Coordinator) ExpiringBatches(ctx context.Context, withinDays, limit int) ([]inventory.Batch, error) {
	return c.expiring.Handle(ctx, withinDays, limit)
}

func (c *Coordinator) ListSerialNumbers(ctx context.Context, f inventory.SerialFilter) ([]inventory.SerialNumber, error) {
	return c.listSerials.Handle(ctx, f)
}

func (c *Coordinator) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return c.getSale.Handle(ctx, id)
}

func (c *Coordinator) ListSales(ctx context.Context, q query.ListSalesQuery) (*query.SalePage, error) {
	return c.listSales.Handle(ctx, q)
}

func (c *Coordinator) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return c.getPO.Handle(ctx, id)
}

func (c *Coordinator) GetTransfer(ctx context.Context, id uuid.UUID) (*domain.WarehouseTransfer, error) {
	return c.getTransfer.Handle(ctx, id)
}
