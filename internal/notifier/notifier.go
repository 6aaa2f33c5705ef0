// Package notifier turns fulfillment events into operator notifications.
// Delivery is a structured log line per event; handlers only decode the
// payloads they announce.
package notifier

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/kafka"
	"github.com/tair/fulfillment-ledger/pkg/metrics"
)

// Registrar is the part of the consumer the notifier binds to.
type Registrar interface {
	RegisterHandler(eventType string, handler kafka.EventHandler)
	RegisterFallback(handler kafka.EventHandler)
}

type Notifier struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Notifier {
	return &Notifier{log: log}
}

// Register binds a handler for every known event type and a fallback for the
// rest.
func (n *Notifier) Register(r Registrar) {
	handlers := map[string]kafka.EventHandler{
		domain.EventStockLow:              n.stockLow,
		domain.EventStockReorder:          n.stockReorder,
		domain.EventSaleConfirmed:         n.sale,
		domain.EventSaleShipped:           n.sale,
		domain.EventSaleDelivered:         n.sale,
		domain.EventSaleCancelled:         n.sale,
		domain.EventSalePaymentDue:        n.paymentDue,
		domain.EventPurchaseOrderReceived: n.purchaseOrderReceived,
		domain.EventTransferCompleted:     n.transferCompleted,
	}
	for eventType, h := range handlers {
		r.RegisterHandler(eventType, counted(h))
	}
	r.RegisterFallback(counted(n.unknown))
}

func counted(h kafka.EventHandler) kafka.EventHandler {
	return func(ctx context.Context, env kafka.Envelope) error {
		err := h(ctx, env)
		result := metrics.ResultOK
		if err != nil {
			result = metrics.ResultError
		}
		metrics.EventsConsumed.WithLabelValues(env.EventType, result).Inc()
		return err
	}
}

func (n *Notifier) stockLow(_ context.Context, env kafka.Envelope) error {
	var p domain.StockLevelPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	n.log.Warn().
		Str("event_id", env.EventID).
		Str("product_id", p.ProductID.String()).
		Str("sku", p.SKU).
		Str("name", p.Name).
		Str("on_hand", p.OnHand.String()).
		Str("min_stock_level", p.MinStockLevel.String()).
		Msg("Stock below minimum level")
	return nil
}

func (n *Notifier) stockReorder(_ context.Context, env kafka.Envelope) error {
	var p domain.StockLevelPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	n.log.Info().
		Str("event_id", env.EventID).
		Str("product_id", p.ProductID.String()).
		Str("sku", p.SKU).
		Str("on_hand", p.OnHand.String()).
		Str("reorder_point", p.ReorderPoint.String()).
		Str("reorder_quantity", p.ReorderQuantity.String()).
		Msg("Reorder suggested")
	return nil
}

func (n *Notifier) sale(_ context.Context, env kafka.Envelope) error {
	var p domain.SalePayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	n.log.Info().
		Str("event_id", env.EventID).
		Str("event_type", env.EventType).
		Str("sale_id", p.SaleID.String()).
		Str("sale_number", p.SaleNumber).
		Str("customer_id", p.CustomerID.String()).
		Str("status", string(p.Status)).
		Str("total_amount", p.TotalAmount.String()).
		Msg("Sale updated")
	return nil
}

func (n *Notifier) paymentDue(_ context.Context, env kafka.Envelope) error {
	var p domain.SalePayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	if p.DueDate == nil {
		return fmt.Errorf("payment due event %s has no due date", env.EventID)
	}
	n.log.Warn().
		Str("event_id", env.EventID).
		Str("sale_number", p.SaleNumber).
		Str("customer_id", p.CustomerID.String()).
		Str("payment_status", string(p.PaymentStatus)).
		Str("outstanding", p.TotalAmount.Sub(p.PaidAmount).String()).
		Time("due_date", *p.DueDate).
		Msg("Payment overdue")
	return nil
}

func (n *Notifier) purchaseOrderReceived(_ context.Context, env kafka.Envelope) error {
	var p domain.PurchaseOrderPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	n.log.Info().
		Str("event_id", env.EventID).
		Str("po_number", p.PONumber).
		Str("supplier_id", p.SupplierID.String()).
		Str("warehouse_id", p.WarehouseID.String()).
		Msg("Purchase order fully received")
	return nil
}

func (n *Notifier) transferCompleted(_ context.Context, env kafka.Envelope) error {
	var p domain.TransferPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	n.log.Info().
		Str("event_id", env.EventID).
		Str("transfer_number", p.TransferNumber).
		Str("from_warehouse_id", p.FromWarehouseID.String()).
		Str("to_warehouse_id", p.ToWarehouseID.String()).
		Msg("Transfer completed")
	return nil
}

func (n *Notifier) unknown(_ context.Context, env kafka.Envelope) error {
	n.log.Debug().
		Str("event_id", env.EventID).
		Str("event_type", env.EventType).
		Msg("No notification for event type")
	return nil
}
