package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/fulfillment-ledger/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-repository")

// TracingStockLedger wraps a StockLedger with a span per call.
type TracingStockLedger struct {
	next domain.StockLedger
}

// NewTracingStockLedger creates a new ledger with tracing
func NewTracingStockLedger(next domain.StockLedger) *TracingStockLedger {
	return &TracingStockLedger{next: next}
}

func stockAttrs(productID, warehouseID uuid.UUID) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("stock.product_id", productID.String()),
		attribute.String("stock.warehouse_id", warehouseID.String()),
	}
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func snapshotAttrs(s domain.StockSnapshot) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("stock.quantity", s.Quantity.String()),
		attribute.String("stock.reserved", s.Reserved.String()),
		attribute.String("stock.available", s.Available.String()),
	}
}

// GetStock with tracing
func (t *TracingStockLedger) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (domain.StockSnapshot, error) {
	ctx, span := tracer.Start(ctx, "ledger.GetStock", trace.WithAttributes(stockAttrs(productID, warehouseID)...))
	snap, err := t.next.GetStock(ctx, productID, warehouseID)
	if err == nil {
		span.SetAttributes(snapshotAttrs(snap)...)
	}
	end(span, err)
	return snap, err
}

// Lock with tracing
func (t *TracingStockLedger) Lock(ctx context.Context, keys ...domain.StockKey) error {
	ctx, span := tracer.Start(ctx, "ledger.Lock", trace.WithAttributes(attribute.Int("stock.keys", len(keys))))
	err := t.next.Lock(ctx, keys...)
	end(span, err)
	return err
}

// Adjust with tracing
func (t *TracingStockLedger) Adjust(ctx context.Context, m domain.Movement) (*domain.InventoryTransaction, error) {
	ctx, span := tracer.Start(ctx, "ledger.Adjust",
		trace.WithAttributes(stockAttrs(m.ProductID, m.WarehouseID)...),
		trace.WithAttributes(
			attribute.String("stock.delta", m.Delta.String()),
			attribute.String("stock.reference_type", string(m.ReferenceType)),
		),
	)
	txn, err := t.next.Adjust(ctx, m)
	if err == nil {
		span.SetAttributes(
			attribute.String("transaction.id", txn.ID.String()),
			attribute.String("transaction.balance_after", txn.BalanceAfter.String()),
		)
	}
	end(span, err)
	return txn, err
}

// Reserve with tracing
func (t *TracingStockLedger) Reserve(ctx context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) (domain.StockSnapshot, error) {
	ctx, span := tracer.Start(ctx, "ledger.Reserve",
		trace.WithAttributes(stockAttrs(productID, warehouseID)...),
		trace.WithAttributes(attribute.String("stock.requested", qty.String())),
	)
	snap, err := t.next.Reserve(ctx, productID, warehouseID, qty)
	if err == nil {
		span.SetAttributes(snapshotAttrs(snap)...)
	}
	end(span, err)
	return snap, err
}

// Release with tracing
func (t *TracingStockLedger) Release(ctx context.Context, productID, warehouseID uuid.UUID, qty decimal.Decimal) (domain.StockSnapshot, error) {
	ctx, span := tracer.Start(ctx, "ledger.Release",
		trace.WithAttributes(stockAttrs(productID, warehouseID)...),
		trace.WithAttributes(attribute.String("stock.released", qty.String())),
	)
	snap, err := t.next.Release(ctx, productID, warehouseID, qty)
	if err == nil {
		span.SetAttributes(snapshotAttrs(snap)...)
	}
	end(span, err)
	return snap, err
}

// Consume with tracing
func (t *TracingStockLedger) Consume(ctx context.Context, c domain.Consumption) (*domain.InventoryTransaction, error) {
	ctx, span := tracer.Start(ctx, "ledger.Consume",
		trace.WithAttributes(stockAttrs(c.ProductID, c.WarehouseID)...),
		trace.WithAttributes(
			attribute.String("stock.requested", c.Quantity.String()),
			attribute.String("stock.held", c.Held.String()),
			attribute.String("stock.reference_type", string(c.ReferenceType)),
		),
	)
	txn, err := t.next.Consume(ctx, c)
	if err == nil {
		span.SetAttributes(
			attribute.String("transaction.id", txn.ID.String()),
			attribute.String("transaction.balance_after", txn.BalanceAfter.String()),
		)
	}
	end(span, err)
	return txn, err
}

// TotalOnHand with tracing
func (t *TracingStockLedger) TotalOnHand(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	ctx, span := tracer.Start(ctx, "ledger.TotalOnHand",
		trace.WithAttributes(attribute.String("stock.product_id", productID.String())))
	total, err := t.next.TotalOnHand(ctx, productID)
	if err == nil {
		span.SetAttributes(attribute.String("stock.total_on_hand", total.String()))
	}
	end(span, err)
	return total, err
}

// ListByProduct with tracing
func (t *TracingStockLedger) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.WarehouseStock, error) {
	ctx, span := tracer.Start(ctx, "ledger.ListByProduct",
		trace.WithAttributes(attribute.String("stock.product_id", productID.String())))
	rows, err := t.next.ListByProduct(ctx, productID)
	if err == nil {
		span.SetAttributes(attribute.Int("stock.rows", len(rows)))
	}
	end(span, err)
	return rows, err
}
