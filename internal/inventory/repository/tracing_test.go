package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

// stubLedger answers Reserve with a fixed error and GetStock with a fixed row.
type stubLedger struct {
	domain.StockLedger
	snapshot   domain.StockSnapshot
	reserveErr error
}

func (s *stubLedger) GetStock(context.Context, uuid.UUID, uuid.UUID) (domain.StockSnapshot, error) {
	return s.snapshot, nil
}

func (s *stubLedger) Reserve(context.Context, uuid.UUID, uuid.UUID, decimal.Decimal) (domain.StockSnapshot, error) {
	return domain.StockSnapshot{}, s.reserveErr
}

// spans is installed once; the package tracer binds to the first provider set.
var spans = tracetest.NewSpanRecorder()

func TestMain(m *testing.M) {
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))
	os.Exit(m.Run())
}

func endedSince(start int) []sdktrace.ReadOnlySpan {
	return spans.Ended()[start:]
}

func TestTracingStockLedgerRecordsSnapshot(t *testing.T) {
	start := len(spans.Ended())
	p, w := uuid.New(), uuid.New()
	ledger := NewTracingStockLedger(&stubLedger{snapshot: domain.StockSnapshot{
		ProductID: p, WarehouseID: w,
		Quantity: decimal.NewFromInt(10), Reserved: decimal.NewFromInt(3), Available: decimal.NewFromInt(7),
	}})

	_, err := ledger.GetStock(context.Background(), p, w)
	require.NoError(t, err)

	got := endedSince(start)
	require.Len(t, got, 1)
	assert.Equal(t, "ledger.GetStock", got[0].Name())

	attrs := map[string]string{}
	for _, kv := range got[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, p.String(), attrs["stock.product_id"])
	assert.Equal(t, "7", attrs["stock.available"])
}

func TestTracingStockLedgerMarksErrors(t *testing.T) {
	start := len(spans.Ended())
	failure := apperr.InsufficientStock(uuid.New(), uuid.New(), decimal.NewFromInt(5), decimal.Zero)
	ledger := NewTracingStockLedger(&stubLedger{reserveErr: failure})

	_, err := ledger.Reserve(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(5))
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	got := endedSince(start)
	require.Len(t, got, 1)
	assert.Equal(t, codes.Error, got[0].Status().Code)
	require.NotEmpty(t, got[0].Events())
	assert.Equal(t, "exception", got[0].Events()[0].Name)
}
