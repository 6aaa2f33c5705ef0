package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(LedgerOperations.WithLabelValues("test_ship", ResultError))

	ObserveOperation("test_ship", time.Now(), errors.New("insufficient stock"))
	ObserveOperation("test_ship", time.Now(), nil)

	assert.Equal(t, before+1, testutil.ToFloat64(LedgerOperations.WithLabelValues("test_ship", ResultError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(LedgerOperations.WithLabelValues("test_ship", ResultOK)))
}

func TestObserveMovement(t *testing.T) {
	ObserveMovement("outbound", "test_sale", decimal.RequireFromString("7.5"))
	assert.InDelta(t, 7.5, testutil.ToFloat64(StockMovementQuantity.WithLabelValues("outbound", "test_sale")), 1e-9)
}
