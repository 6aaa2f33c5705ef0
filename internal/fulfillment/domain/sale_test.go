package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func draftSale(t *testing.T, lines ...SaleLine) *Sale {
	t.Helper()
	items, err := NewSaleItems(lines)
	require.NoError(t, err)
	s := &Sale{ID: uuid.New(), Status: SaleDraft, PaymentStatus: PaymentUnpaid, Items: items}
	require.NoError(t, s.Recalculate())
	return s
}

func TestRecalculate(t *testing.T) {
	s := draftSale(t,
		SaleLine{ProductID: uuid.New(), Quantity: d("2"), UnitPrice: d("10"), Discount: d("1"), Tax: d("0.5")},
		SaleLine{ProductID: uuid.New(), Quantity: d("1"), UnitPrice: d("5.25")},
	)
	s.DiscountAmount = d("0.75")
	require.NoError(t, s.Recalculate())

	assert.True(t, s.Items[0].LineTotal.Equal(d("19.5")))
	assert.True(t, s.Items[1].LineTotal.Equal(d("5.25")))
	assert.True(t, s.Subtotal.Equal(d("24.25")), "subtotal %s", s.Subtotal)
	assert.True(t, s.TaxAmount.Equal(d("0.5")))
	assert.True(t, s.TotalAmount.Equal(d("24")), "total %s", s.TotalAmount)
}

func TestRecalculateRejectsOversizedDiscount(t *testing.T) {
	s := draftSale(t, SaleLine{ProductID: uuid.New(), Quantity: d("1"), UnitPrice: d("3")})
	s.DiscountAmount = d("4")
	assert.ErrorIs(t, s.Recalculate(), apperr.ErrValidation)
}

func TestNewSaleItemsValidation(t *testing.T) {
	p := uuid.New()
	tests := []struct {
		name string
		line SaleLine
	}{
		{"missing product", SaleLine{Quantity: d("1")}},
		{"zero quantity", SaleLine{ProductID: p, Quantity: d("0")}},
		{"negative price", SaleLine{ProductID: p, Quantity: d("1"), UnitPrice: d("-1")}},
		{"negative tax", SaleLine{ProductID: p, Quantity: d("1"), Tax: d("-1")}},
		{"discount above amount", SaleLine{ProductID: p, Quantity: d("1"), UnitPrice: d("2"), Discount: d("3")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSaleItems([]SaleLine{tt.line})
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestSaleLifecycle(t *testing.T) {
	w := uuid.New()
	s := draftSale(t, SaleLine{ProductID: uuid.New(), Quantity: d("7"), UnitPrice: d("1")})
	s.WarehouseID = &w

	assert.ErrorIs(t, s.CanShip(), apperr.ErrInvalidTransition, "draft cannot ship")

	require.NoError(t, s.Confirm(now))
	assert.Equal(t, SaleConfirmed, s.Status)
	assert.NotNil(t, s.ConfirmedAt)
	assert.ErrorIs(t, s.Confirm(now), apperr.ErrInvalidTransition, "confirm twice")

	s.Items[0].ReservedQuantity = d("7")
	require.NoError(t, s.MarkShipped(now))
	assert.Equal(t, SaleShipped, s.Status)
	assert.True(t, s.Items[0].ReservedQuantity.IsZero())
	assert.ErrorIs(t, s.MarkShipped(now), apperr.ErrInvalidTransition, "ship twice")
	assert.ErrorIs(t, s.Cancel(now), apperr.ErrInvalidTransition)

	s.Shipment = &Shipment{Status: ShipmentShipped}
	require.NoError(t, s.Deliver(now))
	assert.Equal(t, SaleDelivered, s.Status)
	assert.Equal(t, ShipmentDelivered, s.Shipment.Status)
}

func TestConfirmEmptyOrder(t *testing.T) {
	s := &Sale{ID: uuid.New(), Status: SaleDraft}
	assert.ErrorIs(t, s.Confirm(now), apperr.ErrEmptyOrder)
	assert.Equal(t, SaleDraft, s.Status)
}

func TestShipWithoutWarehouse(t *testing.T) {
	s := draftSale(t, SaleLine{ProductID: uuid.New(), Quantity: d("1")})
	require.NoError(t, s.Confirm(now))
	assert.ErrorIs(t, s.MarkShipped(now), apperr.ErrNoWarehouse)
	assert.Equal(t, SaleConfirmed, s.Status)
}

func TestCancel(t *testing.T) {
	draft := draftSale(t, SaleLine{ProductID: uuid.New(), Quantity: d("1")})
	require.NoError(t, draft.Cancel(now))
	assert.Equal(t, SaleCancelled, draft.Status)
	assert.False(t, draft.Editable())
	assert.ErrorIs(t, draft.Confirm(now), apperr.ErrInvalidTransition)
}

func TestApplyPayment(t *testing.T) {
	s := draftSale(t, SaleLine{ProductID: uuid.New(), Quantity: d("4"), UnitPrice: d("25")})

	require.NoError(t, s.ApplyPayment(d("40")))
	assert.Equal(t, PaymentPartial, s.PaymentStatus)
	assert.True(t, s.Outstanding().Equal(d("60")))

	assert.ErrorIs(t, s.ApplyPayment(d("60.01")), apperr.ErrConstraintViolation)
	assert.ErrorIs(t, s.ApplyPayment(d("0")), apperr.ErrValidation)

	require.NoError(t, s.ApplyPayment(d("60")))
	assert.Equal(t, PaymentPaid, s.PaymentStatus)

	cancelled := draftSale(t, SaleLine{ProductID: uuid.New(), Quantity: d("1"), UnitPrice: d("1")})
	require.NoError(t, cancelled.Cancel(now))
	assert.ErrorIs(t, cancelled.ApplyPayment(d("1")), apperr.ErrInvalidTransition)
}

func TestPaymentDue(t *testing.T) {
	due := now.Add(-24 * time.Hour)
	s := draftSale(t, SaleLine{ProductID: uuid.New(), Quantity: d("1"), UnitPrice: d("10")})
	s.DueDate = &due

	assert.True(t, s.PaymentDue(now))
	assert.False(t, s.PaymentDue(due.Add(-time.Hour)))

	require.NoError(t, s.ApplyPayment(d("10")))
	assert.False(t, s.PaymentDue(now))
}
