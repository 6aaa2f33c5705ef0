package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

func pendingOrder(t *testing.T, lines ...PurchaseLine) *PurchaseOrder {
	t.Helper()
	items, total, err := NewPurchaseOrderItems(lines)
	require.NoError(t, err)
	for i := range items {
		items[i].ID = uuid.New()
	}
	return &PurchaseOrder{ID: uuid.New(), Status: PurchasePending, Items: items, TotalAmount: total}
}

func TestReceiveInParts(t *testing.T) {
	po := pendingOrder(t, PurchaseLine{ProductID: uuid.New(), Quantity: d("20"), UnitPrice: d("1.5")})
	assert.True(t, po.TotalAmount.Equal(d("30")))
	itemID := po.Items[0].ID

	item, err := po.Receive(itemID, d("12"), now)
	require.NoError(t, err)
	assert.True(t, item.ReceivedQty.Equal(d("12")))
	assert.Equal(t, PurchasePending, po.Status)
	assert.Nil(t, po.ReceivedAt)

	_, err = po.Receive(itemID, d("8.01"), now)
	assert.ErrorIs(t, err, apperr.ErrConstraintViolation)

	_, err = po.Receive(itemID, d("8"), now)
	require.NoError(t, err)
	assert.Equal(t, PurchaseReceived, po.Status)
	assert.NotNil(t, po.ReceivedAt)

	_, err = po.Receive(itemID, d("1"), now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestReceiveNeedsEveryLine(t *testing.T) {
	po := pendingOrder(t,
		PurchaseLine{ProductID: uuid.New(), Quantity: d("2")},
		PurchaseLine{ProductID: uuid.New(), Quantity: d("3")},
	)
	_, err := po.Receive(po.Items[0].ID, d("2"), now)
	require.NoError(t, err)
	assert.Equal(t, PurchasePending, po.Status)

	_, err = po.Receive(uuid.New(), d("1"), now)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = po.Receive(po.Items[1].ID, d("0"), now)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPurchaseOrderCancel(t *testing.T) {
	po := pendingOrder(t, PurchaseLine{ProductID: uuid.New(), Quantity: d("1")})
	require.NoError(t, po.Cancel(now))
	assert.ErrorIs(t, po.Cancel(now), apperr.ErrInvalidTransition)

	_, _, err := NewPurchaseOrderItems(nil)
	assert.ErrorIs(t, err, apperr.ErrEmptyOrder)
}
