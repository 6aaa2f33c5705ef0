package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

func newTransfer(t *testing.T, lines ...TransferLine) *WarehouseTransfer {
	t.Helper()
	tr, err := NewTransfer(uuid.New(), uuid.New(), lines)
	require.NoError(t, err)
	tr.ID = uuid.New()
	for i := range tr.Items {
		tr.Items[i].ID = uuid.New()
	}
	return tr
}

func TestNewTransferValidation(t *testing.T) {
	w := uuid.New()
	_, err := NewTransfer(w, w, []TransferLine{{ProductID: uuid.New(), Quantity: d("1")}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NewTransfer(uuid.New(), uuid.New(), nil)
	assert.ErrorIs(t, err, apperr.ErrEmptyOrder)

	p := uuid.New()
	_, err = NewTransfer(uuid.New(), uuid.New(), []TransferLine{{ProductID: p, Quantity: d("1")}, {ProductID: p, Quantity: d("2")}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCompleteDefaultsToFullQuantity(t *testing.T) {
	tr := newTransfer(t, TransferLine{ProductID: uuid.New(), Quantity: d("5")})

	require.NoError(t, tr.Complete(nil, now))
	assert.Equal(t, TransferCompleted, tr.Status)
	assert.True(t, tr.Items[0].Received().Equal(d("5")))
	assert.True(t, tr.Items[0].Lost().IsZero())

	assert.ErrorIs(t, tr.Complete(nil, now), apperr.ErrInvalidTransition)
	assert.ErrorIs(t, tr.Cancel(now), apperr.ErrInvalidTransition)
}

func TestCompleteWithShortfall(t *testing.T) {
	tr := newTransfer(t,
		TransferLine{ProductID: uuid.New(), Quantity: d("5")},
		TransferLine{ProductID: uuid.New(), Quantity: d("2")},
	)
	require.NoError(t, tr.Dispatch(now))
	assert.ErrorIs(t, tr.Dispatch(now), apperr.ErrInvalidTransition)

	bad := map[uuid.UUID]decimal.Decimal{tr.Items[1].ID: d("3")}
	assert.ErrorIs(t, tr.Complete(bad, now), apperr.ErrValidation)
	assert.Nil(t, tr.Items[0].ReceivedQuantity, "failed completion leaves items untouched")
	assert.Equal(t, TransferInTransit, tr.Status)

	require.NoError(t, tr.Complete(map[uuid.UUID]decimal.Decimal{tr.Items[0].ID: d("4")}, now))
	assert.True(t, tr.Items[0].Lost().Equal(d("1")))
	assert.True(t, tr.Items[1].Received().Equal(d("2")))
}

func TestCompleteUnknownItem(t *testing.T) {
	tr := newTransfer(t, TransferLine{ProductID: uuid.New(), Quantity: d("1")})
	err := tr.Complete(map[uuid.UUID]decimal.Decimal{uuid.New(): d("1")}, now)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
