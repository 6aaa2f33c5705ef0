package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func row(qty, reserved string) *WarehouseStock {
	s := &WarehouseStock{
		ProductID:        uuid.New(),
		WarehouseID:      uuid.New(),
		Quantity:         d(qty),
		ReservedQuantity: d(reserved),
	}
	s.sync()
	return s
}

func TestApply(t *testing.T) {
	s := row("10", "4")

	require.NoError(t, s.Apply(d("-6")))
	assert.True(t, s.Quantity.Equal(d("4")))
	assert.True(t, s.Available().IsZero())
	assert.True(t, s.Valid())

	err := s.Apply(d("-1"))
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock, "reserved would exceed on-hand")
	assert.True(t, s.Quantity.Equal(d("4")), "failed apply leaves the row unchanged")

	require.NoError(t, s.Apply(d("2.5")))
	assert.True(t, s.Quantity.Equal(d("6.5")))
}

func TestApplyNeverNegative(t *testing.T) {
	s := row("3", "0")
	assert.ErrorIs(t, s.Apply(d("-3.01")), apperr.ErrInsufficientStock)
	require.NoError(t, s.Apply(d("-3")))
	assert.True(t, s.Quantity.IsZero())
}

func TestReserve(t *testing.T) {
	s := row("10", "0")

	require.NoError(t, s.Reserve(d("7")))
	assert.True(t, s.Available().Equal(d("3")))

	assert.ErrorIs(t, s.Reserve(d("4")), apperr.ErrInsufficientStock)
	assert.ErrorIs(t, s.Reserve(d("0")), apperr.ErrValidation)
	assert.True(t, s.ReservedQuantity.Equal(d("7")))
	assert.True(t, s.Valid())
}

func TestReleaseFloorsAtZero(t *testing.T) {
	s := row("10", "3")

	freed := s.Release(d("5"))
	assert.True(t, freed.Equal(d("3")))
	assert.True(t, s.ReservedQuantity.IsZero())
	assert.True(t, s.Release(d("1")).IsZero())
}

func TestConsume(t *testing.T) {
	tests := []struct {
		name         string
		qty, res     string
		consume      string
		held         string
		wantErr      error
		wantQty      string
		wantReserved string
	}{
		{name: "ship without reservation", qty: "10", res: "0", consume: "7", held: "0", wantQty: "3", wantReserved: "0"},
		{name: "ship own reservation", qty: "10", res: "7", consume: "7", held: "7", wantQty: "3", wantReserved: "0"},
		{name: "other orders reservation is kept", qty: "10", res: "5", consume: "5", held: "0", wantQty: "5", wantReserved: "5"},
		{name: "other reservation blocks", qty: "10", res: "5", consume: "6", held: "0", wantErr: apperr.ErrInsufficientStock, wantQty: "10", wantReserved: "5"},
		{name: "held clamps to reserved", qty: "10", res: "2", consume: "8", held: "8", wantQty: "2", wantReserved: "0"},
		{name: "not enough on hand", qty: "3", res: "0", consume: "4", held: "0", wantErr: apperr.ErrInsufficientStock, wantQty: "3", wantReserved: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := row(tt.qty, tt.res)
			err := s.Consume(d(tt.consume), d(tt.held))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, s.Quantity.Equal(d(tt.wantQty)), "quantity %s", s.Quantity)
			assert.True(t, s.ReservedQuantity.Equal(d(tt.wantReserved)), "reserved %s", s.ReservedQuantity)
			assert.True(t, s.Valid())
		})
	}
}

func TestCanonicalKeys(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	keys := CanonicalKeys([]StockKey{
		{ProductID: b, WarehouseID: a},
		{ProductID: a, WarehouseID: b},
		{ProductID: a, WarehouseID: a},
		{ProductID: a, WarehouseID: b},
	})

	assert.Equal(t, []StockKey{
		{ProductID: a, WarehouseID: a},
		{ProductID: a, WarehouseID: b},
		{ProductID: b, WarehouseID: a},
	}, keys)
}

func TestNewTransaction(t *testing.T) {
	p, w := uuid.New(), uuid.New()

	out := NewTransaction(p, w, d("-7"), d("3"), RefSale, nil, "")
	require.NotNil(t, out)
	assert.Equal(t, Outbound, out.TransactionType)
	assert.True(t, out.Quantity.Equal(d("7")))
	assert.True(t, out.Signed().Equal(d("-7")))

	assert.Nil(t, NewTransaction(p, w, decimal.Zero, d("3"), RefSale, nil, ""))
}
