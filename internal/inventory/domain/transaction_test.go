package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedHistory serves newest-first pages from a fixed slice, honoring After.
func pagedHistory(all []InventoryTransaction, calls *int) PageFunc {
	return func(_ context.Context, f HistoryFilter) ([]InventoryTransaction, error) {
		*calls++
		start := 0
		if f.After != nil {
			for i, txn := range all {
				if txn.ID == f.After.ID {
					start = i + 1
				}
			}
		}
		end := min(start+f.PageSize, len(all))
		return all[start:end], nil
	}
}

func history(n int) []InventoryTransaction {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]InventoryTransaction, n)
	for i := range out {
		out[i] = InventoryTransaction{
			ID:              uuid.New(),
			TransactionType: Inbound,
			Quantity:        decimal.NewFromInt(int64(i + 1)),
			CreatedAt:       base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestIteratorIsLazy(t *testing.T) {
	all := history(5)
	calls := 0
	it := NewTransactionIterator(HistoryFilter{PageSize: 2}, pagedHistory(all, &calls))
	assert.Equal(t, 0, calls, "nothing is fetched before Next")

	var got []uuid.UUID
	for it.Next(context.Background()) {
		got = append(got, it.Transaction().ID)
	}
	require.NoError(t, it.Err())

	assert.Len(t, got, 5)
	assert.Equal(t, all[0].ID, got[0])
	assert.Equal(t, 3, calls)
}

func TestIteratorRestartsFromCursor(t *testing.T) {
	all := history(7)
	calls := 0
	ctx := context.Background()

	first := NewTransactionIterator(HistoryFilter{PageSize: 3}, pagedHistory(all, &calls))
	for range 4 {
		require.True(t, first.Next(ctx))
	}
	token := first.Cursor().String()

	cursor, err := ParseCursor(token)
	require.NoError(t, err)
	assert.Equal(t, all[3].ID, cursor.ID)
	assert.True(t, all[3].CreatedAt.Equal(cursor.CreatedAt))

	resumed := NewTransactionIterator(HistoryFilter{PageSize: 3, After: cursor}, pagedHistory(all, &calls))
	var rest []uuid.UUID
	for txn, err := range resumed.All(ctx) {
		require.NoError(t, err)
		rest = append(rest, txn.ID)
	}
	assert.Equal(t, []uuid.UUID{all[4].ID, all[5].ID, all[6].ID}, rest)
}

func TestIteratorStopsOnError(t *testing.T) {
	boom := errors.New("connection lost")
	it := NewTransactionIterator(HistoryFilter{}, func(context.Context, HistoryFilter) ([]InventoryTransaction, error) {
		return nil, boom
	})

	var errs []error
	for _, err := range it.All(context.Background()) {
		errs = append(errs, err)
	}
	assert.Equal(t, []error{boom}, errs)
	assert.False(t, it.Next(context.Background()))
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	_, err := ParseCursor("!!not-base64")
	assert.Error(t, err)

	_, err = ParseCursor(Cursor{ID: uuid.New()}.String()[:4])
	assert.Error(t, err)
}

func TestHistoryFilterNormalize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, HistoryFilter{}.Normalize().PageSize)
	assert.Equal(t, MaxPageSize, HistoryFilter{PageSize: 5000}.Normalize().PageSize)
}

func TestPlanDraw(t *testing.T) {
	lots := []Batch{
		{ID: uuid.New(), BatchNumber: "B1", AvailableQuantity: d("2")},
		{ID: uuid.New(), BatchNumber: "B2", AvailableQuantity: d("0")},
		{ID: uuid.New(), BatchNumber: "B3", AvailableQuantity: d("5")},
	}

	draws, short := PlanDraw(lots, d("4"))
	require.Len(t, draws, 2)
	assert.Equal(t, "B1", draws[0].BatchNumber)
	assert.True(t, draws[1].Quantity.Equal(d("2")))
	assert.True(t, short.IsZero())

	_, short = PlanDraw(lots, d("9"))
	assert.True(t, short.Equal(d("2")))
}
