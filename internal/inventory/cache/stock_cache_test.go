package cache

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tair/fulfillment-ledger/internal/inventory/domain"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	c := NewStockCache(nil, 0)
	p, w := uuid.New(), uuid.New()

	c.Set(ctx, domain.StockSnapshot{ProductID: p, WarehouseID: w, Quantity: decimal.NewFromInt(4)})
	_, ok := c.Get(ctx, p, w)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, domain.StockKey{ProductID: p, WarehouseID: w}))

	var nilCache *StockCache
	assert.False(t, nilCache.Enabled())
}

func TestKeyLayout(t *testing.T) {
	p := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	w := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t, "stock:11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222", key(p, w))
}
