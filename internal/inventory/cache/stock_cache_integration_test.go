//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/tair/fulfillment-ledger/internal/inventory/domain"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStockCacheRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewStockCache(startRedis(t), time.Minute)
	p, w1, w2 := uuid.New(), uuid.New(), uuid.New()

	snap := domain.StockSnapshot{
		ProductID: p, WarehouseID: w1,
		Quantity: decimal.RequireFromString("10.5"), Reserved: decimal.NewFromInt(2),
		Available: decimal.RequireFromString("8.5"),
	}
	c.Set(ctx, snap)
	c.Set(ctx, domain.StockSnapshot{ProductID: p, WarehouseID: w2, Quantity: decimal.NewFromInt(1)})

	got, ok := c.Get(ctx, p, w1)
	require.True(t, ok)
	assert.True(t, got.Available.Equal(snap.Available))

	require.NoError(t, c.Invalidate(ctx, domain.StockKey{ProductID: p, WarehouseID: w1}))
	_, ok = c.Get(ctx, p, w1)
	assert.False(t, ok)

	_, ok = c.Get(ctx, p, w2)
	assert.True(t, ok, "other warehouses keep their entries")
}
