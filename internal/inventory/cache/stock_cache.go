package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tair/fulfillment-ledger/internal/inventory/domain"
	"github.com/tair/fulfillment-ledger/pkg/logger"
)

const keyPrefix = "stock:"

// StockCache keeps stock snapshots in Redis. A cache built without a client
// misses on every read and ignores writes.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStockCache(client *redis.Client, ttl time.Duration) *StockCache {
	return &StockCache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client is configured.
func (c *StockCache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func key(productID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, productID, warehouseID)
}

// Get returns the cached snapshot. Lookup errors count as a miss.
func (c *StockCache) Get(ctx context.Context, productID, warehouseID uuid.UUID) (domain.StockSnapshot, bool) {
	if !c.Enabled() {
		return domain.StockSnapshot{}, false
	}

	k := key(productID, warehouseID)
	raw, err := c.client.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Logger.Warn().Err(err).Str("cache_key", k).Msg("Stock cache read failed")
		}
		return domain.StockSnapshot{}, false
	}

	var snap domain.StockSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		logger.Logger.Warn().Err(err).Str("cache_key", k).Msg("Discarding malformed stock cache entry")
		return domain.StockSnapshot{}, false
	}
	logger.Logger.Debug().Str("cache_key", k).Msg("Cache hit")
	return snap, true
}

func (c *StockCache) Set(ctx context.Context, snap domain.StockSnapshot) {
	if !c.Enabled() {
		return
	}
	k := key(snap.ProductID, snap.WarehouseID)
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, k, raw, c.ttl).Err(); err != nil {
		logger.Logger.Warn().Err(err).Str("cache_key", k).Msg("Failed to cache stock")
	}
}

// Invalidate drops the entries for the given rows.
func (c *StockCache) Invalidate(ctx context.Context, keys ...domain.StockKey) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	ks := make([]string, len(keys))
	for i, sk := range keys {
		ks[i] = key(sk.ProductID, sk.WarehouseID)
	}
	if err := c.client.Del(ctx, ks...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stock cache: %w", err)
	}
	return nil
}
