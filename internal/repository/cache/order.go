package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jinsharnammedia/commerce/internal/domain"
)

const (
	orderKeyPrefix  = "order:"
	defaultOrderTTL = 5 * time.Minute
)

// OrderCache is a best-effort Redis cache for single-order reads. A miss or
// a Redis error both mean "go to the database"; callers must never fail a
// request because the cache is down.
type OrderCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewOrderCache creates a Redis-backed order cache. A zero ttl selects the
// default of 5 minutes.
func NewOrderCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *OrderCache {
	if ttl <= 0 {
		ttl = defaultOrderTTL
	}
	return &OrderCache{client: client, ttl: ttl, logger: logger}
}

// Get retrieves an order from the cache. It returns (nil, nil) on a miss.
func (c *OrderCache) Get(ctx context.Context, id string) (*domain.Order, error) {
	data, err := c.client.Get(ctx, orderKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get order %s: %w", id, err)
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("unmarshal cached order %s: %w", id, err)
	}

	return &order, nil
}

// Set stores an order in the cache with the configured TTL.
func (c *OrderCache) Set(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", order.ID, err)
	}

	if err := c.client.Set(ctx, orderKeyPrefix+order.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set order %s: %w", order.ID, err)
	}

	c.logger.DebugContext(ctx, "order cached",
		slog.String("order_id", order.ID),
		slog.Duration("ttl", c.ttl),
	)
	return nil
}

// Invalidate removes an order from the cache. Called after any write that
// changes the order's visible state.
func (c *OrderCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, orderKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("cache invalidate order %s: %w", id, err)
	}
	return nil
}
