package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
)

// ViewCache stores finalized order views. Orders never change after
// finalization, so a cached view is never stale, only missing.
type ViewCache struct {
	Client *redis.Client
}

func (c *ViewCache) Get(ctx context.Context, orderUUID string) (orders.OrderView, bool, error) {
	s, err := c.Client.Get(ctx, fmt.Sprintf(KeyOrderView, orderUUID)).Result()
	if errors.Is(err, redis.Nil) {
		return orders.OrderView{}, false, nil
	}
	if err != nil {
		return orders.OrderView{}, false, err
	}
	var v orders.OrderView
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return orders.OrderView{}, false, err
	}
	return v, true, nil
}

func (c *ViewCache) Put(ctx context.Context, v orders.OrderView) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, fmt.Sprintf(KeyOrderView, v.UUID), b, TTLOrderView).Err()
}

func (c *ViewCache) Seen(ctx context.Context, service, eventID string) (bool, error) {
	n, err := c.Client.Exists(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Result()
	return n > 0, err
}

func (c *ViewCache) MarkSeen(ctx context.Context, service, eventID string) error {
	return c.Client.Set(ctx, fmt.Sprintf(KeyDedup, service, eventID), "1", TTLDedup).Err()
}
