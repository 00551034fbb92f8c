package redisx

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := New(addr)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestIntegration_ViewCache(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	c := &ViewCache{Client: rdb}
	id := "cache-test-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { rdb.Del(context.Background(), "order_view:"+id, "dedup:test:"+id) })

	if _, ok, err := c.Get(ctx, id); ok || err != nil {
		t.Fatalf("miss = %v, %v", ok, err)
	}
	v := orders.OrderView{ID: 3, UUID: id, ProductID: "p", Quantity: 1, Status: orders.StatusProcessed}
	if err := c.Put(ctx, v); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(ctx, id)
	if err != nil || !ok || got.ID != 3 || got.Status != orders.StatusProcessed {
		t.Fatalf("Get = %+v, %v, %v", got, ok, err)
	}
	if ttl := rdb.TTL(ctx, "order_view:"+id).Val(); ttl <= 0 || ttl > TTLOrderView {
		t.Fatalf("ttl = %v", ttl)
	}

	if seen, err := c.Seen(ctx, "test", id); seen || err != nil {
		t.Fatalf("Seen before mark = %v, %v", seen, err)
	}
	if err := c.MarkSeen(ctx, "test", id); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if seen, err := c.Seen(ctx, "test", id); !seen || err != nil {
		t.Fatalf("Seen after mark = %v, %v", seen, err)
	}
}
