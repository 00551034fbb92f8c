package fulfillment_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-fulfillment/internal/catalog"
	"github.com/ariefcatur/go-order-fulfillment/internal/fulfillment"
	"github.com/ariefcatur/go-order-fulfillment/internal/inventory"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/payment"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres/pgtest"
	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

func newProduct(t *testing.T, pool *pgxpool.Pool, stock int) string {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewService(pool, nil)
	c, err := cat.CreateCategory(ctx, map[string]any{"name": "Tools"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	p, err := cat.CreateProduct(ctx, catalog.ProductInput{
		Fields:          map[string]any{"name": "Hammer", "price": "12.50"},
		CategoryUUID:    c.UUID,
		InitialQuantity: stock,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return p.UUID
}

func newService(pool *pgxpool.Pool, gw payment.Gateway) *fulfillment.Service {
	r := payment.NewRetrier(gw, time.Millisecond)
	return &fulfillment.Service{
		DB:         pool,
		Ledger:     inventory.Ledger{},
		Orders:     orders.NewMachine(),
		Payment:    r,
		MaxRetries: 3,
	}
}

func stockOf(t *testing.T, pool *pgxpool.Pool, productID string) int {
	t.Helper()
	var q int
	if err := pool.QueryRow(context.Background(),
		`SELECT quantity FROM inventories WHERE product_id = $1`, productID).Scan(&q); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return q
}

func logsOf(t *testing.T, pool *pgxpool.Pool, orderUUID string) []orders.OrderLogView {
	t.Helper()
	res, err := orders.NewQueries(pool, nil).ListLogs(context.Background(), query.ListParams{
		Filter: query.Filter{Conditions: query.Conditions{"order_id": orderUUID}},
	})
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	return res.Items
}

var paid = payment.GatewayFunc(func(context.Context) bool { return true })

func TestIntegration_SubmitProcessed(t *testing.T) {
	pool := pgtest.Open(t)
	pid := newProduct(t, pool, 10)

	v, err := newService(pool, paid).Submit(context.Background(), pid, 3)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v.Status != orders.StatusProcessed || v.Quantity != 3 || v.ProductID != pid || v.ID == 0 {
		t.Fatalf("view = %+v", v)
	}
	if q := stockOf(t, pool, pid); q != 7 {
		t.Fatalf("stock = %d, want 7", q)
	}
	logs := logsOf(t, pool, v.UUID)
	if len(logs) != 2 || logs[0].Status != orders.StatusPending || logs[1].Status != orders.StatusProcessed {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestIntegration_SubmitInsufficient(t *testing.T) {
	pool := pgtest.Open(t)
	pid := newProduct(t, pool, 10)

	_, err := newService(pool, paid).Submit(context.Background(), pid, 11)
	if !errors.Is(err, fulfillment.ErrInsufficientStock) {
		t.Fatalf("err = %v", err)
	}
	if q := stockOf(t, pool, pid); q != 10 {
		t.Fatalf("stock = %d, want 10", q)
	}
	res, err := orders.NewQueries(pool, nil).ListOrders(context.Background(), query.ListParams{})
	if err != nil || res.Count != 0 {
		t.Fatalf("orders = %+v, %v", res, err)
	}
}

func TestIntegration_SubmitPaymentFailed(t *testing.T) {
	pool := pgtest.Open(t)
	pid := newProduct(t, pool, 10)
	var calls atomic.Int32
	declined := payment.GatewayFunc(func(context.Context) bool { calls.Add(1); return false })

	v, err := newService(pool, declined).Submit(context.Background(), pid, 2)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v.Status != orders.StatusFailed || calls.Load() != 3 {
		t.Fatalf("status=%s calls=%d", v.Status, calls.Load())
	}
	if q := stockOf(t, pool, pid); q != 10 {
		t.Fatalf("stock = %d, want 10", q)
	}
	logs := logsOf(t, pool, v.UUID)
	if len(logs) != 2 || logs[1].Status != orders.StatusFailed ||
		logs[1].ErrorMessage == nil || *logs[1].ErrorMessage != orders.PaymentFailedMessage {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestIntegration_ConcurrentSubmits(t *testing.T) {
	pool := pgtest.Open(t)
	pid := newProduct(t, pool, 10)
	slow := payment.GatewayFunc(func(context.Context) bool {
		time.Sleep(50 * time.Millisecond)
		return true
	})
	svc := newService(pool, slow)

	var ok, short atomic.Int32
	var wg sync.WaitGroup
	for _, q := range []int{6, 7} {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), pid, q)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, fulfillment.ErrInsufficientStock):
				short.Add(1)
			default:
				t.Errorf("q=%d: %v", q, err)
			}
		}(q)
	}
	wg.Wait()

	if ok.Load() != 1 || short.Load() != 1 {
		t.Fatalf("ok=%d insufficient=%d, want 1/1", ok.Load(), short.Load())
	}
	if q := stockOf(t, pool, pid); q != 3 && q != 4 {
		t.Fatalf("stock = %d", q)
	}
}
