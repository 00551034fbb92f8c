package projector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-order-fulfillment/internal/fulfillment"
	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
)

type memViews struct {
	mu     sync.Mutex
	views  map[string]orders.OrderView
	seen   map[string]bool
	puts   int
	putErr error
}

func newMemViews() *memViews {
	return &memViews{views: map[string]orders.OrderView{}, seen: map[string]bool{}}
}

func (m *memViews) Put(_ context.Context, v orders.OrderView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.views[v.UUID] = v
	return nil
}

func (m *memViews) Seen(_ context.Context, service, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[service+"/"+id], nil
}

func (m *memViews) MarkSeen(_ context.Context, service, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[service+"/"+id] = true
	return nil
}

type memWriter struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func publishFinalized(t *testing.T, views ...orders.OrderView) []kafkago.Message {
	t.Helper()
	w := &memWriter{}
	prod := kafkax.NewProducerWithWriter(w, 8)
	prod.Start(context.Background())
	n := &fulfillment.KafkaNotifier{Producer: prod, ServiceName: "order-api"}
	for _, v := range views {
		n.OrderFinalized(context.Background(), v)
	}
	prod.Close()
	prod.WaitClosed()
	return w.msgs
}

func TestProjectsFinalizedOrders(t *testing.T) {
	processed := orders.OrderView{ID: 1, UUID: "o-1", ProductID: "p", Quantity: 2, Status: orders.StatusProcessed, CreatedAt: time.Now().UTC()}
	failed := orders.OrderView{ID: 2, UUID: "o-2", ProductID: "p", Quantity: 1, Status: orders.StatusFailed}
	msgs := publishFinalized(t, processed, failed)
	if len(msgs) != 2 {
		t.Fatalf("published %d messages", len(msgs))
	}
	if string(msgs[0].Key) != "o-1" {
		t.Fatalf("key = %q, want order uuid", msgs[0].Key)
	}

	views := newMemViews()
	p := &Projector{Views: views, ServiceName: "proj"}
	for _, m := range msgs {
		if err := p.HandleOrderFinalized(context.Background(), m); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if got := views.views["o-1"]; got.Status != orders.StatusProcessed || got.Quantity != 2 {
		t.Fatalf("o-1 view = %+v", got)
	}
	if got := views.views["o-2"]; got.Status != orders.StatusFailed {
		t.Fatalf("o-2 view = %+v", got)
	}

	// Redelivery is applied once.
	if err := p.HandleOrderFinalized(context.Background(), msgs[0]); err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	if views.puts != 2 {
		t.Fatalf("puts = %d, want 2", views.puts)
	}
}

func TestFailedWriteIsRetriedOnRedelivery(t *testing.T) {
	msgs := publishFinalized(t, orders.OrderView{UUID: "o-1", Status: orders.StatusProcessed})
	views := newMemViews()
	views.putErr = errors.New("redis down")
	p := &Projector{Views: views, ServiceName: "proj"}

	if err := p.HandleOrderFinalized(context.Background(), msgs[0]); err == nil {
		t.Fatal("want error while the cache is down")
	}
	views.putErr = nil
	if err := p.HandleOrderFinalized(context.Background(), msgs[0]); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if _, ok := views.views["o-1"]; !ok {
		t.Fatal("view not written on retry")
	}
}

func TestIgnoresOtherEventsAndRejectsGarbage(t *testing.T) {
	p := &Projector{Views: newMemViews(), ServiceName: "proj"}
	other := kafkax.MustMarshal(orders.Envelope{EventID: "e", EventType: "SomethingElse"})
	if err := p.HandleOrderFinalized(context.Background(), kafkago.Message{Value: other}); err != nil {
		t.Fatalf("other event: %v", err)
	}
	if err := p.HandleOrderFinalized(context.Background(), kafkago.Message{Value: []byte("not json")}); err == nil {
		t.Fatal("want decode error")
	}
}
