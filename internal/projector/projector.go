// Package projector keeps the order-view cache in step with OrderFinalized
// events.
package projector

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment/internal/metrics"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
)

type ViewStore interface {
	Put(ctx context.Context, v orders.OrderView) error
	Seen(ctx context.Context, service, eventID string) (bool, error)
	MarkSeen(ctx context.Context, service, eventID string) error
}

type Projector struct {
	Views       ViewStore
	ServiceName string
	Metrics     *metrics.Registry
}

// HandleOrderFinalized is installed as the consumer handler.
func (p *Projector) HandleOrderFinalized(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != orders.EventOrderFinalized {
		return nil
	}

	seen, err := p.Views.Seen(ctx, p.ServiceName, env.EventID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	payload, err := kafkax.UnwrapPayload[orders.OrderFinalizedPayload](env.Payload)
	if err != nil {
		return err
	}
	if err := p.Views.Put(ctx, payload.Order); err != nil {
		return fmt.Errorf("cache order %s: %w", payload.Order.UUID, err)
	}
	// Marked only after the write so a failed write is retried on redelivery.
	if err := p.Views.MarkSeen(ctx, p.ServiceName, env.EventID); err != nil {
		return err
	}
	p.Metrics.Projected()
	return nil
}
