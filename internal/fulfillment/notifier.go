package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
)

// KafkaNotifier publishes OrderFinalized envelopes.
type KafkaNotifier struct {
	Producer    *kafkax.Producer
	ServiceName string
}

func (n *KafkaNotifier) OrderFinalized(ctx context.Context, view orders.OrderView) {
	n.Producer.Publish(orders.PartitionKey(view.UUID), FinalizedEvent(n.ServiceName, view),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderFinalized)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// FinalizedEvent encodes the envelope for a committed order.
func FinalizedEvent(producer string, view orders.OrderView) []byte {
	payload := orders.OrderFinalizedPayload{Order: view}
	if view.Status == orders.StatusFailed {
		payload.ErrorMessage = orders.PaymentFailedMessage
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderFinalized,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: view.UUID,
		Payload:       kafkax.MustMarshal(payload),
	}
	return kafkax.MustMarshal(ev)
}
