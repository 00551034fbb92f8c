package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderFinalized = "OrderFinalized"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order uuid
	Payload       json.RawMessage `json:"payload"`
}

// OrderFinalizedPayload is published once the fulfillment transaction has
// committed.
type OrderFinalizedPayload struct {
	Order        OrderView `json:"order"`
	ErrorMessage string    `json:"error_message,omitempty"`
}
