package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

// PaymentFailedMessage is recorded on the failed log row.
const PaymentFailedMessage = "Payment failed after retries"

var ErrIllegalTransition = errors.New("illegal order status transition")

// Machine writes order rows and their audit trail. Every method runs on the
// caller's transaction; nothing here commits.
type Machine struct {
	Orders *query.Engine[Order]
	Logs   *query.Engine[OrderLog]
	Now    func() time.Time
}

func NewMachine() *Machine {
	return &Machine{
		Orders: query.New[Order](OrderEntity),
		Logs:   query.New[OrderLog](OrderLogEntity),
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a pending order and its pending log row.
func (m *Machine) Create(ctx context.Context, db query.DB, productID string, quantity int) (Order, error) {
	o, err := m.Orders.Create(ctx, db, map[string]any{
		"product_id": productID,
		"quantity":   quantity,
		"status":     StatusPending,
	})
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	if err := m.appendLog(ctx, db, o.UUID, StatusPending, nil); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Finalize moves a pending order to processed (paid) or failed and appends
// the matching log row.
func (m *Machine) Finalize(ctx context.Context, db query.DB, o *Order, paid bool) error {
	next, reason := StatusProcessed, (*string)(nil)
	if !paid {
		msg := PaymentFailedMessage
		next, reason = StatusFailed, &msg
	}
	if !CanTransition(o.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, next)
	}

	updated, err := m.Orders.Update(ctx, db, query.Conditions{"uuid": o.UUID}, map[string]any{"status": next})
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if err := m.appendLog(ctx, db, o.UUID, next, reason); err != nil {
		return err
	}
	*o = updated
	return nil
}

// Get reads one order by uuid.
func (m *Machine) Get(ctx context.Context, db query.DB, uuid string) (Order, error) {
	return m.Orders.GetOne(ctx, db, query.Conditions{"uuid": uuid}, query.NotFoundMessage("Order not found"))
}

func (m *Machine) appendLog(ctx context.Context, db query.DB, orderUUID string, status Status, reason *string) error {
	fields := map[string]any{
		"order_id":     orderUUID,
		"status":       status,
		"processed_at": m.Now(),
	}
	if reason != nil {
		fields["error_message"] = *reason
	}
	if _, err := m.Logs.Create(ctx, db, fields); err != nil {
		return fmt.Errorf("append order log (%s): %w", status, err)
	}
	return nil
}
