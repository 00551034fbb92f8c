// Package fulfillment turns a purchase request into a committed order: it
// locks stock, runs payment with bounded retries and records every status
// change, all inside one transaction.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-order-fulfillment/internal/inventory"
	"github.com/ariefcatur/go-order-fulfillment/internal/metrics"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

var (
	ErrInsufficientStock = inventory.ErrInsufficientStock
	ErrTransactionFailed = errors.New("transaction failed")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Store opens transactions and serves reads outside of them.
type Store interface {
	query.DB
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type Ledger interface {
	LockAndGet(ctx context.Context, db query.DB, productID string) (inventory.Handle, error)
	Decrement(ctx context.Context, db query.DB, h *inventory.Handle, amount int) error
}

type StateMachine interface {
	Create(ctx context.Context, db query.DB, productID string, quantity int) (orders.Order, error)
	Finalize(ctx context.Context, db query.DB, o *orders.Order, paid bool) error
	Get(ctx context.Context, db query.DB, uuid string) (orders.Order, error)
}

type Payer interface {
	Run(ctx context.Context, maxRetries int) bool
}

// Notifier is told about every committed order. It must not block.
type Notifier interface {
	OrderFinalized(ctx context.Context, view orders.OrderView)
}

type Service struct {
	DB         Store
	Ledger     Ledger
	Orders     StateMachine
	Payment    Payer
	MaxRetries int

	Notifier Notifier
	Metrics  *metrics.Registry
}

// Submit fulfills one order for quantity units of productID.
//
// The transaction runs on a context detached from ctx: once the inventory row
// is locked the flow always ends in commit or rollback, even if the caller
// goes away.
func (s *Service) Submit(ctx context.Context, productID string, quantity int) (orders.OrderView, error) {
	if quantity <= 0 {
		return orders.OrderView{}, ErrInvalidQuantity
	}
	started := time.Now()
	ctx = context.WithoutCancel(ctx)

	o, err := s.fulfill(ctx, productID, quantity)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrInsufficientStock) {
			outcome = "insufficient_stock"
		}
		s.Metrics.Order(outcome, started)
		return orders.OrderView{}, err
	}

	// Read back through a fresh connection so the response reflects what was
	// committed.
	stored, err := s.Orders.Get(ctx, s.DB, o.UUID)
	if err != nil {
		s.Metrics.Order("error", started)
		return orders.OrderView{}, err
	}
	view := stored.View()
	s.Metrics.Order(string(view.Status), started)
	if s.Notifier != nil {
		s.Notifier.OrderFinalized(ctx, view)
	}
	return view, nil
}

func (s *Service) fulfill(ctx context.Context, productID string, quantity int) (orders.Order, error) {
	// Read committed is enough: the row lock serializes submits per product
	// and a waiting submit re-reads the committed quantity.
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return orders.Order{}, txFailed(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	h, err := s.Ledger.LockAndGet(ctx, tx, productID)
	if errors.Is(err, query.ErrNotFound) {
		return orders.Order{}, ErrInsufficientStock
	}
	if err != nil {
		return orders.Order{}, txFailed(err)
	}
	if quantity > h.Quantity {
		return orders.Order{}, ErrInsufficientStock
	}

	o, err := s.Orders.Create(ctx, tx, productID, quantity)
	if err != nil {
		return orders.Order{}, txFailed(err)
	}

	paid := s.Payment.Run(ctx, s.MaxRetries)
	if paid {
		if err := s.Ledger.Decrement(ctx, tx, &h, quantity); err != nil {
			if errors.Is(err, ErrInsufficientStock) {
				return orders.Order{}, err
			}
			return orders.Order{}, txFailed(err)
		}
	} else {
		log.Printf("fulfillment: order %s payment failed after %d attempts", o.UUID, s.maxRetries())
	}
	if err := s.Orders.Finalize(ctx, tx, &o, paid); err != nil {
		return orders.Order{}, txFailed(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return orders.Order{}, txFailed(err)
	}
	return o, nil
}

func (s *Service) maxRetries() int {
	if s.MaxRetries <= 0 {
		return 3
	}
	return s.MaxRetries
}

func txFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
}
