// Package inventory holds the per-product stock counter. Reads that precede a
// decrement take a row lock that lives until the enclosing transaction ends.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

var (
	ErrNotFound          = fmt.Errorf("inventory: %w", query.ErrNotFound)
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Handle identifies a locked inventory row and the quantity seen under the lock.
type Handle struct {
	ID        int64
	ProductID string
	Quantity  int
}

type Ledger struct{}

// LockAndGet reads the inventory row of productID with FOR UPDATE. db must be
// a transaction for the lock to outlive the statement.
func (Ledger) LockAndGet(ctx context.Context, db query.DB, productID string) (Handle, error) {
	h := Handle{ProductID: productID}
	err := db.QueryRow(ctx,
		`SELECT id, quantity FROM inventories WHERE product_id = $1 FOR UPDATE`, productID,
	).Scan(&h.ID, &h.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return Handle{}, ErrNotFound
	}
	if err != nil {
		return Handle{}, fmt.Errorf("lock inventory %s: %w", productID, err)
	}
	return h, nil
}

// Decrement lowers the locked row by amount. The quantity >= amount guard in
// the statement backs up the check against h.
func (Ledger) Decrement(ctx context.Context, db query.DB, h *Handle, amount int) error {
	if amount > h.Quantity {
		return ErrInsufficientStock
	}
	ct, err := db.Exec(ctx, `
		UPDATE inventories
		SET quantity = quantity - $2, last_modified = now()
		WHERE id = $1 AND quantity >= $2`, h.ID, amount)
	if err != nil {
		return fmt.Errorf("decrement inventory %s: %w", h.ProductID, err)
	}
	if ct.RowsAffected() != 1 {
		return ErrInsufficientStock
	}
	h.Quantity -= amount
	return nil
}
