package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Base holds the identity columns shared by every table.
type Base struct {
	ID           int64     `db:"id" json:"id"`
	UUID         string    `db:"uuid" json:"uuid"`
	Date         time.Time `db:"date" json:"date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	LastModified time.Time `db:"last_modified" json:"last_modified"`
}

func (b Base) Key() int64 { return b.ID }

type Category struct {
	Base
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`

	Products []Product `db:"-" json:"products,omitempty"`
}

type Product struct {
	Base
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

// Inventory is the stock counter of one product, keyed by the product uuid.
type Inventory struct {
	Base
	ProductID string `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

type Order struct {
	Base
	ProductID string `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
	Status    Status `db:"status" json:"status"`
}

// OrderLog is one append-only audit row; OrderID is the order uuid.
type OrderLog struct {
	Base
	OrderID      string    `db:"order_id" json:"order_id"`
	Status       Status    `db:"status" json:"status"`
	ProcessedAt  time.Time `db:"processed_at" json:"processed_at"`
	ErrorMessage *string   `db:"error_message" json:"error_message"`
}
