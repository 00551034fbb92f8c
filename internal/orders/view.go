package orders

import "time"

// OrderView is the response shape of a submitted or fetched order.
type OrderView struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (o Order) View() OrderView {
	return OrderView{
		ID:        o.ID,
		UUID:      o.UUID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

type OrderLogView struct {
	ID           int64     `json:"id"`
	UUID         string    `json:"uuid"`
	OrderID      string    `json:"order_id"`
	Status       Status    `json:"status"`
	ProcessedAt  time.Time `json:"processed_at"`
	ErrorMessage *string   `json:"error_message,omitempty"`
}

func (l OrderLog) View() OrderLogView {
	return OrderLogView{
		ID:           l.ID,
		UUID:         l.UUID,
		OrderID:      l.OrderID,
		Status:       l.Status,
		ProcessedAt:  l.ProcessedAt,
		ErrorMessage: l.ErrorMessage,
	}
}

// InventoryView is the listing shape for stock levels.
type InventoryView struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (i Inventory) View() InventoryView {
	return InventoryView{ProductID: i.ProductID, Quantity: i.Quantity}
}
