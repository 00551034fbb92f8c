package orders

import (
	"context"

	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

// Queries serves the read side of orders and order logs.
type Queries struct {
	DB     query.DB
	Orders *query.Engine[Order]
	Logs   *query.Engine[OrderLog]
}

func NewQueries(db query.DB, onDegrade func(string, error)) *Queries {
	q := &Queries{
		DB:     db,
		Orders: query.New[Order](OrderEntity),
		Logs:   query.New[OrderLog](OrderLogEntity),
	}
	q.Orders.OnDegrade = onDegrade
	q.Logs.OnDegrade = onDegrade
	return q
}

func (q *Queries) ListOrders(ctx context.Context, p query.ListParams) (query.ListResult[OrderView], error) {
	res, err := q.Orders.List(ctx, q.DB, p)
	if err != nil {
		return query.ListResult[OrderView]{}, err
	}
	out := query.ListResult[OrderView]{Items: make([]OrderView, 0, len(res.Items)), Count: res.Count}
	for _, o := range res.Items {
		out.Items = append(out.Items, o.View())
	}
	return out, nil
}

func (q *Queries) GetOrder(ctx context.Context, uuid string) (OrderView, error) {
	o, err := q.Orders.GetOne(ctx, q.DB, query.Conditions{"uuid": uuid}, query.NotFoundMessage("Order not found"))
	if err != nil {
		return OrderView{}, err
	}
	return o.View(), nil
}

// ListLogs returns audit rows, oldest first unless p says otherwise.
func (q *Queries) ListLogs(ctx context.Context, p query.ListParams) (query.ListResult[OrderLogView], error) {
	res, err := q.Logs.List(ctx, q.DB, p)
	if err != nil {
		return query.ListResult[OrderLogView]{}, err
	}
	out := query.ListResult[OrderLogView]{Items: make([]OrderLogView, 0, len(res.Items)), Count: res.Count}
	for _, l := range res.Items {
		out.Items = append(out.Items, l.View())
	}
	return out, nil
}
