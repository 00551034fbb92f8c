package httpx

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

type Submitter interface {
	Submit(ctx context.Context, productID string, quantity int) (orders.OrderView, error)
}

type OrderReader interface {
	ListOrders(ctx context.Context, p query.ListParams) (query.ListResult[orders.OrderView], error)
	GetOrder(ctx context.Context, uuid string) (orders.OrderView, error)
	ListLogs(ctx context.Context, p query.ListParams) (query.ListResult[orders.OrderLogView], error)
}

type ViewCache interface {
	Get(ctx context.Context, orderUUID string) (orders.OrderView, bool, error)
	Put(ctx context.Context, v orders.OrderView) error
}

type OrdersHandler struct {
	Fulfillment  Submitter
	Reader       OrderReader
	Cache        ViewCache // optional
	DefaultLimit int
}

type CreateOrderReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/order", h.createOrder)
	r.Get("/order", h.listOrders)
	r.Get("/order/{uuid}", h.getOrder)
	r.Get("/order-log", h.listLogs)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("invalid json"))
		return
	}
	if req.ProductID == "" {
		writeError(w, badRequest("product_id is required"))
		return
	}

	view, err := h.Fulfillment.Submit(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r.URL.Query(), h.DefaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := readTimeout(r)
	defer cancel()
	res, err := h.Reader.ListOrders(ctx, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")
	ctx, cancel := readTimeout(r)
	defer cancel()

	// 1) cache
	if h.Cache != nil {
		v, ok, err := h.Cache.Get(ctx, id)
		if err != nil {
			log.Printf("http: order cache get %s: %v", id, err)
		}
		if ok {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}

	// 2) fallback DB
	v, err := h.Reader.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Cache != nil && v.Status.Terminal() {
		if err := h.Cache.Put(ctx, v); err != nil {
			log.Printf("http: order cache put %s: %v", id, err)
		}
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *OrdersHandler) listLogs(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r.URL.Query(), h.DefaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := readTimeout(r)
	defer cancel()
	res, err := h.Reader.ListLogs(ctx, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
