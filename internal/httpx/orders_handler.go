package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/redisx"
	"github.com/go-chi/chi/v5"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, productID string, amount int) (orders.Order, error)
}

type OrderReader interface {
	GetOrder(ctx context.Context, id string) (orders.Order, error)
	ListOrders(ctx context.Context, p orders.Page) ([]orders.Order, error)
}

type OrdersHandler struct {
	Intake OrderCreator
	Orders OrderReader
	Cache  redisx.Cacher
}

type CreateOrderReq struct {
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

type CreateOrderResp struct {
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
	})
}

// createOrder answers 201 once the pending order is stored; validation runs later.
func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := decode(r, &req); err != nil {
		writeError(w, "Failed to insert order", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Intake.CreateOrder(ctx, req.ProductID, req.Amount)
	if err != nil {
		writeError(w, "Failed to insert order", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateOrderResp{
		Message: "Order created and queued for processing",
		OrderID: o.ID,
	})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, "Failed to get orders", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := redisx.ReadThrough(ctx, h.Cache, redisx.OrdersPageKey(page.Page, page.PerPage),
		func(ctx context.Context) ([]orders.Order, error) { return h.Orders.ListOrders(ctx, page) })
	if err != nil {
		writeError(w, "Failed to get orders", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": list})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := redisx.ReadThrough(ctx, h.Cache, redisx.OrderKey(id),
		func(ctx context.Context) (orders.Order, error) { return h.Orders.GetOrder(ctx, id) })
	if err != nil {
		writeError(w, "Order Not Found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": o})
}
