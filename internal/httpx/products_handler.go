package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/redisx"
	"github.com/go-chi/chi/v5"
)

type ProductService interface {
	Create(ctx context.Context, in orders.ProductInput) (orders.Product, error)
	Get(ctx context.Context, id string) (orders.Product, error)
	List(ctx context.Context, p orders.Page) ([]orders.Product, error)
	Update(ctx context.Context, id string, in orders.ProductInput) (orders.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductsHandler serves the catalog. Reads go through Cache when set.
type ProductsHandler struct {
	Products ProductService
	Cache    redisx.Cacher
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.ProductInput
	if err := decode(r, &in); err != nil {
		writeError(w, "Failed to insert product", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Create(ctx, in)
	if err != nil {
		writeError(w, "Failed to insert product", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Product created successfully", "data": p})
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, "Failed to get products", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := redisx.ReadThrough(ctx, h.Cache, redisx.ProductsPageKey(page.Page, page.PerPage),
		func(ctx context.Context) ([]orders.Product, error) { return h.Products.List(ctx, page) })
	if err != nil {
		writeError(w, "Failed to get products", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": ps})
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := redisx.ReadThrough(ctx, h.Cache, redisx.ProductKey(id),
		func(ctx context.Context) (orders.Product, error) { return h.Products.Get(ctx, id) })
	if err != nil {
		writeError(w, "Product Not Found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in orders.ProductInput
	if err := decode(r, &in); err != nil {
		writeError(w, "Failed to update product", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Update(ctx, id, in)
	if err != nil {
		writeError(w, "Failed to update product", err)
		return
	}
	redisx.Invalidate(ctx, h.Cache, redisx.ProductKey(id))
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product updated successfully", "data": p})
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, id); err != nil {
		writeError(w, "Failed to delete product", err)
		return
	}
	redisx.Invalidate(ctx, h.Cache, redisx.ProductKey(id))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}
