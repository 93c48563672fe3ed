package orders

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
	"github.com/google/uuid"
)

// ProductRepo is the product table outside of validation.
type ProductRepo interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context, p Page) ([]Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type Catalog struct{ Repo ProductRepo }

type ProductInput struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	// Stock is only accepted on create.
	Stock *int `json:"stock,omitempty"`
}

func (c *Catalog) Create(ctx context.Context, in ProductInput) (Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Product{}, errs.Invalid("name is required")
	}
	if in.Price < 0 {
		return Product{}, errs.Invalid("price must not be negative")
	}
	stock := 0
	if in.Stock != nil {
		stock = *in.Stock
	}
	if stock < 0 {
		return Product{}, errs.Invalid("stock must not be negative")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Product{}, errs.Storage("generate product id", err)
	}
	return c.Repo.CreateProduct(ctx, Product{ID: id.String(), Name: name, Price: in.Price, Stock: stock})
}

func (c *Catalog) Get(ctx context.Context, id string) (Product, error) {
	return c.Repo.GetProduct(ctx, id)
}

func (c *Catalog) List(ctx context.Context, p Page) ([]Product, error) {
	return c.Repo.ListProducts(ctx, p.Normalize())
}

// Update rejects payloads carrying stock: only order validation writes stock.
func (c *Catalog) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	if in.Stock != nil {
		return Product{}, errs.Invalid("stock is managed by order validation and cannot be updated")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Product{}, errs.Invalid("name is required")
	}
	if in.Price < 0 {
		return Product{}, errs.Invalid("price must not be negative")
	}
	return c.Repo.UpdateProduct(ctx, Product{ID: id, Name: name, Price: in.Price})
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	return c.Repo.DeleteProduct(ctx, id)
}
