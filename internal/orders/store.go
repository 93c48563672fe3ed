package orders

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
)

// ErrNoRowMatched is returned by conditional updates whose predicate matched
// nothing. It is distinct from NotFound: the row may exist in another state.
var ErrNoRowMatched = fmt.Errorf("conditional update matched no row: %w", errs.ErrStorage)

// Tx exposes the row operations available inside one transaction.
// The ForUpdate reads hold an exclusive row lock until the transaction ends.
type Tx interface {
	GetOrderForUpdate(ctx context.Context, orderID string) (Order, error)
	GetProductForUpdate(ctx context.Context, productID string) (Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	InsertOrder(ctx context.Context, o Order) (Order, error)
	// DecrementStock lowers stock by amount only if at least amount remains.
	DecrementStock(ctx context.Context, productID string, amount int) error
	// UpdateOrderStatus moves the order from one status to another only if it is still in from.
	UpdateOrderStatus(ctx context.Context, orderID string, from, to Status) error
}

// Store is the transaction boundary. fn's nil return commits, anything else rolls back.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
}
