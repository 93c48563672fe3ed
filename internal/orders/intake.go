package orders

import (
	"context"
	"log"
	"math"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
	"github.com/google/uuid"
)

// Dispatcher hands an order id to an asynchronous validator. Delivery is at-least-once.
type Dispatcher interface {
	Dispatch(ctx context.Context, orderID string) error
}

type Intake struct {
	Store      Store
	Dispatcher Dispatcher
	// NewID defaults to time-ordered UUIDv7.
	NewID func() (uuid.UUID, error)
}

// CreateOrder persists a pending order priced from the product row visible in
// the same transaction, then dispatches it for validation.
//
// A dispatch failure does not undo the order: it stays pending for the reconciler.
func (in *Intake) CreateOrder(ctx context.Context, productID string, amount int) (Order, error) {
	if amount <= 0 {
		return Order{}, errs.Invalid("amount must be a positive integer, got %d", amount)
	}
	// orders.amount is an INTEGER column
	if amount > math.MaxInt32 {
		return Order{}, errs.Invalid("amount %d exceeds %d", amount, math.MaxInt32)
	}
	if productID == "" {
		return Order{}, errs.Invalid("product_id is required")
	}
	newID := in.NewID
	if newID == nil {
		newID = uuid.NewV7
	}
	id, err := newID()
	if err != nil {
		return Order{}, errs.Storage("generate order id", err)
	}

	var created Order
	err = in.Store.WithTx(ctx, func(tx Tx) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if p.Price > 0 && int64(amount) > math.MaxInt64/p.Price {
			return errs.Invalid("total price of %d x %s overflows", amount, p.ID)
		}
		created, err = tx.InsertOrder(ctx, Order{
			ID:         id.String(),
			ProductID:  p.ID,
			Amount:     amount,
			TotalPrice: int64(amount) * p.Price,
			Status:     StatusPending,
		})
		return err
	})
	if err != nil {
		return Order{}, errs.Storage("create order", err)
	}

	if in.Dispatcher != nil {
		if err := in.Dispatcher.Dispatch(ctx, created.ID); err != nil {
			log.Printf("[intake] dispatch order %s: %v (left pending)", created.ID, err)
		}
	}
	return created, nil
}
