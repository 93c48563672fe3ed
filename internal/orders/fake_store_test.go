package orders

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
)

// memStore is a transactional in-memory Store. Transactions run one at a time
// on a private copy that is swapped in only on commit, so a rolled back
// transaction leaves no trace.
type memStore struct {
	mu       sync.Mutex
	products map[string]Product
	orders   map[string]Order

	// failAt makes the named Tx method return failErr.
	failAt  string
	failErr error
	commits int
}

func newMemStore() *memStore {
	return &memStore{products: map[string]Product{}, orders: map[string]Order{}}
}

func (s *memStore) addProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *memStore) addOrder(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *memStore) product(id string) Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) order(id string) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *memStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s, products: map[string]Product{}, orders: map[string]Order{}}
	for k, v := range s.products {
		tx.products[k] = v
	}
	for k, v := range s.orders {
		tx.orders[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.products, s.orders = tx.products, tx.orders
	s.commits++
	return nil
}

type memTx struct {
	s        *memStore
	products map[string]Product
	orders   map[string]Order
}

func (t *memTx) fail(method string) error {
	if t.s.failAt == method {
		return t.s.failErr
	}
	return nil
}

func (t *memTx) GetOrderForUpdate(ctx context.Context, orderID string) (Order, error) {
	if err := t.fail("GetOrderForUpdate"); err != nil {
		return Order{}, err
	}
	o, ok := t.orders[orderID]
	if !ok {
		return Order{}, errs.NotFound("order %s", orderID)
	}
	return o, nil
}

func (t *memTx) GetProductForUpdate(ctx context.Context, productID string) (Product, error) {
	if err := t.fail("GetProductForUpdate"); err != nil {
		return Product{}, err
	}
	return t.GetProduct(ctx, productID)
}

func (t *memTx) GetProduct(ctx context.Context, productID string) (Product, error) {
	p, ok := t.products[productID]
	if !ok {
		return Product{}, errs.NotFound("product %s", productID)
	}
	return p, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o Order) (Order, error) {
	if err := t.fail("InsertOrder"); err != nil {
		return Order{}, err
	}
	if _, ok := t.products[o.ProductID]; !ok {
		return Order{}, errs.Conflict("fk_orders_products")
	}
	o.CreatedAt = time.Now()
	t.orders[o.ID] = o
	return o, nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID string, amount int) error {
	if err := t.fail("DecrementStock"); err != nil {
		return err
	}
	p, ok := t.products[productID]
	if !ok || p.Stock < amount {
		return ErrNoRowMatched
	}
	p.Stock -= amount
	t.products[productID] = p
	return nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, orderID string, from, to Status) error {
	if err := t.fail("UpdateOrderStatus"); err != nil {
		return err
	}
	o, ok := t.orders[orderID]
	if !ok || o.Status != from {
		return ErrNoRowMatched
	}
	o.Status = to
	t.orders[orderID] = o
	return nil
}
