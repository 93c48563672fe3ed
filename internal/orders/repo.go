package orders

import (
	"context"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres-backed Storage Gateway for products and orders.
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	return postgres.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct{ tx pgx.Tx }

const orderColumns = `id::text, product_id::text, amount, total_price, status::text, created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	if err := row.Scan(&o.ID, &o.ProductID, &o.Amount, &o.TotalPrice, &status, &o.CreatedAt); err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	return o, nil
}

const productColumns = `id::text, name, price, stock, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt)
	return p, err
}

func (t *pgTx) GetOrderForUpdate(ctx context.Context, orderID string) (Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, orderID))
	if err != nil {
		return Order{}, postgres.Classify("order "+orderID, err)
	}
	return o, nil
}

func (t *pgTx) GetProductForUpdate(ctx context.Context, productID string) (Product, error) {
	p, err := scanProduct(t.tx.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1 FOR UPDATE`, productID))
	if err != nil {
		return Product{}, postgres.Classify("product "+productID, err)
	}
	return p, nil
}

func (t *pgTx) GetProduct(ctx context.Context, productID string) (Product, error) {
	p, err := scanProduct(t.tx.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, productID))
	if err != nil {
		return Product{}, postgres.Classify("product "+productID, err)
	}
	return p, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o Order) (Order, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders(id, product_id, amount, total_price, status)
		VALUES ($1, $2, $3, $4, $5::text::order_status)
		RETURNING created_at`,
		o.ID, o.ProductID, o.Amount, o.TotalPrice, string(o.Status),
	).Scan(&o.CreatedAt)
	if err != nil {
		return Order{}, postgres.Classify("insert order", err)
	}
	return o, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID string, amount int) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id=$1 AND stock >= $2`, productID, amount)
	if err != nil {
		return postgres.Classify("decrement stock", err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNoRowMatched
	}
	return nil
}

func (t *pgTx) UpdateOrderStatus(ctx context.Context, orderID string, from, to Status) error {
	if !CanTransition(from, to) {
		return errs.Invalid("transition %s -> %s", from, to)
	}
	ct, err := t.tx.Exec(ctx, `
		UPDATE orders SET status = $3::text::order_status
		WHERE id=$1 AND status = $2::text::order_status`,
		orderID, string(from), string(to))
	if err != nil {
		return postgres.Classify("update order status", err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNoRowMatched
	}
	return nil
}

// ---- reads outside the validator's transaction ----

func (s *PGStore) GetOrder(ctx context.Context, orderID string) (Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
	if err != nil {
		return Order{}, postgres.Classify("order "+orderID, err)
	}
	return o, nil
}

func (s *PGStore) ListOrders(ctx context.Context, p Page) ([]Order, error) {
	p = p.Normalize()
	rows, err := s.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, p.PerPage, p.Offset())
	if err != nil {
		return nil, postgres.Classify("list orders", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, postgres.Classify("scan order", err)
		}
		out = append(out, o)
	}
	return out, postgres.Classify("list orders", rows.Err())
}

// ListStalePending returns ids of orders still pending after olderThan.
func (s *PGStore) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text FROM orders
		WHERE status = 'pending' AND created_at < NOW() - make_interval(secs => $1)
		ORDER BY created_at LIMIT $2`, olderThan.Seconds(), limit)
	if err != nil {
		return nil, postgres.Classify("list pending", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, postgres.Classify("list pending", err)
}

func (s *PGStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	err := s.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, price, stock) VALUES ($1, $2, $3, $4)
		RETURNING created_at`, p.ID, p.Name, p.Price, p.Stock).Scan(&p.CreatedAt)
	if err != nil {
		return Product{}, postgres.Classify("insert product", err)
	}
	return p, nil
}

func (s *PGStore) GetProduct(ctx context.Context, productID string) (Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, productID))
	if err != nil {
		return Product{}, postgres.Classify("product "+productID, err)
	}
	return p, nil
}

func (s *PGStore) ListProducts(ctx context.Context, p Page) ([]Product, error) {
	p = p.Normalize()
	rows, err := s.DB.Query(ctx, `SELECT `+productColumns+` FROM products
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, p.PerPage, p.Offset())
	if err != nil {
		return nil, postgres.Classify("list products", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			return nil, postgres.Classify("scan product", err)
		}
		out = append(out, pr)
	}
	return out, postgres.Classify("list products", rows.Err())
}

// UpdateProduct changes name and price. Stock is left to the validator.
func (s *PGStore) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	out, err := scanProduct(s.DB.QueryRow(ctx, `
		UPDATE products SET name=$2, price=$3 WHERE id=$1
		RETURNING `+productColumns, p.ID, p.Name, p.Price))
	if err != nil {
		return Product{}, postgres.Classify("product "+p.ID, err)
	}
	return out, nil
}

func (s *PGStore) DeleteProduct(ctx context.Context, productID string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, productID)
	if err != nil {
		return postgres.Classify("delete product", err)
	}
	if ct.RowsAffected() == 0 {
		return errs.NotFound("product %s", productID)
	}
	return nil
}
