package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         UUID PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		email      VARCHAR(255) NOT NULL UNIQUE,
		address    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id         UUID PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		price      BIGINT NOT NULL CHECK (price >= 0),
		stock      INT NOT NULL CHECK (stock >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`DO $$ BEGIN
		CREATE TYPE order_status AS ENUM ('pending', 'success', 'failed');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          UUID PRIMARY KEY,
		product_id  UUID NOT NULL,
		amount      INT NOT NULL CHECK (amount > 0),
		total_price BIGINT NOT NULL,
		status      order_status NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT fk_orders_products
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status_created_at ON orders (status, created_at)`,
}

// migrationLock serializes Migrate across processes starting at the same time.
const migrationLock = 7241

// Migrate applies the schema. Every statement is idempotent so it runs on each startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("migration: acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrationLock); err != nil {
		return fmt.Errorf("migration: lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLock)
	}()

	for i, stmt := range migrations {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d/%d: %w", i+1, len(migrations), err)
		}
	}
	log.Printf("[postgres] %d migrations applied", len(migrations))
	return nil
}
