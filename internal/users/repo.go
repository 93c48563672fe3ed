package users

import (
	"context"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const columns = `id::text, name, email, address, created_at`

func scan(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Address, &u.CreatedAt)
	return u, err
}

// Create inserts u. A taken email surfaces as errs.ErrConflict.
func (r *Repo) Create(ctx context.Context, u User) (User, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(id, name, email, address) VALUES ($1, $2, $3, $4)
		RETURNING created_at`, u.ID, u.Name, u.Email, u.Address).Scan(&u.CreatedAt)
	if err != nil {
		return User{}, postgres.Classify("insert user", err)
	}
	return u, nil
}

func (r *Repo) Get(ctx context.Context, id string) (User, error) {
	u, err := scan(r.DB.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return User{}, postgres.Classify("user "+id, err)
	}
	return u, nil
}

func (r *Repo) Update(ctx context.Context, u User) (User, error) {
	out, err := scan(r.DB.QueryRow(ctx, `
		UPDATE users SET name=$2, email=$3, address=$4 WHERE id=$1
		RETURNING `+columns, u.ID, u.Name, u.Email, u.Address))
	if err != nil {
		return User{}, postgres.Classify("user "+u.ID, err)
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return postgres.Classify("delete user", err)
	}
	if ct.RowsAffected() == 0 {
		return errs.NotFound("user %s", id)
	}
	return nil
}
