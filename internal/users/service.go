package users

import (
	"context"
	"log"
	"net/mail"
	"strings"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
	"github.com/google/uuid"
)

type Store interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id string) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id string) error
}

type Service struct{ Store Store }

func (s *Service) Create(ctx context.Context, in Input) (User, error) {
	u, err := clean(in)
	if err != nil {
		return User{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, errs.Storage("generate user id", err)
	}
	u.ID = id.String()
	created, err := s.Store.Create(ctx, u)
	if err != nil {
		log.Printf("[users] create %s: %v", u.Email, err)
		return User{}, err
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (User, error) {
	u, err := clean(in)
	if err != nil {
		return User{}, err
	}
	u.ID = id
	return s.Store.Update(ctx, u)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

func clean(in Input) (User, error) {
	u := User{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Address: strings.TrimSpace(in.Address),
	}
	if u.Name == "" {
		return User{}, errs.Invalid("name is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return User{}, errs.Invalid("email %q is not a valid address", in.Email)
	}
	return u, nil
}
