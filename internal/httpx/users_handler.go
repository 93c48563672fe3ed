package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/users"
	"github.com/go-chi/chi/v5"
)

type UserService interface {
	Create(ctx context.Context, in users.Input) (users.User, error)
	Get(ctx context.Context, id string) (users.User, error)
	Update(ctx context.Context, id string, in users.Input) (users.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	Users UserService
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *UsersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in users.Input
	if err := decode(r, &in); err != nil {
		writeError(w, "Failed to insert user", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, in)
	if err != nil {
		writeError(w, "Failed to insert user", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User created successfully", "data": u})
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "User Not Found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": u})
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	var in users.Input
	if err := decode(r, &in); err != nil {
		writeError(w, "Failed to update user", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Update(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "Failed to update user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User updated successfully", "data": u})
}

func (h *UsersHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, "Failed to delete user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
