package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
)

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a status code. Every body carries a message and
// the error text as detail.
func writeError(w http.ResponseWriter, msg string, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		log.Printf("[http] %s: %v", msg, err)
	}
	writeJSON(w, code, errorBody{Message: msg, Detail: err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Invalid("invalid json: %v", err)
	}
	return nil
}

// pageFrom reads ?page and ?per_page. Missing values take defaults and
// out-of-range values are clamped; non-integers are rejected.
func pageFrom(r *http.Request) (orders.Page, error) {
	var p orders.Page
	for name, dst := range map[string]*int{"page": &p.Page, "per_page": &p.PerPage} {
		s := r.URL.Query().Get(name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return orders.Page{}, errs.Invalid("%s must be an integer", name)
		}
		*dst = n
	}
	return p.Normalize(), nil
}
