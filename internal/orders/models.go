package orders

import "time"

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"` // smallest currency unit
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Amount     int       `json:"amount"`
	TotalPrice int64     `json:"total_price"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type Page struct {
	Page    int
	PerPage int
}

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Normalize clamps p into a valid page.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.PerPage }
