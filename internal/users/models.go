package users

import "time"

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}
