package models

import "time"

// Debt is an outstanding obligation. Owned by the debt registry; the
// payment engine only reads its title for descriptions.
type Debt struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
