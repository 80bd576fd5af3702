package shopping

import "time"

// ShoppingList is a stored snapshot of a user's list.
type ShoppingList struct {
	ID        int64     `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Items     []string  `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}
