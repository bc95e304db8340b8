package models

import "time"

// Event types published after successful mutations.
const (
	EventCartUpdated        = "cart.updated"
	EventWishlistUpdated    = "wishlist.updated"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// MutationEvent is the broker payload describing a completed mutation.
type MutationEvent struct {
	Type       string    `json:"type"`
	Action     string    `json:"action"`
	UserID     string    `json:"userId"`
	ProductID  string    `json:"productId,omitempty"`
	OrderID    string    `json:"orderId,omitempty"`
	ItemCount  int       `json:"itemCount"`
	Total      float64   `json:"total"`
	OccurredAt time.Time `json:"occurredAt"`
}
