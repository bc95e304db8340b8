package repositories

import (
	"context"

	"outfitter/internal/models"
)

// CartRepository is the only mutation surface of cart documents. Every mutating method is a
// single atomic read-modify-write on the user's document that also recomputes the cart
// aggregates, and returns the document as it is after the change.
type CartRepository interface {
	// Get returns the user's cart, or a NotFound error when none was ever created.
	Get(ctx context.Context, userID string) (*models.Cart, error)
	// AddItem creates the cart if needed, then increments the quantity of the line for
	// line.ProductID or appends line when the product is new.
	AddItem(ctx context.Context, userID string, line models.CartLine) (*models.Cart, error)
	// UpdateQuantity sets the line quantity verbatim or removes the line when
	// quantity <= 0. NotFound when the cart does not exist.
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error)
	// RemoveItem deletes the line if present. NotFound when the cart does not exist.
	RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error)
	// Clear empties the cart and keeps the document. NotFound when the cart does not exist.
	Clear(ctx context.Context, userID string) (*models.Cart, error)
}
