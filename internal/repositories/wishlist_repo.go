package repositories

import (
	"context"

	"outfitter/internal/models"
)

// WishlistRepository is the only mutation surface of wishlist documents. Mutations are atomic
// on the user's document and keep itemCount equal to the number of items.
type WishlistRepository interface {
	// Get returns the user's wishlist, or NotFound when none was ever created.
	Get(ctx context.Context, userID string) (*models.Wishlist, error)
	// Contains reports whether productID is on the user's wishlist. A missing document is false.
	Contains(ctx context.Context, userID, productID string) (bool, error)
	// AddItem creates the wishlist if needed and appends productID.
	// AlreadyInWishlist when the product is present.
	AddItem(ctx context.Context, userID, productID string) (*models.Wishlist, error)
	// RemoveItem deletes productID if present. NotFound when the wishlist does not exist.
	RemoveItem(ctx context.Context, userID, productID string) (*models.Wishlist, error)
	// Clear empties the wishlist. NotFound when the wishlist does not exist.
	Clear(ctx context.Context, userID string) (*models.Wishlist, error)
	// Reorder replaces the item order with productIDs, which must be a duplicate-free
	// permutation of the current ids. InvalidReorder otherwise, NotFound without a document.
	Reorder(ctx context.Context, userID string, productIDs []string) (*models.Wishlist, error)
}
