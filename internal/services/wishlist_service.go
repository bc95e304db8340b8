package services

import (
	"context"

	"outfitter/internal/apperr"
	"outfitter/internal/models"
	"outfitter/internal/repositories"
)

// MoveStatus tags how far a move from the wishlist to the cart got.
type MoveStatus string

const (
	// MoveCompleted means the product is in the cart and off the wishlist.
	MoveCompleted MoveStatus = "completed"
	// MovePartialCartOnly means the cart add succeeded but the wishlist removal failed, so the
	// product now sits in both. Running the move again adds one more unit to the cart.
	MovePartialCartOnly MoveStatus = "partial_cart_only"
)

// MoveResult is the outcome of MoveToCart. Err is set only for MovePartialCartOnly.
type MoveResult struct {
	Status MoveStatus
	Cart   *models.Cart
	Err    error
}

// WishlistService runs wishlist mutations and the wishlist-to-cart move.
type WishlistService struct {
	wishlists repositories.WishlistRepository
	catalog   CatalogLookup
	carts     *CartService
	events    EventPublisher
}

// NewWishlistService creates a new WishlistService. events may be nil.
func NewWishlistService(wishlists repositories.WishlistRepository, catalog CatalogLookup, carts *CartService, events EventPublisher) *WishlistService {
	return &WishlistService{wishlists: wishlists, catalog: catalog, carts: carts, events: events}
}

// GetWishlist returns the wishlist with each entry's current catalog product. Entries whose
// product left the catalog keep a nil Product.
func (s *WishlistService) GetWishlist(ctx context.Context, userID string) (*models.WishlistView, error) {
	w, err := s.wishlists.Get(ctx, userID)
	if apperr.Is(err, apperr.NotFound) {
		return &models.WishlistView{UserID: userID, Items: []models.WishlistEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(w.Items))
	for i, it := range w.Items {
		ids[i] = it.ProductID
	}
	products, err := s.catalog.LookupMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &models.WishlistView{
		ID:        w.ID,
		UserID:    w.UserID,
		Items:     make([]models.WishlistEntry, len(w.Items)),
		ItemCount: w.ItemCount,
		UpdatedAt: w.UpdatedAt,
	}
	for i, it := range w.Items {
		entry := models.WishlistEntry{ProductID: it.ProductID, AddedAt: it.AddedAt}
		if p, ok := products[it.ProductID]; ok {
			entry.Product = &p
		}
		view.Items[i] = entry
	}
	return view, nil
}

// IsProductInWishlist reports whether the user's wishlist holds productID.
func (s *WishlistService) IsProductInWishlist(ctx context.Context, userID, productID string) (bool, error) {
	return s.wishlists.Contains(ctx, userID, productID)
}

// AddItem validates the product, then appends it. A duplicate is AlreadyInWishlist.
func (s *WishlistService) AddItem(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	if _, err := s.catalog.Lookup(ctx, productID); err != nil {
		return nil, err
	}
	w, err := s.wishlists.AddItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	s.publish("add", userID, productID, w)
	return w, nil
}

// RemoveItem removes productID from the wishlist. Removing an absent product succeeds.
func (s *WishlistService) RemoveItem(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	w, err := s.wishlists.RemoveItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	s.publish("remove", userID, productID, w)
	return w, nil
}

// Clear empties the wishlist. A user without a wishlist document gets NotFound.
func (s *WishlistService) Clear(ctx context.Context, userID string) (*models.Wishlist, error) {
	w, err := s.wishlists.Clear(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.publish("clear", userID, "", w)
	return w, nil
}

// Reorder replaces the item order. productIDs must list every current product exactly once;
// lists that omit, add or repeat ids fail with InvalidReorder and leave the order untouched.
func (s *WishlistService) Reorder(ctx context.Context, userID string, productIDs []string) (*models.Wishlist, error) {
	seen := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, dup := seen[id]; dup {
			return nil, apperr.Newf(apperr.InvalidReorder, "product %s appears more than once", id)
		}
		seen[id] = struct{}{}
	}
	if productIDs == nil {
		productIDs = []string{}
	}

	w, err := s.wishlists.Reorder(ctx, userID, productIDs)
	if err != nil {
		return nil, err
	}
	s.publish("reorder", userID, "", w)
	return w, nil
}

// MoveToCart adds one unit of the product to the cart, then removes it from the wishlist.
// The two stores are not updated together. A failed cart add changes nothing and is returned
// as an error; a failed removal after the add is reported as MovePartialCartOnly.
func (s *WishlistService) MoveToCart(ctx context.Context, userID, productID string) (*MoveResult, error) {
	product, err := s.catalog.Lookup(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.addLine(ctx, userID, snapshotLine(product, AddToCartInput{Quantity: 1}), "move_from_wishlist")
	if err != nil {
		return nil, err
	}

	w, err := s.wishlists.RemoveItem(ctx, userID, productID)
	switch {
	case err == nil:
		s.publish("move_to_cart", userID, productID, w)
	case apperr.Is(err, apperr.NotFound):
		// No wishlist document: nothing left to remove.
	default:
		return &MoveResult{Status: MovePartialCartOnly, Cart: cart, Err: err}, nil
	}
	return &MoveResult{Status: MoveCompleted, Cart: cart}, nil
}

func (s *WishlistService) publish(action, userID, productID string, w *models.Wishlist) {
	publishEvent(s.events, models.MutationEvent{
		Type:       models.EventWishlistUpdated,
		Action:     action,
		UserID:     userID,
		ProductID:  productID,
		ItemCount:  w.ItemCount,
		OccurredAt: w.UpdatedAt,
	})
}
