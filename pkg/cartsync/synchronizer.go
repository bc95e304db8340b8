package cartsync

import (
	"context"
	"log"

	"outfitter/internal/models"
	"outfitter/internal/services"
)

// MoveOutcome is the answer of a wishlist-to-cart move. Err is set when only the cart add
// landed.
type MoveOutcome struct {
	Status services.MoveStatus
	Cart   *models.Cart
	Err    error
}

// Transport issues the storefront queries and mutations for one authenticated shopper.
type Transport interface {
	Cart(ctx context.Context) (*models.Cart, error)
	CartItemCount(ctx context.Context) (int, error)
	Wishlist(ctx context.Context) (*models.WishlistView, error)

	AddToCart(ctx context.Context, in services.AddToCartInput) (*models.Cart, error)
	UpdateCartItemQuantity(ctx context.Context, productID string, quantity int) (*models.Cart, error)
	RemoveFromCart(ctx context.Context, productID string) (*models.Cart, error)
	ClearCart(ctx context.Context) (*models.Cart, error)

	AddToWishlist(ctx context.Context, productID string) (*models.Wishlist, error)
	RemoveFromWishlist(ctx context.Context, productID string) (*models.Wishlist, error)
	ClearWishlist(ctx context.Context) (*models.Wishlist, error)
	ReorderWishlist(ctx context.Context, productIDs []string) (*models.Wishlist, error)
	MoveWishlistToCart(ctx context.Context, productID string) (*MoveOutcome, error)
}

// Synchronizer runs mutations through a Transport and keeps a Cache current with the results.
type Synchronizer struct {
	transport Transport
	cache     *Cache
}

// New creates a Synchronizer. A nil cache gets a fresh one.
func New(transport Transport, cache *Cache) *Synchronizer {
	if cache == nil {
		cache = NewCache()
	}
	return &Synchronizer{transport: transport, cache: cache}
}

func (s *Synchronizer) Cache() *Cache { return s.cache }

// Refresh reloads cart, count and wishlist from the server.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	if err := s.RefreshCart(ctx); err != nil {
		return err
	}
	return s.RefreshWishlist(ctx)
}

// RefreshCart reloads the cart and its item count.
func (s *Synchronizer) RefreshCart(ctx context.Context) error {
	cart, err := s.transport.Cart(ctx)
	if err != nil {
		return err
	}
	count, err := s.transport.CartItemCount(ctx)
	if err != nil {
		return err
	}
	s.cache.InvalidateCart()
	if err := s.cache.WriteCart(cart); err != nil {
		return err
	}
	s.cache.WriteCartItemCount(count)
	return nil
}

func (s *Synchronizer) RefreshWishlist(ctx context.Context) error {
	view, err := s.transport.Wishlist(ctx)
	if err != nil {
		return err
	}
	s.cache.InvalidateWishlist()
	return s.cache.WriteWishlistView(view)
}

func (s *Synchronizer) AddToCart(ctx context.Context, in services.AddToCartInput) (*models.Cart, error) {
	cart, err := s.transport.AddToCart(ctx, in)
	s.applyCart(ctx, cart, err)
	return cart, err
}

func (s *Synchronizer) UpdateCartItemQuantity(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.transport.UpdateCartItemQuantity(ctx, productID, quantity)
	s.applyCart(ctx, cart, err)
	return cart, err
}

func (s *Synchronizer) RemoveFromCart(ctx context.Context, productID string) (*models.Cart, error) {
	cart, err := s.transport.RemoveFromCart(ctx, productID)
	s.applyCart(ctx, cart, err)
	return cart, err
}

func (s *Synchronizer) ClearCart(ctx context.Context) (*models.Cart, error) {
	cart, err := s.transport.ClearCart(ctx)
	s.applyCart(ctx, cart, err)
	return cart, err
}

func (s *Synchronizer) AddToWishlist(ctx context.Context, productID string) (*models.Wishlist, error) {
	w, err := s.transport.AddToWishlist(ctx, productID)
	s.applyWishlist(ctx, w, err)
	return w, err
}

func (s *Synchronizer) RemoveFromWishlist(ctx context.Context, productID string) (*models.Wishlist, error) {
	w, err := s.transport.RemoveFromWishlist(ctx, productID)
	s.applyWishlist(ctx, w, err)
	return w, err
}

func (s *Synchronizer) ClearWishlist(ctx context.Context) (*models.Wishlist, error) {
	w, err := s.transport.ClearWishlist(ctx)
	s.applyWishlist(ctx, w, err)
	return w, err
}

func (s *Synchronizer) ReorderWishlist(ctx context.Context, productIDs []string) (*models.Wishlist, error) {
	w, err := s.transport.ReorderWishlist(ctx, productIDs)
	s.applyWishlist(ctx, w, err)
	return w, err
}

// MoveWishlistToCart applies the returned cart and always reloads the wishlist, since the
// move answers with the cart only.
func (s *Synchronizer) MoveWishlistToCart(ctx context.Context, productID string) (*MoveOutcome, error) {
	res, err := s.transport.MoveWishlistToCart(ctx, productID)
	var cart *models.Cart
	if res != nil {
		cart = res.Cart
	}
	s.applyCart(ctx, cart, err)
	if rerr := s.RefreshWishlist(ctx); rerr != nil {
		log.Printf("cartsync: wishlist refresh after move failed: %v", rerr)
		s.cache.InvalidateWishlist()
	}
	return res, err
}

// applyCart writes a confirmed cart. A failed mutation or a refused write falls back to the
// authoritative queries; if those fail too the cached cart is dropped.
func (s *Synchronizer) applyCart(ctx context.Context, cart *models.Cart, mutationErr error) {
	if mutationErr == nil {
		werr := s.cache.WriteCart(cart)
		if werr == nil {
			return
		}
		log.Printf("cartsync: cart cache write refused: %v", werr)
	}
	if err := s.RefreshCart(ctx); err != nil {
		log.Printf("cartsync: cart refresh failed: %v", err)
		s.cache.InvalidateCart()
	}
}

func (s *Synchronizer) applyWishlist(ctx context.Context, w *models.Wishlist, mutationErr error) {
	if mutationErr == nil {
		werr := s.cache.WriteWishlist(w)
		if werr == nil {
			return
		}
		log.Printf("cartsync: wishlist cache write refused: %v", werr)
	}
	if err := s.RefreshWishlist(ctx); err != nil {
		log.Printf("cartsync: wishlist refresh failed: %v", err)
		s.cache.InvalidateWishlist()
	}
}
