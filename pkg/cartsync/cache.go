// Package cartsync keeps a client-side view of a shopper's cart and wishlist in step with the
// storefront API. Mutation results are written straight into the cache; when that write is
// refused the authoritative queries are issued again.
package cartsync

import (
	"errors"
	"sync"

	"outfitter/internal/models"
)

var (
	// ErrMissingPrecondition is returned when a write carries no document.
	ErrMissingPrecondition = errors.New("cartsync: no document to write")
	// ErrStaleWrite is returned when the document is older than the cached one.
	ErrStaleWrite = errors.New("cartsync: document is older than the cached copy")
)

// Cache holds the latest known cart, cart item count and wishlist.
type Cache struct {
	mu       sync.RWMutex
	cart     *models.Cart
	count    *int
	wishlist *models.WishlistView
}

func NewCache() *Cache {
	return &Cache{}
}

// Cart returns a copy of the cached cart.
func (c *Cache) Cart() (*models.Cart, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cart == nil {
		return nil, false
	}
	return c.cart.Clone(), true
}

func (c *Cache) CartItemCount() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.count == nil {
		return 0, false
	}
	return *c.count, true
}

// Wishlist returns a copy of the cached wishlist view.
func (c *Cache) Wishlist() (*models.WishlistView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.wishlist == nil {
		return nil, false
	}
	return copyView(c.wishlist), true
}

// WriteCart stores cart and its derived item count.
func (c *Cache) WriteCart(cart *models.Cart) error {
	if cart == nil {
		return ErrMissingPrecondition
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cart != nil && cart.LastUpdated.Before(c.cart.LastUpdated) {
		return ErrStaleWrite
	}
	c.cart = cart.Clone()
	n := cart.TotalItems
	c.count = &n
	return nil
}

// WriteCartItemCount stores a count read on its own.
func (c *Cache) WriteCartItemCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = &n
}

// WriteWishlistView stores a wishlist as returned by the wishlist query.
func (c *Cache) WriteWishlistView(view *models.WishlistView) error {
	if view == nil {
		return ErrMissingPrecondition
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wishlist != nil && view.UpdatedAt.Before(c.wishlist.UpdatedAt) {
		return ErrStaleWrite
	}
	c.wishlist = copyView(view)
	return nil
}

// WriteWishlist stores a wishlist returned by a mutation. Product details already cached for
// an entry are kept; new entries have none until the next query.
func (c *Cache) WriteWishlist(w *models.Wishlist) error {
	if w == nil {
		return ErrMissingPrecondition
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wishlist != nil && w.UpdatedAt.Before(c.wishlist.UpdatedAt) {
		return ErrStaleWrite
	}

	known := make(map[string]*models.Product)
	if c.wishlist != nil {
		for _, e := range c.wishlist.Items {
			known[e.ProductID] = e.Product
		}
	}
	view := &models.WishlistView{
		ID:        w.ID,
		UserID:    w.UserID,
		Items:     make([]models.WishlistEntry, len(w.Items)),
		ItemCount: w.ItemCount,
		UpdatedAt: w.UpdatedAt,
	}
	for i, it := range w.Items {
		view.Items[i] = models.WishlistEntry{ProductID: it.ProductID, AddedAt: it.AddedAt, Product: known[it.ProductID]}
	}
	c.wishlist = view
	return nil
}

// InvalidateCart drops the cart and count so the next read goes to the server.
func (c *Cache) InvalidateCart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cart = nil
	c.count = nil
}

func (c *Cache) InvalidateWishlist() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wishlist = nil
}

func copyView(v *models.WishlistView) *models.WishlistView {
	cp := *v
	cp.Items = append([]models.WishlistEntry(nil), v.Items...)
	if cp.Items == nil {
		cp.Items = []models.WishlistEntry{}
	}
	return &cp
}
