package models

import "time"

// WishlistItem is a presence-only wishlist entry. Order within the wishlist is user controlled.
type WishlistItem struct {
	ProductID string    `bson:"productId" json:"productId"`
	AddedAt   time.Time `bson:"addedAt" json:"addedAt"`
}

// Wishlist is the per-user wishlist document. ItemCount is always len(Items).
type Wishlist struct {
	ID        string         `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string         `bson:"userId" json:"userId"`
	Items     []WishlistItem `bson:"items" json:"items"`
	ItemCount int            `bson:"itemCount" json:"itemCount"`
	UpdatedAt time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// NewWishlist returns the zero-state wishlist for a user. It is not persisted.
func NewWishlist(userID string) *Wishlist {
	return &Wishlist{UserID: userID, Items: []WishlistItem{}}
}

// Contains reports whether productID is on the wishlist.
func (w *Wishlist) Contains(productID string) bool {
	for _, it := range w.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Add appends productID. It reports false, leaving the wishlist untouched, when the product
// is already present.
func (w *Wishlist) Add(productID string, now time.Time) bool {
	if w.Contains(productID) {
		return false
	}
	w.Items = append(w.Items, WishlistItem{ProductID: productID, AddedAt: now})
	w.touch(now)
	return true
}

// Remove deletes productID if present.
func (w *Wishlist) Remove(productID string, now time.Time) {
	kept := make([]WishlistItem, 0, len(w.Items))
	for _, it := range w.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	w.Items = kept
	w.touch(now)
}

// Clear empties the wishlist but keeps the document.
func (w *Wishlist) Clear(now time.Time) {
	w.Items = []WishlistItem{}
	w.touch(now)
}

// Reorder rearranges Items to follow productIDs. It reports false, leaving the wishlist
// untouched, unless productIDs is exactly a permutation of the current product ids.
func (w *Wishlist) Reorder(productIDs []string, now time.Time) bool {
	if len(productIDs) != len(w.Items) {
		return false
	}
	byID := make(map[string]WishlistItem, len(w.Items))
	for _, it := range w.Items {
		byID[it.ProductID] = it
	}
	reordered := make([]WishlistItem, 0, len(productIDs))
	for _, id := range productIDs {
		it, ok := byID[id]
		if !ok {
			return false
		}
		delete(byID, id)
		reordered = append(reordered, it)
	}
	w.Items = reordered
	w.touch(now)
	return true
}

func (w *Wishlist) touch(now time.Time) {
	w.ItemCount = len(w.Items)
	w.UpdatedAt = now
}

// Clone returns a deep copy safe to hand out of a store.
func (w *Wishlist) Clone() *Wishlist {
	cp := *w
	cp.Items = append([]WishlistItem(nil), w.Items...)
	if cp.Items == nil {
		cp.Items = []WishlistItem{}
	}
	return &cp
}

// WishlistEntry is a wishlist item enriched with the current catalog product.
// Product is nil when the product no longer exists in the catalog.
type WishlistEntry struct {
	ProductID string    `json:"productId"`
	AddedAt   time.Time `json:"addedAt"`
	Product   *Product  `json:"product,omitempty"`
}

// WishlistView is the read shape of a wishlist returned to callers.
type WishlistView struct {
	ID        string          `json:"id,omitempty"`
	UserID    string          `json:"userId"`
	Items     []WishlistEntry `json:"items"`
	ItemCount int             `json:"itemCount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
