package repositories

import (
	"context"
	"sync"
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/models"

	"github.com/google/uuid"
)

// MockWishlistRepository is an in-memory implementation of WishlistRepository.
type MockWishlistRepository struct {
	wishlists map[string]*models.Wishlist
	mu        sync.Mutex
	now       func() time.Time
}

// NewMockWishlistRepository creates a new instance of MockWishlistRepository.
func NewMockWishlistRepository() *MockWishlistRepository {
	return &MockWishlistRepository{
		wishlists: make(map[string]*models.Wishlist),
		now:       time.Now,
	}
}

// WithClock replaces the clock used for addedAt and updatedAt stamps.
func (r *MockWishlistRepository) WithClock(now func() time.Time) *MockWishlistRepository {
	r.now = now
	return r
}

func (r *MockWishlistRepository) Get(ctx context.Context, userID string) (*models.Wishlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("get wishlist", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wishlists[userID]
	if !ok {
		return nil, wishlistNotFound(userID)
	}
	return w.Clone(), nil
}

func (r *MockWishlistRepository) Contains(ctx context.Context, userID, productID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, storeError("check wishlist", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wishlists[userID]
	return ok && w.Contains(productID), nil
}

func (r *MockWishlistRepository) AddItem(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("add wishlist item", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wishlists[userID]
	if !ok {
		w = models.NewWishlist(userID)
		w.ID = uuid.New().String()
		r.wishlists[userID] = w
	}
	if !w.Add(productID, r.now()) {
		return nil, apperr.New(apperr.AlreadyInWishlist, "product is already in the wishlist")
	}
	return w.Clone(), nil
}

func (r *MockWishlistRepository) RemoveItem(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	return r.mutate(ctx, "remove wishlist item", userID, func(w *models.Wishlist, now time.Time) error {
		w.Remove(productID, now)
		return nil
	})
}

func (r *MockWishlistRepository) Clear(ctx context.Context, userID string) (*models.Wishlist, error) {
	return r.mutate(ctx, "clear wishlist", userID, func(w *models.Wishlist, now time.Time) error {
		w.Clear(now)
		return nil
	})
}

func (r *MockWishlistRepository) Reorder(ctx context.Context, userID string, productIDs []string) (*models.Wishlist, error) {
	return r.mutate(ctx, "reorder wishlist", userID, func(w *models.Wishlist, now time.Time) error {
		if !w.Reorder(productIDs, now) {
			return errInvalidReorder
		}
		return nil
	})
}

func (r *MockWishlistRepository) mutate(ctx context.Context, op, userID string, fn func(*models.Wishlist, time.Time) error) (*models.Wishlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError(op, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wishlists[userID]
	if !ok {
		return nil, wishlistNotFound(userID)
	}
	if err := fn(w, r.now()); err != nil {
		return nil, err
	}
	return w.Clone(), nil
}

var errInvalidReorder = apperr.New(apperr.InvalidReorder, "reorder list must be a permutation of the current wishlist")

func wishlistNotFound(userID string) error {
	return apperr.Newf(apperr.NotFound, "wishlist for user %s not found", userID)
}
