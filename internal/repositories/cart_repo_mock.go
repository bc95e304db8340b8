package repositories

import (
	"context"
	"sync"
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
// Each method holds the lock for the whole read-modify-write, which gives it the same
// single-document atomicity the Mongo implementation gets from findOneAndUpdate.
type MockCartRepository struct {
	carts map[string]*models.Cart
	mu    sync.Mutex
	now   func() time.Time
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]*models.Cart),
		now:   time.Now,
	}
}

// WithClock replaces the clock used for lastUpdated and addedAt stamps.
func (r *MockCartRepository) WithClock(now func() time.Time) *MockCartRepository {
	r.now = now
	return r
}

func (r *MockCartRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("get cart", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[userID]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "cart for user %s not found", userID)
	}
	return cart.Clone(), nil
}

func (r *MockCartRepository) AddItem(ctx context.Context, userID string, line models.CartLine) (*models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("add cart item", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[userID]
	if !ok {
		cart = models.NewCart(userID)
		cart.ID = uuid.New().String()
		r.carts[userID] = cart
	}
	cart.MergeLine(line, r.now())
	return cart.Clone(), nil
}

func (r *MockCartRepository) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	return r.mutate(ctx, "update cart quantity", userID, func(c *models.Cart, now time.Time) {
		c.SetQuantity(productID, quantity, now)
	})
}

func (r *MockCartRepository) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	return r.mutate(ctx, "remove cart item", userID, func(c *models.Cart, now time.Time) {
		c.RemoveLine(productID, now)
	})
}

func (r *MockCartRepository) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	return r.mutate(ctx, "clear cart", userID, func(c *models.Cart, now time.Time) {
		c.Clear(now)
	})
}

func (r *MockCartRepository) mutate(ctx context.Context, op, userID string, fn func(*models.Cart, time.Time)) (*models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError(op, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[userID]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "cart for user %s not found", userID)
	}
	fn(cart, r.now())
	return cart.Clone(), nil
}
