package services

import (
	"context"
	"strings"

	"outfitter/internal/apperr"
	"outfitter/internal/models"
	"outfitter/internal/repositories"
)

// AddToCartInput carries the line to add. Empty snapshot fields are filled from the catalog.
type AddToCartInput struct {
	ProductID       string  `json:"productId" validate:"required"`
	ProductName     string  `json:"productName"`
	ProductPrice    float64 `json:"productPrice" validate:"gte=0"`
	ProductImageURL string  `json:"productImageUrl"`
	Quantity        int     `json:"quantity" validate:"required,gte=1"`
	SelectedSize    string  `json:"selectedSize"`
	SelectedColor   string  `json:"selectedColor"`
}

// CartService runs cart mutations against the cart store. It never reads a cart to compute
// the next state itself; every change is one repository call.
type CartService struct {
	carts   repositories.CartRepository
	catalog CatalogLookup
	events  EventPublisher
}

// NewCartService creates a new CartService. events may be nil.
func NewCartService(carts repositories.CartRepository, catalog CatalogLookup, events EventPublisher) *CartService {
	return &CartService{carts: carts, catalog: catalog, events: events}
}

// GetCart returns the user's cart, or the empty zero-state when none was created yet.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	return s.orEmpty(userID, cart, err)
}

// ItemCount returns totalItems of the user's cart.
func (s *CartService) ItemCount(ctx context.Context, userID string) (int, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cart.TotalItems, nil
}

// AddItem validates the product and merges the line into the user's cart, creating the cart
// on first use.
func (s *CartService) AddItem(ctx context.Context, userID string, in AddToCartInput) (*models.Cart, error) {
	if in.Quantity < 1 {
		return nil, apperr.New(apperr.InvalidInput, "quantity must be at least 1")
	}
	product, err := s.catalog.Lookup(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	return s.addLine(ctx, userID, snapshotLine(product, in), "add")
}

func (s *CartService) addLine(ctx context.Context, userID string, line models.CartLine, action string) (*models.Cart, error) {
	cart, err := s.carts.AddItem(ctx, userID, line)
	if err != nil {
		return nil, err
	}
	s.publish(action, userID, line.ProductID, cart)
	return cart, nil
}

// UpdateQuantity sets the quantity of a line verbatim; quantity <= 0 removes it. A missing
// line leaves the cart unchanged.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.carts.UpdateQuantity(ctx, userID, productID, quantity)
	return s.mutated("update_quantity", userID, productID, cart, err)
}

// RemoveItem is idempotent: removing an absent line returns the unchanged cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	cart, err := s.carts.RemoveItem(ctx, userID, productID)
	return s.mutated("remove", userID, productID, cart, err)
}

// Clear empties the cart but keeps the document.
func (s *CartService) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.Clear(ctx, userID)
	return s.mutated("clear", userID, "", cart, err)
}

// mutated publishes the change of a successful mutation. A missing document means nothing
// changed, so the zero-state cart is returned without an event.
func (s *CartService) mutated(action, userID, productID string, cart *models.Cart, err error) (*models.Cart, error) {
	if err != nil {
		return s.orEmpty(userID, nil, err)
	}
	s.publish(action, userID, productID, cart)
	return cart, nil
}

// orEmpty maps a missing cart document to the zero-state cart. Reads never create documents.
func (s *CartService) orEmpty(userID string, cart *models.Cart, err error) (*models.Cart, error) {
	if apperr.Is(err, apperr.NotFound) {
		return models.NewCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) publish(action, userID, productID string, cart *models.Cart) {
	publishEvent(s.events, models.MutationEvent{
		Type:       models.EventCartUpdated,
		Action:     action,
		UserID:     userID,
		ProductID:  productID,
		ItemCount:  cart.TotalItems,
		Total:      cart.TotalPrice,
		OccurredAt: cart.LastUpdated,
	})
}

func snapshotLine(product *models.Product, in AddToCartInput) models.CartLine {
	line := models.CartLine{
		ProductID:       product.ID,
		ProductName:     strings.TrimSpace(in.ProductName),
		ProductPrice:    in.ProductPrice,
		ProductImageURL: in.ProductImageURL,
		Quantity:        in.Quantity,
		SelectedSize:    in.SelectedSize,
		SelectedColor:   in.SelectedColor,
	}
	if line.ProductName == "" {
		line.ProductName = product.Name
	}
	if line.ProductPrice <= 0 {
		line.ProductPrice = product.Price
	}
	if line.ProductImageURL == "" {
		line.ProductImageURL = product.ImageURL
	}
	return line
}
