package services

import (
	"context"
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/models"
	"outfitter/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one requested line of a checkout.
type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// OrderService handles the checkout stub and order status changes.
type OrderService struct {
	orderRepo repositories.OrderRepository
	catalog   CatalogLookup
	events    EventPublisher
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, catalog CatalogLookup, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		catalog:   catalog,
		events:    events,
	}
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// GetOrderByID returns one order. Non-admin callers only see their own orders.
func (s *OrderService) GetOrderByID(ctx context.Context, caller Identity, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, apperr.Newf(apperr.NotFound, "order with ID %s not found", id)
	}
	return order, nil
}

// CreateOrder prices the items from the catalog and stores a pending order.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, items []OrderItemRequest) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "at least one item is required for an order")
	}

	total := decimal.Zero
	processed := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, apperr.Newf(apperr.InvalidInput, "quantity for product %s must be at least 1", item.ProductID)
		}
		product, err := s.catalog.Lookup(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < item.Quantity {
			return nil, apperr.Newf(apperr.InvalidInput, "insufficient stock for product %s (requested: %d, available: %d)", product.Name, item.Quantity, product.Stock)
		}

		lineTotal := decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		processed = append(processed, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			Price:       product.Price,
			Total:       lineTotal.InexactFloat64(),
		})
		total = total.Add(lineTotal)
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		Items:       processed,
		TotalAmount: total.InexactFloat64(),
		Status:      models.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.publish(models.EventOrderCreated, "create", order)
	return order, nil
}

// UpdateOrderStatus moves an order to status and publishes the change.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Newf(apperr.InvalidInput, "invalid order status: %s", status)
	}
	order, err := s.orderRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.publish(models.EventOrderStatusChanged, string(status), order)
	return order, nil
}

func (s *OrderService) publish(eventType, action string, order *models.Order) {
	publishEvent(s.events, models.MutationEvent{
		Type:       eventType,
		Action:     action,
		UserID:     order.UserID,
		OrderID:    order.ID,
		ItemCount:  len(order.Items),
		Total:      order.TotalAmount,
		OccurredAt: order.UpdatedAt,
	})
}
