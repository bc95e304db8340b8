package repositories

import (
	"context"
	"time"

	"outfitter/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	// ListCreatedBetween returns orders with from <= createdAt <= to, oldest first.
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
	// Recent returns the newest orders of any status, newest first.
	Recent(ctx context.Context, limit int) ([]models.Order, error)
}
