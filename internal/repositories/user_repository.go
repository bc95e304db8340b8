package repositories

import (
	"context"
	"time"

	"outfitter/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// CountCustomers counts users with the customer role, created at or after since when set.
	CountCustomers(ctx context.Context, since *time.Time) (int64, error)
	HasRole(ctx context.Context, role string) (bool, error)
}
