package repositories

import (
	"context"
	"time"

	"outfitter/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGORMUserRepository creates a GORMUserRepository whose queries each run under timeout.
func NewGORMUserRepository(db *gorm.DB, timeout time.Duration) *GORMUserRepository {
	return &GORMUserRepository{
		db:      db,
		timeout: timeout,
	}
}

func (r *GORMUserRepository) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	return boundedSession(ctx, r.db, r.timeout)
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Create(user).Error; err != nil {
		return storeError("create user", err)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "get user by username", "username = ?", username)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "get user by email", "email = ?", email)
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "get user by id", "id = ?", id)
}

func (r *GORMUserRepository) CountCustomers(ctx context.Context, since *time.Time) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	q := db.Model(&models.User{}).Where("role = ?", models.RoleCustomer)
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, storeError("count customers", err)
	}
	return n, nil
}

// HasRole reports whether at least one user holds role.
func (r *GORMUserRepository) HasRole(ctx context.Context, role string) (bool, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var n int64
	if err := db.Model(&models.User{}).Where("role = ?", role).Limit(1).Count(&n).Error; err != nil {
		return false, storeError("check role", err)
	}
	return n > 0, nil
}

func (r *GORMUserRepository) first(ctx context.Context, op, query string, arg string) (*models.User, error) {
	var user models.User
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.First(&user, query, arg).Error; err != nil {
		return nil, storeError(op, err)
	}
	return &user, nil
}
