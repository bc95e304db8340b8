package repositories

import (
	"context"
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGORMProductRepository creates a GORMProductRepository whose queries each run under timeout.
func NewGORMProductRepository(db *gorm.DB, timeout time.Duration) *GORMProductRepository {
	return &GORMProductRepository{
		db:      db,
		timeout: timeout,
	}
}

func (r *GORMProductRepository) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	return boundedSession(ctx, r.db, r.timeout)
}

// GetAll retrieves the catalog ordered by name.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Order("name").Find(&products).Error; err != nil {
		return nil, storeError("get all products", err)
	}
	return products, nil
}

// GetByID retrieves a single product. Unknown ids are ProductNotFound.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.Newf(apperr.ProductNotFound, "product with ID %s not found", id)
		}
		return nil, storeError("get product", err)
	}
	return &product, nil
}

func (r *GORMProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, storeError("get products", err)
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Create(product).Error; err != nil {
		return storeError("create product", err)
	}
	return nil
}

func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, storeError("count products", err)
	}
	return n, nil
}
