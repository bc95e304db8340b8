package services

import (
	"context"
	"log"

	"outfitter/internal/apperr"
	"outfitter/internal/models"
	"outfitter/internal/repositories"
)

// CatalogLookup resolves product ids to their current catalog entry.
type CatalogLookup interface {
	Lookup(ctx context.Context, id string) (*models.Product, error)
	LookupMany(ctx context.Context, ids []string) (map[string]models.Product, error)
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.repo.Create(ctx, product)
}

// Lookup is GetProductByID with every miss reported as ProductNotFound.
func (s *ProductService) Lookup(ctx context.Context, id string) (*models.Product, error) {
	if id == "" {
		return nil, apperr.New(apperr.ProductNotFound, "product id is required")
	}
	p, err := s.repo.GetByID(ctx, id)
	if apperr.Is(err, apperr.NotFound) {
		return nil, apperr.Wrap(apperr.ProductNotFound, "product not found", err)
	}
	return p, err
}

func (s *ProductService) LookupMany(ctx context.Context, ids []string) (map[string]models.Product, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// SeedCatalog inserts products when the catalog is empty.
func (s *ProductService) SeedCatalog(ctx context.Context, products []models.Product) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for i := range products {
		if err := s.repo.Create(ctx, &products[i]); err != nil {
			return err
		}
		log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
	}
	return nil
}
