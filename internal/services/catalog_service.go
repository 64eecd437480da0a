package services

import (
	"log"

	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/repositories"
)

// CatalogService handles business logic related to the product catalog.
// Writes are admin-only; carts and orders read current prices and
// availability from here.
type CatalogService struct {
	repo repositories.ProductRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.ProductRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
	}
}

// List retrieves products matching the filter.
func (s *CatalogService) List(filter repositories.ProductFilter) ([]models.Product, error) {
	return s.repo.GetAll(filter)
}

// Get retrieves a single product by its ID.
func (s *CatalogService) Get(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CountView bumps the storefront view counter. Best-effort: failures are
// logged and never block the read path.
func (s *CatalogService) CountView(id string) {
	if err := s.repo.IncrementViews(id); err != nil {
		log.Printf("Warning: failed to count view for product %s: %v", id, err)
	}
}

// Create creates a new product.
func (s *CatalogService) Create(product *models.Product) error {
	return s.repo.Create(product)
}

// Update updates an existing product.
func (s *CatalogService) Update(product *models.Product) error {
	return s.repo.Update(product)
}

// Delete deletes a product by its ID. Existing order items keep their
// snapshotted title and price; carts referencing the product fail at
// checkout.
func (s *CatalogService) Delete(id string) error {
	return s.repo.Delete(id)
}
