package repositories

import (
	"github.com/imroytran/telegram-webapp/internal/models"
)

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Category    string
	ActiveOnly  bool
	InStockOnly bool
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(filter ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// IncrementViews bumps the storefront view counter. Best-effort: callers
	// log and ignore failures.
	IncrementViews(id string) error
}
