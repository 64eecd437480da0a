package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByCustomer retrieves the cart for a customer from the database.
func (r *GORMCartRepository) GetByCustomer(customerID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.First(&cart, "customer_id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for customer %s: %w", customerID, models.ErrCartNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for customer %s: %w", customerID, err)
	}
	return &cart, nil
}

// Create inserts a new cart row. A concurrent create for the same customer
// surfaces as ErrConflict so callers can reload and retry.
func (r *GORMCartRepository) Create(cart *models.Cart) error {
	if err := r.db.Create(cart).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("cart for customer %s already exists: %w", cart.CustomerID, models.ErrConflict)
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// Save updates the cart row guarded by the optimistic version column.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	currentVersion := cart.Version
	cart.Version = currentVersion + 1

	res := r.db.Model(cart).
		Where("version = ?", currentVersion).
		Select("*").Omit("created_at").
		Updates(cart)
	if res.Error != nil {
		cart.Version = currentVersion
		return fmt.Errorf("failed to save cart for customer %s: %w", cart.CustomerID, res.Error)
	}
	if res.RowsAffected == 0 {
		cart.Version = currentVersion
		return fmt.Errorf("cart for customer %s was modified concurrently: %w", cart.CustomerID, models.ErrConflict)
	}
	return nil
}
