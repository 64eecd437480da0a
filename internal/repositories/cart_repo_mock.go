package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository with
// the same optimistic-versioning semantics as the GORM implementation.
type MockCartRepository struct {
	carts map[string]models.Cart
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// GetByCustomer returns the cart for a customer.
func (r *MockCartRepository) GetByCustomer(customerID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[customerID]
	if !ok {
		return nil, fmt.Errorf("cart for customer %s: %w", customerID, models.ErrCartNotFound)
	}
	return &cart, nil
}

// Create adds a new cart keyed by customer id.
func (r *MockCartRepository) Create(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[cart.CustomerID]; ok {
		return fmt.Errorf("cart for customer %s already exists: %w", cart.CustomerID, models.ErrConflict)
	}
	cart.CreatedAt = time.Now()
	cart.UpdatedAt = time.Now()
	r.carts[cart.CustomerID] = *cart
	return nil
}

// Save updates the cart if the caller's version matches the stored one.
func (r *MockCartRepository) Save(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.carts[cart.CustomerID]
	if !ok {
		return fmt.Errorf("cart for customer %s: %w", cart.CustomerID, models.ErrCartNotFound)
	}
	if stored.Version != cart.Version {
		return fmt.Errorf("cart for customer %s was modified concurrently: %w", cart.CustomerID, models.ErrConflict)
	}
	cart.Version++
	cart.UpdatedAt = time.Now()
	r.carts[cart.CustomerID] = *cart
	return nil
}
