package repositories

import (
	"github.com/imroytran/telegram-webapp/internal/models"
)

// CartRepository defines the interface for cart data access. One cart per
// customer; Save performs an optimistic version check so concurrent
// read-modify-write cycles for the same customer are serialized.
type CartRepository interface {
	GetByCustomer(customerID string) (*models.Cart, error)
	Create(cart *models.Cart) error
	// Save persists the cart if its Version still matches the stored row,
	// bumping the version on success. Returns models.ErrConflict otherwise.
	Save(cart *models.Cart) error
}
