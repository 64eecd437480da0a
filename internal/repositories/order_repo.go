package repositories

import (
	"time"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	CustomerID    string
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
}

// OrderRepository defines the interface for order data access. Orders are
// never deleted; Save performs an optimistic version check so concurrent
// status updates against the same order are serialized.
type OrderRepository interface {
	GetByID(id string) (*models.Order, error)
	GetAll(filter OrderFilter) ([]models.Order, error)
	ListCreatedSince(since time.Time) ([]models.Order, error)
	Create(order *models.Order) error
	// CreateAndDrainCart atomically inserts the order and empties the source
	// cart: either both happen or neither does. The cart drain is guarded by
	// the cart's version, so a concurrent cart mutation aborts the checkout
	// with models.ErrConflict.
	CreateAndDrainCart(order *models.Order, cart *models.Cart) error
	// Save persists status/payment/tracking changes if the order's Version
	// still matches the stored row. Returns models.ErrConflict otherwise.
	Save(order *models.Order) error
}
