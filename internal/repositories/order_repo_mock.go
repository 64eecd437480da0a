package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository with
// the same versioning and checkout-atomicity semantics as the GORM
// implementation. The cart drain requires a MockCartRepository so both
// stores commit together.
type MockOrderRepository struct {
	orders map[string]models.Order
	carts  *MockCartRepository
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
// carts may be nil when CreateAndDrainCart is not exercised.
func NewMockOrderRepository(carts *MockCartRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
		carts:  carts,
	}
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrOrderNotFound)
	}
	return &order, nil
}

// GetAll returns orders matching the filter, newest first.
func (r *MockOrderRepository) GetAll(filter OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && order.PaymentStatus != filter.PaymentStatus {
			continue
		}
		orderList = append(orderList, order)
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// ListCreatedSince returns orders created at or after the given time.
func (r *MockOrderRepository) ListCreatedSince(since time.Time) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if !since.IsZero() && order.CreatedAt.Before(since) {
			continue
		}
		orderList = append(orderList, order)
	}
	return orderList, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(order)
}

func (r *MockOrderRepository) create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// CreateAndDrainCart inserts the order and empties the cart together.
func (r *MockOrderRepository) CreateAndDrainCart(order *models.Order, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.carts == nil {
		return fmt.Errorf("mock order repository has no cart store attached")
	}

	drained := *cart
	drained.Drain()
	if err := r.carts.Save(&drained); err != nil {
		return err
	}
	if err := r.create(order); err != nil {
		return err
	}
	*cart = drained
	return nil
}

// Save updates the order if the caller's version matches the stored one.
func (r *MockOrderRepository) Save(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", order.ID, models.ErrOrderNotFound)
	}
	if stored.Version != order.Version {
		return fmt.Errorf("order %s was modified concurrently: %w", order.ID, models.ErrConflict)
	}
	order.Version++
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}
