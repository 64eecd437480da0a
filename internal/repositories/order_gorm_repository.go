package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetByID retrieves a single order by its ID from the database.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, models.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetAll retrieves orders matching the filter, newest first.
func (r *GORMOrderRepository) GetAll(filter OrderFilter) ([]models.Order, error) {
	query := r.db.Order("created_at DESC")
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListCreatedSince retrieves orders created at or after the given time.
// A zero time returns every order.
func (r *GORMOrderRepository) ListCreatedSince(since time.Time) ([]models.Order, error) {
	query := r.db
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders since %s: %w", since, err)
	}
	return orders, nil
}

// Create inserts a new order.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// CreateAndDrainCart inserts the order and empties the cart in one
// transaction. The caller's cart struct is only drained on success.
func (r *GORMOrderRepository) CreateAndDrainCart(order *models.Order, cart *models.Cart) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	drained := *cart
	drained.Drain()
	previousVersion := cart.Version
	drained.Version = previousVersion + 1

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		res := tx.Model(&drained).
			Where("version = ?", previousVersion).
			Select("*").Omit("created_at").
			Updates(&drained)
		if res.Error != nil {
			return fmt.Errorf("failed to drain cart for customer %s: %w", cart.CustomerID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("cart for customer %s was modified concurrently: %w", cart.CustomerID, models.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return err
	}

	*cart = drained
	return nil
}

// Save updates the order row guarded by the optimistic version column.
func (r *GORMOrderRepository) Save(order *models.Order) error {
	currentVersion := order.Version
	order.Version = currentVersion + 1

	res := r.db.Model(order).
		Where("version = ?", currentVersion).
		Select("*").Omit("created_at").
		Updates(order)
	if res.Error != nil {
		order.Version = currentVersion
		return fmt.Errorf("failed to save order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		order.Version = currentVersion
		return fmt.Errorf("order %s was modified concurrently: %w", order.ID, models.ErrConflict)
	}
	return nil
}
