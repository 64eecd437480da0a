package repositories

import (
	"fmt"
	"sync"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// MockPromoRepository is an in-memory implementation of PromoRepository.
type MockPromoRepository struct {
	promos map[string]models.PromoCode
	mu     sync.RWMutex
}

// NewMockPromoRepository creates a new instance of MockPromoRepository.
func NewMockPromoRepository() *MockPromoRepository {
	return &MockPromoRepository{
		promos: make(map[string]models.PromoCode),
	}
}

// GetByCode returns a promo code.
func (r *MockPromoRepository) GetByCode(code string) (*models.PromoCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	promo, ok := r.promos[code]
	if !ok {
		return nil, fmt.Errorf("promo code %q: %w", code, models.ErrPromoInvalid)
	}
	return &promo, nil
}

// GetAll returns all promo codes.
func (r *MockPromoRepository) GetAll() ([]models.PromoCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	promoList := make([]models.PromoCode, 0, len(r.promos))
	for _, p := range r.promos {
		promoList = append(promoList, p)
	}
	return promoList, nil
}

// Create adds a new promo code.
func (r *MockPromoRepository) Create(promo *models.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.promos[promo.Code] = *promo
	return nil
}

// Update modifies an existing promo code.
func (r *MockPromoRepository) Update(promo *models.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.promos[promo.Code]; !ok {
		return fmt.Errorf("promo code %q: %w", promo.Code, models.ErrPromoInvalid)
	}
	r.promos[promo.Code] = *promo
	return nil
}
