package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// GORMPromoRepository is a GORM implementation of PromoRepository.
type GORMPromoRepository struct {
	db *gorm.DB
}

// NewGORMPromoRepository creates a new instance of GORMPromoRepository.
func NewGORMPromoRepository(db *gorm.DB) *GORMPromoRepository {
	return &GORMPromoRepository{
		db: db,
	}
}

// GetByCode retrieves a promo code from the database.
func (r *GORMPromoRepository) GetByCode(code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.db.First(&promo, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("promo code %q: %w", code, models.ErrPromoInvalid)
		}
		return nil, fmt.Errorf("failed to get promo code %q: %w", code, err)
	}
	return &promo, nil
}

// GetAll retrieves all promo codes.
func (r *GORMPromoRepository) GetAll() ([]models.PromoCode, error) {
	var promos []models.PromoCode
	if err := r.db.Find(&promos).Error; err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	return promos, nil
}

// Create inserts a new promo code.
func (r *GORMPromoRepository) Create(promo *models.PromoCode) error {
	if err := r.db.Create(promo).Error; err != nil {
		return fmt.Errorf("failed to create promo code %q: %w", promo.Code, err)
	}
	return nil
}

// Update updates an existing promo code.
func (r *GORMPromoRepository) Update(promo *models.PromoCode) error {
	res := r.db.Model(promo).Select("*").Omit("created_at").Updates(promo)
	if res.Error != nil {
		return fmt.Errorf("failed to update promo code %q: %w", promo.Code, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("promo code %q: %w", promo.Code, models.ErrPromoInvalid)
	}
	return nil
}
