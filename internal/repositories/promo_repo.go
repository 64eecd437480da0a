package repositories

import (
	"github.com/imroytran/telegram-webapp/internal/models"
)

// PromoRepository defines the interface for promo-code data access.
type PromoRepository interface {
	GetByCode(code string) (*models.PromoCode, error)
	GetAll() ([]models.PromoCode, error)
	Create(promo *models.PromoCode) error
	Update(promo *models.PromoCode) error
}
