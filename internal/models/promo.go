package models

import (
	"time"

	"gorm.io/gorm"
)

// PromoCode is an administrator-managed discount code.
type PromoCode struct {
	Code       string    `json:"code" gorm:"primaryKey;type:varchar(64)" validate:"required,min=3,max=64"`
	Discount   float64   `json:"discount" validate:"gt=0,lte=100"` // percent
	Active     bool      `json:"active"`
	ExpiresAt  time.Time `json:"expires_at" validate:"required"`
	gorm.Model `json:"-"`
}

// Usable reports whether the code may currently be applied to a cart.
func (p *PromoCode) Usable(now time.Time) bool {
	return p.Active && p.ExpiresAt.After(now)
}
