package models

import "gorm.io/gorm"

// Administrator permissions. An admin holding PermAll may perform any action.
const (
	PermAll            = "*"
	PermManageProducts = "manage_products"
	PermManageOrders   = "manage_orders"
	PermViewStatistics = "view_statistics"
)

// Admin represents a store administrator with web-app access.
type Admin struct {
	ID          string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username    string   `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email       string   `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password    string   `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Permissions []string `json:"permissions" gorm:"serializer:json"`
	Active      bool     `json:"active"`
	gorm.Model  `json:"-"`
}

// Can reports whether the admin holds the given permission.
func (a *Admin) Can(action string) bool {
	if !a.Active {
		return false
	}
	for _, p := range a.Permissions {
		if p == PermAll || p == action {
			return true
		}
	}
	return false
}
