package repositories

import "github.com/imroytran/telegram-webapp/internal/models"

// AdminRepository defines the interface for admin-account data access.
type AdminRepository interface {
	Create(admin *models.Admin) error
	GetByUsername(username string) (*models.Admin, error)
	GetByEmail(email string) (*models.Admin, error)
	GetByID(id string) (*models.Admin, error)
}
