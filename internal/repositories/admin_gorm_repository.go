package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// GORMAdminRepository is a GORM implementation of AdminRepository.
type GORMAdminRepository struct {
	db *gorm.DB
}

// NewGORMAdminRepository creates a new instance of GORMAdminRepository.
func NewGORMAdminRepository(db *gorm.DB) *GORMAdminRepository {
	return &GORMAdminRepository{
		db: db,
	}
}

// Create creates a new admin in the database.
func (r *GORMAdminRepository) Create(admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	if err := r.db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// GetByUsername retrieves an admin by username from the database.
func (r *GORMAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.First(&admin, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("admin with username %s not found", username)
		}
		return nil, fmt.Errorf("failed to get admin by username %s: %w", username, err)
	}
	return &admin, nil
}

// GetByEmail retrieves an admin by email from the database.
func (r *GORMAdminRepository) GetByEmail(email string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.First(&admin, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("admin with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to get admin by email %s: %w", email, err)
	}
	return &admin, nil
}

// GetByID retrieves an admin by ID from the database.
func (r *GORMAdminRepository) GetByID(id string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.First(&admin, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("admin with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get admin by ID %s: %w", id, err)
	}
	return &admin, nil
}
