package repositories

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// MockAdminRepository is an in-memory implementation of AdminRepository.
type MockAdminRepository struct {
	admins map[string]models.Admin
	mu     sync.RWMutex
}

// NewMockAdminRepository creates a new instance of MockAdminRepository.
func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{
		admins: make(map[string]models.Admin),
	}
}

// Create adds a new admin account.
func (r *MockAdminRepository) Create(admin *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	r.admins[admin.ID] = *admin
	return nil
}

// GetByUsername returns the admin with the given username.
func (r *MockAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, admin := range r.admins {
		if admin.Username == username {
			a := admin
			return &a, nil
		}
	}
	return nil, fmt.Errorf("admin with username %q not found", username)
}

// GetByEmail returns the admin with the given email.
func (r *MockAdminRepository) GetByEmail(email string) (*models.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, admin := range r.admins {
		if admin.Email == email {
			a := admin
			return &a, nil
		}
	}
	return nil, fmt.Errorf("admin with email %q not found", email)
}

// GetByID returns the admin with the given id.
func (r *MockAdminRepository) GetByID(id string) (*models.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[id]
	if !ok {
		return nil, fmt.Errorf("admin %s not found", id)
	}
	return &admin, nil
}
