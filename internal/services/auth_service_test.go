package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/repositories"
	"github.com/imroytran/telegram-webapp/internal/services"
)

func newAuthFixture(t *testing.T) (*services.AuthService, *repositories.MockAdminRepository) {
	t.Helper()
	repo := repositories.NewMockAdminRepository()
	return services.NewAuthService(repo, "test-jwt-secret"), repo
}

func registeredAdmin(t *testing.T, svc *services.AuthService) *models.Admin {
	t.Helper()
	admin := &models.Admin{
		Username: "store_admin",
		Email:    "admin@store.example",
		Password: "s3cretpass",
	}
	assert.NoError(t, svc.RegisterAdmin(admin))
	return admin
}

func TestRegisterAdmin(t *testing.T) {
	svc, repo := newAuthFixture(t)
	admin := registeredAdmin(t, svc)

	assert.NotEqual(t, "s3cretpass", admin.Password, "password must be stored hashed")
	assert.True(t, admin.Active)
	assert.ElementsMatch(t, []string{
		models.PermManageProducts, models.PermManageOrders, models.PermViewStatistics,
	}, admin.Permissions)

	stored, err := repo.GetByUsername("store_admin")
	assert.NoError(t, err)
	assert.Equal(t, admin.Email, stored.Email)
}

func TestRegisterAdminRejectsDuplicates(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registeredAdmin(t, svc)

	err := svc.RegisterAdmin(&models.Admin{
		Username: "store_admin", Email: "other@store.example", Password: "password",
	})
	assert.Error(t, err)

	err = svc.RegisterAdmin(&models.Admin{
		Username: "other_admin", Email: "admin@store.example", Password: "password",
	})
	assert.Error(t, err)
}

func TestLoginAdmin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registeredAdmin(t, svc)

	token, err := svc.LoginAdmin("store_admin", "s3cretpass")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "store_admin", claims["username"])
	assert.Equal(t, "admin", claims["role"])
}

func TestLoginAdminRejectsBadCredentials(t *testing.T) {
	svc, repo := newAuthFixture(t)
	admin := registeredAdmin(t, svc)

	_, err := svc.LoginAdmin("store_admin", "wrong")
	assert.EqualError(t, err, "invalid credentials")

	_, err = svc.LoginAdmin("nobody", "s3cretpass")
	assert.EqualError(t, err, "invalid credentials", "must not reveal whether the username exists")

	admin.Active = false
	assert.NoError(t, repo.Create(admin)) // overwrite with the deactivated copy
	_, err = svc.LoginAdmin("store_admin", "s3cretpass")
	assert.EqualError(t, err, "invalid credentials")
}

func TestIssueCustomerToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	token, err := svc.IssueCustomerToken("tg-12345", "anna")
	assert.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "tg-12345", claims["sub"])
	assert.Equal(t, "anna", claims["username"])
	assert.Equal(t, "customer", claims["role"])
}

func TestValidateTokenRejectsForgery(t *testing.T) {
	svc, _ := newAuthFixture(t)
	other := services.NewAuthService(repositories.NewMockAdminRepository(), "different-secret")

	token, err := other.IssueCustomerToken("tg-12345", "anna")
	assert.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestAuthorize(t *testing.T) {
	svc, repo := newAuthFixture(t)

	assert.NoError(t, repo.Create(&models.Admin{
		ID: "admin-orders", Username: "orders", Email: "o@store.example",
		Permissions: []string{models.PermManageOrders}, Active: true,
	}))
	assert.NoError(t, repo.Create(&models.Admin{
		ID: "admin-root", Username: "root", Email: "r@store.example",
		Permissions: []string{models.PermAll}, Active: true,
	}))
	assert.NoError(t, repo.Create(&models.Admin{
		ID: "admin-off", Username: "off", Email: "x@store.example",
		Permissions: []string{models.PermAll}, Active: false,
	}))

	assert.True(t, svc.Authorize("admin-orders", models.PermManageOrders))
	assert.False(t, svc.Authorize("admin-orders", models.PermViewStatistics))

	assert.True(t, svc.Authorize("admin-root", models.PermManageOrders))
	assert.True(t, svc.Authorize("admin-root", models.PermViewStatistics))

	assert.False(t, svc.Authorize("admin-off", models.PermManageOrders), "deactivated admins lose all permissions")
	assert.False(t, svc.Authorize("no-such-admin", models.PermManageOrders))
}
