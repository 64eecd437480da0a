package services

import (
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/repositories"
)

// AuthService handles authentication and the single capability check the
// rest of the system relies on. The core never inspects roles itself; it
// receives an already-authorized actor reference for history attribution.
type AuthService struct {
	adminRepo  repositories.AdminRepository
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(adminRepo repositories.AdminRepository, jwtSecret string) *AuthService {
	return &AuthService{
		adminRepo:  adminRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
	}
}

// RegisterAdmin registers a new administrator, hashing their password.
func (s *AuthService) RegisterAdmin(admin *models.Admin) error {
	if existing, err := s.adminRepo.GetByUsername(admin.Username); err == nil && existing != nil {
		return fmt.Errorf("username '%s' already taken", admin.Username)
	}
	if existing, err := s.adminRepo.GetByEmail(admin.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s' already registered", admin.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin.Password = string(hashedPassword)
	admin.Active = true
	if len(admin.Permissions) == 0 {
		admin.Permissions = []string{models.PermManageProducts, models.PermManageOrders, models.PermViewStatistics}
	}

	if err := s.adminRepo.Create(admin); err != nil {
		return fmt.Errorf("failed to register admin: %w", err)
	}
	return nil
}

// LoginAdmin authenticates an administrator and returns a JWT token.
func (s *AuthService) LoginAdmin(username, password string) (string, error) {
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		// Do not reveal whether the username exists.
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}
	if !admin.Active {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      admin.ID,
		"username": admin.Username,
		"role":     "admin",
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// IssueCustomerToken issues a JWT for a storefront customer. Verification of
// the Telegram init data happens in the web-app collaborator before this is
// called.
func (s *AuthService) IssueCustomerToken(customerID, username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      customerID,
		"username": username,
		"role":     "customer",
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// Authorize reports whether the admin identified by adminID may perform the
// given action.
func (s *AuthService) Authorize(adminID, action string) bool {
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return false
	}
	return admin.Can(action)
}
