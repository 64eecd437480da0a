package handlers

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/imroytran/telegram-webapp/internal/middleware"
	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/repositories"
	"github.com/imroytran/telegram-webapp/internal/services"
)

// PromoHandler handles admin management of promo codes.
type PromoHandler struct {
	promos      repositories.PromoRepository
	authService *services.AuthService
	validate    *validator.Validate
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(promos repositories.PromoRepository, authService *services.AuthService) *PromoHandler {
	return &PromoHandler{
		promos:      promos,
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the promo routes with the Fiber app.
func (h *PromoHandler) RegisterRoutes(router fiber.Router) {
	promoRoutes := router.Group("/admin/promos", middleware.AuthRequired(h.authService), middleware.AdminRequired(h.authService, models.PermManageProducts))
	promoRoutes.Get("/", h.HandleListPromos)
	promoRoutes.Post("/", h.HandleCreatePromo)
	promoRoutes.Delete("/:code", h.HandleDeactivatePromo)
}

// HandleListPromos lists all promo codes.
func (h *PromoHandler) HandleListPromos(c *fiber.Ctx) error {
	promos, err := h.promos.GetAll()
	if err != nil {
		return fail(c, err, "Could not retrieve promo codes")
	}
	return c.JSON(promos)
}

// HandleCreatePromo creates a new promo code.
func (h *PromoHandler) HandleCreatePromo(c *fiber.Ctx) error {
	var promo models.PromoCode
	if err := c.BodyParser(&promo); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(promo); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	promo.Active = true
	if err := h.promos.Create(&promo); err != nil {
		log.Printf("Error creating promo code %q: %v", promo.Code, err)
		return fail(c, err, "Could not create promo code")
	}
	return c.Status(fiber.StatusCreated).JSON(promo)
}

// HandleDeactivatePromo deactivates a promo code. Carts that already applied
// it keep their snapshot until it expires.
func (h *PromoHandler) HandleDeactivatePromo(c *fiber.Ctx) error {
	code := c.Params("code")
	promo, err := h.promos.GetByCode(code)
	if err != nil {
		return fail(c, err, fmt.Sprintf("Promo code %q not found", code))
	}

	promo.Active = false
	if err := h.promos.Update(promo); err != nil {
		return fail(c, err, "Could not deactivate promo code")
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Promo code %q deactivated", code),
	})
}
