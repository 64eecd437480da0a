package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/imroytran/telegram-webapp/internal/middleware"
	"github.com/imroytran/telegram-webapp/internal/services"
)

// CartHandler handles HTTP requests for the customer cart.
type CartHandler struct {
	cartService *services.CartService
	authService *services.AuthService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, authService *services.AuthService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		authService: authService,
	}
}

// RegisterRoutes registers the cart routes with the Fiber app. All routes
// require a customer token; the cart is keyed by the token's subject.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart", middleware.AuthRequired(h.authService), middleware.CustomerOnly())
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/add", h.HandleAddItem)
	cartRoutes.Put("/items/:index", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items/:index", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/promo", h.HandleApplyPromo)
}

func customerFromCtx(c *fiber.Ctx) (customerID, username string) {
	customerID, _ = c.Locals("actor_id").(string)
	username, _ = c.Locals("username").(string)
	return customerID, username
}

// HandleGetCart returns the customer's cart, creating it on first use.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	customerID, username := customerFromCtx(c)
	cart, err := h.cartService.Get(customerID, username)
	if err != nil {
		log.Printf("Error getting cart for customer %s: %v", customerID, err)
		return fail(c, err, "Could not retrieve cart")
	}
	return c.JSON(cart)
}

// AddItemRequest is the body for adding a product selection to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// HandleAddItem adds a product selection to the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	customerID, username := customerFromCtx(c)
	cart, err := h.cartService.AddItem(customerID, username, req.ProductID, req.Quantity, req.Size, req.Color)
	if err != nil {
		log.Printf("Error adding item to cart for customer %s: %v", customerID, err)
		return fail(c, err, "Could not add item to cart")
	}
	return c.JSON(cart)
}

// QuantityRequest is the body for changing a cart line's quantity.
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleUpdateQuantity changes the quantity of the cart line at :index.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid item index",
		})
	}

	var req QuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	customerID, username := customerFromCtx(c)
	cart, err := h.cartService.UpdateQuantity(customerID, username, index, req.Quantity)
	if err != nil {
		return fail(c, err, "Could not update item quantity")
	}
	return c.JSON(cart)
}

// HandleRemoveItem deletes the cart line at :index.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid item index",
		})
	}

	customerID, username := customerFromCtx(c)
	cart, err := h.cartService.RemoveItem(customerID, username, index)
	if err != nil {
		return fail(c, err, "Could not remove item from cart")
	}
	return c.JSON(cart)
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	customerID, username := customerFromCtx(c)
	cart, err := h.cartService.Clear(customerID, username)
	if err != nil {
		return fail(c, err, "Could not clear cart")
	}
	return c.JSON(cart)
}

// PromoRequest is the body for applying a promo code.
type PromoRequest struct {
	Code string `json:"code"`
}

// HandleApplyPromo applies a promo code to the cart.
func (h *CartHandler) HandleApplyPromo(c *fiber.Ctx) error {
	var req PromoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	customerID, username := customerFromCtx(c)
	cart, err := h.cartService.ApplyPromoCode(customerID, username, req.Code)
	if err != nil {
		return fail(c, err, "Could not apply promo code")
	}
	return c.JSON(cart)
}
