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

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	catalog     *services.CatalogService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalog *services.CatalogService, authService *services.AuthService) *ProductHandler {
	return &ProductHandler{
		catalog:     catalog,
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app. The
// storefront routes are public and see only active products; everything else
// requires the manage_products permission.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)

	admin := productRoutes.Group("", middleware.AuthRequired(h.authService), middleware.AdminRequired(h.authService, models.PermManageProducts))
	admin.Post("/", h.HandleCreateProduct)
	admin.Put("/:id", h.HandleUpdateProduct)
	admin.Delete("/:id", h.HandleDeleteProduct)

	adminList := router.Group("/admin/products", middleware.AuthRequired(h.authService), middleware.AdminRequired(h.authService, models.PermManageProducts))
	adminList.Get("/", h.HandleListAllProducts)
	adminList.Get("/:id", h.HandleGetAnyProduct)
}

// HandleListProducts retrieves catalog products for the storefront. Inactive
// products are never listed here; administrators use /admin/products.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Category:    c.Query("category"),
		ActiveOnly:  true,
		InStockOnly: c.QueryBool("in_stock"),
	}

	products, err := h.catalog.List(filter)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return fail(c, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetProduct retrieves a single product and counts the storefront view.
// Inactive products are indistinguishable from missing ones.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.catalog.Get(productID)
	if err != nil {
		return fail(c, err, fmt.Sprintf("Could not retrieve product %s", productID))
	}
	if !product.Active {
		return fail(c, models.ErrProductNotFound, fmt.Sprintf("Could not retrieve product %s", productID))
	}

	h.catalog.CountView(productID)
	return c.JSON(product)
}

// HandleListAllProducts retrieves the full catalog for administrators,
// including inactive products.
func (h *ProductHandler) HandleListAllProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Category:    c.Query("category"),
		InStockOnly: c.QueryBool("in_stock"),
	}

	products, err := h.catalog.List(filter)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return fail(c, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetAnyProduct retrieves a single product for administrators, without
// the storefront visibility filter and without counting a view.
func (h *ProductHandler) HandleGetAnyProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.catalog.Get(productID)
	if err != nil {
		return fail(c, err, fmt.Sprintf("Could not retrieve product %s", productID))
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new catalog product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(product); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	if actor, ok := c.Locals("actor_id").(string); ok {
		product.CreatedBy = actor
	}
	if err := h.catalog.Create(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return fail(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = c.Params("id")

	if err := h.validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	if err := h.catalog.Update(&product); err != nil {
		log.Printf("Error updating product %s: %v", product.ID, err)
		return fail(c, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product from the catalog.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.catalog.Delete(productID); err != nil {
		log.Printf("Error deleting product %s: %v", productID, err)
		return fail(c, err, "Could not delete product")
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", productID),
	})
}
