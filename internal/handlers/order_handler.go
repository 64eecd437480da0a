package handlers

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/imroytran/telegram-webapp/internal/middleware"
	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/repositories"
	"github.com/imroytran/telegram-webapp/internal/services"
)

// OrderHandler handles HTTP requests for orders, both the customer surface
// (checkout, own orders, cancellation) and the admin surface (listing,
// status management, tracking, statistics).
type OrderHandler struct {
	orderService *services.OrderService
	authService  *services.AuthService
	validate     *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService, authService *services.AuthService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		authService:  authService,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orders := router.Group("/orders", middleware.AuthRequired(h.authService), middleware.CustomerOnly())
	orders.Post("/", h.HandleCheckout)
	orders.Get("/", h.HandleListOwnOrders)
	orders.Get("/:id", h.HandleGetOwnOrder)
	orders.Post("/:id/cancel", h.HandleCancelOwnOrder)

	admin := router.Group("/admin/orders", middleware.AuthRequired(h.authService), middleware.AdminRequired(h.authService, models.PermManageOrders))
	admin.Get("/", h.HandleListOrders)
	admin.Get("/statistics", middleware.AdminRequired(h.authService, models.PermViewStatistics), h.HandleStatistics)
	admin.Get("/:id", h.HandleGetOrder)
	admin.Patch("/:id/status", h.HandleUpdateStatus)
	admin.Patch("/:id/payment", h.HandleUpdatePaymentStatus)
	admin.Post("/:id/tracking", h.HandleAddTracking)
}

// HandleCheckout converts the customer's cart into an order.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var info services.CheckoutInfo
	if err := c.BodyParser(&info); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(info); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Delivery address and phone are required",
			"error":   err.Error(),
		})
	}

	customerID, _ := c.Locals("actor_id").(string)
	order, err := h.orderService.CreateFromCart(customerID, info)
	if err != nil {
		log.Printf("Error creating order for customer %s: %v", customerID, err)
		return fail(c, err, "Could not create order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleListOwnOrders lists the authenticated customer's orders.
func (h *OrderHandler) HandleListOwnOrders(c *fiber.Ctx) error {
	customerID, _ := c.Locals("actor_id").(string)
	orders, err := h.orderService.ListByCustomer(customerID)
	if err != nil {
		return fail(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOwnOrder returns one of the customer's own orders.
func (h *OrderHandler) HandleGetOwnOrder(c *fiber.Ctx) error {
	customerID, _ := c.Locals("actor_id").(string)
	order, err := h.orderService.GetByID(c.Params("id"))
	if err != nil {
		return fail(c, err, "Could not retrieve order")
	}
	if order.CustomerID != customerID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	}
	return c.JSON(order)
}

// CancelRequest carries the customer's cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// HandleCancelOwnOrder cancels one of the customer's own orders.
func (h *OrderHandler) HandleCancelOwnOrder(c *fiber.Ctx) error {
	customerID, _ := c.Locals("actor_id").(string)
	order, err := h.orderService.GetByID(c.Params("id"))
	if err != nil {
		return fail(c, err, "Could not retrieve order")
	}
	if order.CustomerID != customerID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	}

	var req CancelRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	cancelled, err := h.orderService.Cancel(order.ID, req.Reason, customerID)
	if err != nil {
		return fail(c, err, "Could not cancel order")
	}
	return c.JSON(cancelled)
}

// HandleListOrders lists orders for administrators, filterable by status and
// payment status.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	filter := repositories.OrderFilter{
		CustomerID:    c.Query("customer_id"),
		Status:        models.OrderStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
	}
	orders, err := h.orderService.List(filter)
	if err != nil {
		return fail(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrder returns any order for administrators.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.orderService.GetByID(c.Params("id"))
	if err != nil {
		return fail(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// StatusRequest is the body for a fulfillment status change.
type StatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Comment string `json:"comment"`
}

// HandleUpdateStatus performs an admin fulfillment transition. Invalid
// transitions report the order's current status and the attempted target.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required",
		})
	}

	actor, _ := c.Locals("actor_id").(string)
	order, err := h.orderService.UpdateStatus(c.Params("id"), models.OrderStatus(req.Status), req.Comment, actor)
	if err != nil {
		return fail(c, err, "Could not update order status")
	}
	return c.JSON(order)
}

// PaymentStatusRequest is the body for an admin payment-status change.
type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
	TransactionID string `json:"transaction_id"`
}

// HandleUpdatePaymentStatus performs an admin payment transition (e.g.
// marking a cash-on-delivery order as paid).
func (h *OrderHandler) HandleUpdatePaymentStatus(c *fiber.Ctx) error {
	var req PaymentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Payment status is required",
		})
	}

	order, err := h.orderService.UpdatePaymentStatus(c.Params("id"), models.PaymentStatus(req.PaymentStatus), req.TransactionID)
	if err != nil {
		return fail(c, err, "Could not update payment status")
	}
	return c.JSON(order)
}

// TrackingRequest is the body for attaching a tracking number.
type TrackingRequest struct {
	TrackingNumber    string     `json:"tracking_number" validate:"required"`
	EstimatedDelivery *time.Time `json:"estimated_delivery_date"`
}

// HandleAddTracking attaches a tracking number; a processing order moves to
// shipped as a side effect.
func (h *OrderHandler) HandleAddTracking(c *fiber.Ctx) error {
	var req TrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	actor, _ := c.Locals("actor_id").(string)
	order, err := h.orderService.AddTrackingNumber(c.Params("id"), req.TrackingNumber, req.EstimatedDelivery, actor)
	if err != nil {
		return fail(c, err, "Could not add tracking number")
	}
	return c.JSON(order)
}

// HandleStatistics aggregates order statistics over a period
// (day|week|month|year|all).
func (h *OrderHandler) HandleStatistics(c *fiber.Ctx) error {
	period := c.Query("period", "month")
	stats, err := h.orderService.GetStatistics(period)
	if err != nil {
		return fail(c, err, "Could not compute statistics")
	}
	return c.JSON(stats)
}
