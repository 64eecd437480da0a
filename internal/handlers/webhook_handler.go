package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/services"
)

// WebhookHandler receives callbacks from external systems: the payment
// provider and the delivery service. These endpoints are unauthenticated;
// trust comes from the signature check inside the payment service.
type WebhookHandler struct {
	paymentService *services.PaymentService
	orderService   *services.OrderService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(paymentService *services.PaymentService, orderService *services.OrderService) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
		orderService:   orderService,
	}
}

// RegisterRoutes registers the webhook routes with the Fiber app.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	webhookRoutes := router.Group("/webhooks")
	webhookRoutes.Post("/yoomoney", h.HandlePaymentNotification)
	webhookRoutes.Post("/delivery", h.HandleDeliveryNotification)
}

// HandlePaymentNotification processes a YooMoney payment notification. The
// provider expects a plain-text acknowledgment; any rejection is an HTTP
// error status so the provider retries.
func (h *WebhookHandler) HandlePaymentNotification(c *fiber.Ctx) error {
	var notification services.PaymentNotification
	if err := c.BodyParser(&notification); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid notification body")
	}

	order, err := h.paymentService.Process(notification)
	if err != nil {
		log.Printf("YooMoney webhook rejected: %v", err)
		switch {
		case errors.Is(err, models.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).SendString("Order not found")
		case errors.Is(err, models.ErrWrongNotificationType):
			return c.Status(fiber.StatusBadRequest).SendString("Wrong notification type")
		case errors.Is(err, models.ErrMalformedNotification):
			return c.Status(fiber.StatusBadRequest).SendString("Malformed notification")
		case errors.Is(err, models.ErrInvalidSignature):
			return c.Status(fiber.StatusBadRequest).SendString("Invalid signature")
		case errors.Is(err, models.ErrInsufficientAmount):
			return c.Status(fiber.StatusBadRequest).SendString("Payment amount is less than order total")
		default:
			return c.Status(fiber.StatusInternalServerError).SendString("Internal error")
		}
	}

	log.Printf("YooMoney webhook: order %s marked as paid", order.ID)
	return c.SendString("OK")
}

// DeliveryNotification is the payload posted by the delivery service.
type DeliveryNotification struct {
	OrderID               string `json:"order_id" form:"order_id"`
	Status                string `json:"status" form:"status"`
	TrackingNumber        string `json:"tracking_number" form:"tracking_number"`
	EstimatedDeliveryDate string `json:"estimated_delivery_date" form:"estimated_delivery_date"`
	Message               string `json:"message" form:"message"`
}

// HandleDeliveryNotification maps delivery-service callbacks onto order
// transitions. Updates that would violate the state machine (e.g. a carrier
// event for a cancelled order) are rejected.
func (h *WebhookHandler) HandleDeliveryNotification(c *fiber.Ctx) error {
	var n DeliveryNotification
	if err := c.BodyParser(&n); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid notification body")
	}

	var err error
	switch n.Status {
	case "processing":
		_, err = h.orderService.UpdateStatus(n.OrderID, models.StatusProcessing, "updated by delivery service", "")
	case "shipped":
		_, err = h.orderService.UpdateStatus(n.OrderID, models.StatusShipped, "shipped by delivery service", "")
		if err == nil && n.TrackingNumber != "" {
			var eta *time.Time
			if parsed, parseErr := time.Parse(time.RFC3339, n.EstimatedDeliveryDate); parseErr == nil {
				eta = &parsed
			}
			_, err = h.orderService.AddTrackingNumber(n.OrderID, n.TrackingNumber, eta, "")
		}
	case "delivered":
		_, err = h.orderService.UpdateStatus(n.OrderID, models.StatusCompleted, "delivered to recipient", "")
	case "failed":
		_, err = h.orderService.UpdateStatus(n.OrderID, models.StatusProcessing, "delivery problem: "+n.Message, "")
	default:
		return c.Status(fiber.StatusBadRequest).SendString("Unknown delivery status")
	}

	if err != nil {
		log.Printf("Delivery webhook for order %s rejected: %v", n.OrderID, err)
		return fail(c, err, "Could not apply delivery update")
	}
	return c.SendString("OK")
}
