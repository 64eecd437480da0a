package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/repositories"
)

// EventPublisher is the notification hook point. The Order Engine announces
// lifecycle events; actual delivery (Telegram message, email) is an external
// collaborator consuming the exchange.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// Routing keys published to the events exchange.
const (
	eventsExchange      = "store.events"
	EventOrderCreated   = "order.created"
	EventStatusChanged  = "order.status_changed"
	EventPaymentChanged = "order.payment_changed"
)

// CheckoutInfo carries the delivery details collected at checkout.
type CheckoutInfo struct {
	Address        string `json:"address" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	DeliveryMethod string `json:"delivery_method" validate:"omitempty,oneof=courier pickup post"`
	PaymentMethod  string `json:"payment_method" validate:"omitempty,oneof=online cash card_on_delivery"`
	Notes          string `json:"notes"`
}

// ProductSales is one row of the top-products statistic.
type ProductSales struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"total_quantity"`
	Revenue   float64 `json:"total_revenue"`
}

// Statistics aggregates orders over a time window.
type Statistics struct {
	Period      string                     `json:"period"`
	TotalOrders int                        `json:"total_orders"`
	ByStatus    map[models.OrderStatus]int `json:"orders_by_status"`
	Revenue     float64                    `json:"total_revenue"` // paid orders only
	TopProducts []ProductSales             `json:"popular_products"`
}

// topProductsLimit bounds the popular-products statistic.
const topProductsLimit = 5

// OrderService handles the order lifecycle: checkout, the status and payment
// state machines, tracking, cancellation and statistics.
type OrderService struct {
	orders   repositories.OrderRepository
	carts    repositories.CartRepository
	products repositories.ProductRepository
	events   EventPublisher // may be nil; publishing is best-effort
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders repositories.OrderRepository, carts repositories.CartRepository, products repositories.ProductRepository, events EventPublisher) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		products: products,
		events:   events,
	}
}

// GetByID retrieves a single order.
func (s *OrderService) GetByID(id string) (*models.Order, error) {
	return s.orders.GetByID(id)
}

// ListByCustomer retrieves a customer's orders, newest first.
func (s *OrderService) ListByCustomer(customerID string) ([]models.Order, error) {
	return s.orders.GetAll(repositories.OrderFilter{CustomerID: customerID})
}

// List retrieves orders matching the admin filter.
func (s *OrderService) List(filter repositories.OrderFilter) ([]models.Order, error) {
	return s.orders.GetAll(filter)
}

// CreateFromCart converts the customer's cart into an order. Checkout is
// all-or-nothing: every referenced product is re-resolved first, and the
// order insert and cart drain commit atomically. On any failure the cart is
// left untouched.
func (s *OrderService) CreateFromCart(customerID string, info CheckoutInfo) (*models.Order, error) {
	if info.Address == "" || info.Phone == "" {
		return nil, models.ErrMissingDeliveryInfo
	}

	cart, err := s.carts.GetByCustomer(customerID)
	if err != nil {
		if errors.Is(err, models.ErrCartNotFound) {
			return nil, models.ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, models.ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.products.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Orderable() {
			return nil, fmt.Errorf("product %q: %w", product.Title, models.ErrProductUnavailable)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Title:     product.Title,
			Quantity:  item.Quantity,
			Price:     item.Price, // cart price already reflects discounts
			Size:      item.Size,
			Color:     item.Color,
		})
	}

	deliveryMethod := info.DeliveryMethod
	if deliveryMethod == "" {
		deliveryMethod = "courier"
	}
	paymentMethod := info.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "online"
	}

	order := &models.Order{
		ID:             uuid.New().String(),
		CustomerID:     cart.CustomerID,
		Username:       cart.Username,
		Items:          items,
		Total:          cart.Total,
		Address:        info.Address,
		Phone:          info.Phone,
		Email:          info.Email,
		DeliveryMethod: deliveryMethod,
		PaymentMethod:  paymentMethod,
		Notes:          info.Notes,
		Promo:          cart.Promo,
		Status:         models.StatusPending,
		PaymentStatus:  models.PaymentAwaiting,
		StatusHistory: []models.StatusChange{{
			Status:    models.StatusPending,
			Timestamp: time.Now(),
			Comment:   "order created",
		}},
	}

	if err := s.orders.CreateAndDrainCart(order, cart); err != nil {
		return nil, err
	}

	s.publish(EventOrderCreated, map[string]interface{}{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"status":      order.Status,
		"total":       order.Total,
	})
	return order, nil
}

// UpdateStatus performs a fulfillment transition, recording comment and
// actor in the status history.
func (s *OrderService) UpdateStatus(orderID string, status models.OrderStatus, comment, actor string) (*models.Order, error) {
	var oldStatus models.OrderStatus
	order, err := s.withOrder(orderID, func(o *models.Order) error {
		oldStatus = o.Status
		return o.ApplyStatus(status, comment, actor)
	})
	if err != nil {
		return nil, err
	}

	s.publish(EventStatusChanged, map[string]interface{}{
		"order_id": order.ID,
		"old":      oldStatus,
		"new":      order.Status,
		"actor":    actor,
	})
	return order, nil
}

// UpdatePaymentStatus performs a payment transition. Re-applying the same
// terminal status is an idempotent no-op: no history entry, no event, no
// payment-details change.
func (s *OrderService) UpdatePaymentStatus(orderID string, status models.PaymentStatus, transactionID string) (*models.Order, error) {
	var (
		oldPayment models.PaymentStatus
		oldStatus  models.OrderStatus
		changed    bool
	)
	order, err := s.withOrder(orderID, func(o *models.Order) error {
		oldPayment = o.PaymentStatus
		oldStatus = o.Status
		var err error
		changed, err = o.ApplyPaymentStatus(status, transactionID)
		if err != nil {
			return err
		}
		if !changed {
			// Redelivered webhook: nothing to persist, nothing to announce.
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	s.publish(EventPaymentChanged, map[string]interface{}{
		"order_id":       order.ID,
		"old":            oldPayment,
		"new":            order.PaymentStatus,
		"transaction_id": transactionID,
	})
	if order.Status != oldStatus {
		s.publish(EventStatusChanged, map[string]interface{}{
			"order_id": order.ID,
			"old":      oldStatus,
			"new":      order.Status,
			"actor":    "",
		})
	}
	return order, nil
}

// AddTrackingNumber attaches a carrier tracking number and optional delivery
// estimate. An order still in processing is moved to shipped as a side
// effect.
func (s *OrderService) AddTrackingNumber(orderID, trackingNumber string, estimatedDelivery *time.Time, actor string) (*models.Order, error) {
	if trackingNumber == "" {
		return nil, models.ErrMissingTrackingNumber
	}

	var oldStatus models.OrderStatus
	order, err := s.withOrder(orderID, func(o *models.Order) error {
		oldStatus = o.Status
		o.TrackingNumber = trackingNumber
		if estimatedDelivery != nil {
			o.EstimatedDelivery = estimatedDelivery
		}
		if o.Status == models.StatusProcessing {
			return o.ApplyStatus(models.StatusShipped, "tracking number attached", actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if order.Status != oldStatus {
		s.publish(EventStatusChanged, map[string]interface{}{
			"order_id": order.ID,
			"old":      oldStatus,
			"new":      order.Status,
			"actor":    actor,
		})
	}
	return order, nil
}

// Cancel cancels a non-terminal order, recording the reason.
func (s *OrderService) Cancel(orderID, reason, actor string) (*models.Order, error) {
	return s.UpdateStatus(orderID, models.StatusCancelled, reason, actor)
}

// GetStatistics aggregates orders over the given period: day, week (since
// the most recent Sunday), month, year, or anything else for all time.
func (s *OrderService) GetStatistics(period string) (*Statistics, error) {
	orders, err := s.orders.ListCreatedSince(periodStart(period, time.Now()))
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		Period:      period,
		TotalOrders: len(orders),
		ByStatus:    make(map[models.OrderStatus]int),
	}
	sales := make(map[string]*ProductSales)
	for _, order := range orders {
		stats.ByStatus[order.Status]++
		if order.PaymentStatus == models.PaymentPaid {
			stats.Revenue += order.Total
		}
		for _, item := range order.Items {
			entry, ok := sales[item.ProductID]
			if !ok {
				entry = &ProductSales{ProductID: item.ProductID, Title: item.Title}
				sales[item.ProductID] = entry
			}
			entry.Quantity += item.Quantity
			entry.Revenue += item.Price * float64(item.Quantity)
		}
	}

	top := make([]ProductSales, 0, len(sales))
	for _, entry := range sales {
		top = append(top, *entry)
	}
	sort.Slice(top, func(i, j int) bool {
		return top[i].Quantity > top[j].Quantity
	})
	if len(top) > topProductsLimit {
		top = top[:topProductsLimit]
	}
	stats.TopProducts = top
	return stats, nil
}

// periodStart returns the inclusive lower bound of the statistics window.
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "day":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week":
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return dayStart.AddDate(0, 0, -int(now.Weekday()))
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}

// errNoChange signals withOrder that the mutation turned out to be a no-op
// and the order must not be written back.
var errNoChange = errors.New("no change")

// withOrder runs a read-modify-write cycle against one order, retrying a few
// times on optimistic-version conflicts so no transition is lost or applied
// to a stale state.
func (s *OrderService) withOrder(orderID string, fn func(o *models.Order) error) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		order, err := s.orders.GetByID(orderID)
		if err != nil {
			return nil, err
		}
		if err := fn(order); err != nil {
			if errors.Is(err, errNoChange) {
				return order, nil
			}
			return nil, err
		}
		if err := s.orders.Save(order); err == nil {
			return order, nil
		} else if !errors.Is(err, models.ErrConflict) {
			return nil, err
		} else {
			lastErr = err
		}
	}
	return nil, lastErr
}

// publish sends a lifecycle event to the events exchange. Failures are
// logged, never surfaced: notification delivery is best-effort.
func (s *OrderService) publish(routingKey string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Warning: failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.events.Publish(eventsExchange, routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
