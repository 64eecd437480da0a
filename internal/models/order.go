package models

import (
	"fmt"
	"time"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// statusFlow defines the legal fulfillment transitions. completed and
// cancelled are terminal; nothing leaves them.
var statusFlow = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// IsTerminal reports whether the fulfillment status admits no further
// transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether moving to next is legal from s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusFlow[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is the payment state of an order. paid and failed are
// terminal; re-opening to awaiting is not supported.
type PaymentStatus string

const (
	PaymentAwaiting PaymentStatus = "awaiting"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
)

// IsTerminal reports whether the payment status admits no further changes.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentPaid || s == PaymentFailed
}

// OrderItem is an immutable line snapshot taken at checkout. It carries the
// product title and unit price as they were, so later product edits or
// deletions do not affect the order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
}

// StatusChange is one append-only history entry.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Comment   string      `json:"comment,omitempty"`
	ChangedBy string      `json:"changed_by,omitempty"`
}

// PaymentDetails records the applied payment confirmation.
type PaymentDetails struct {
	TransactionID string     `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Amount        float64    `json:"amount,omitempty"`
}

// Order is an immutable snapshot of a drained cart plus delivery info. Only
// status, payment and tracking fields change after creation, and only through
// the state-machine methods below. Orders are never deleted; the status
// history is the audit trail.
type Order struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID        string          `json:"customer_id" gorm:"index;type:varchar(64)"`
	Username          string          `json:"username"`
	Items             []OrderItem     `json:"items" gorm:"serializer:json"`
	Total             float64         `json:"total"`
	Address           string          `json:"address"`
	Phone             string          `json:"phone"`
	Email             string          `json:"email,omitempty"`
	DeliveryMethod    string          `json:"delivery_method"` // courier|pickup|post
	PaymentMethod     string          `json:"payment_method"`  // online|cash|card_on_delivery
	Status            OrderStatus     `json:"status" gorm:"index;type:varchar(20)"`
	PaymentStatus     PaymentStatus   `json:"payment_status" gorm:"index;type:varchar(20)"`
	Payment           PaymentDetails  `json:"payment_details" gorm:"serializer:json"`
	Notes             string          `json:"notes,omitempty"`
	Promo             *AppliedPromo   `json:"promo_code,omitempty" gorm:"serializer:json"`
	StatusHistory     []StatusChange  `json:"status_history" gorm:"serializer:json"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery_date,omitempty"`
	Version           int64           `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ApplyStatus validates and performs a fulfillment transition, appending a
// history entry. The caller persists the order afterwards.
func (o *Order) ApplyStatus(next OrderStatus, comment, actor string) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: order %s is %q, cannot move to %q", ErrInvalidTransition, o.ID, o.Status, next)
	}
	o.Status = next
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status:    next,
		Timestamp: time.Now(),
		Comment:   comment,
		ChangedBy: actor,
	})
	return nil
}

// ApplyPaymentStatus validates and performs a payment transition. Reaching
// the same terminal status again is an idempotent no-op (payment webhooks
// are redelivered), reported via changed=false with no mutation at all.
// Transitioning to paid records the transaction and, if the order is still
// pending, auto-advances it to processing with a synthetic history entry.
func (o *Order) ApplyPaymentStatus(next PaymentStatus, transactionID string) (changed bool, err error) {
	if o.PaymentStatus == next {
		if next.IsTerminal() {
			return false, nil
		}
		return false, fmt.Errorf("%w: payment status is already %q", ErrInvalidTransition, o.PaymentStatus)
	}
	if o.PaymentStatus.IsTerminal() {
		return false, fmt.Errorf("%w: payment status %q is terminal, cannot move to %q", ErrInvalidTransition, o.PaymentStatus, next)
	}
	if next != PaymentPaid && next != PaymentFailed {
		return false, fmt.Errorf("%w: payment status cannot move back to %q", ErrInvalidTransition, next)
	}

	o.PaymentStatus = next

	if next == PaymentPaid {
		now := time.Now()
		o.Payment.TransactionID = transactionID
		o.Payment.PaidAt = &now
		o.Payment.Amount = o.Total

		if o.Status == StatusPending {
			// The single coupling point between the two machines.
			if err := o.ApplyStatus(StatusProcessing, "automatic status update after payment", ""); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}
