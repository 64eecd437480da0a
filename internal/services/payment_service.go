package services

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// incomingTransferType is the only YooMoney notification type we accept.
const incomingTransferType = "p2p-incoming"

// orderLabelPrefix marks the payment label carrying our order reference.
const orderLabelPrefix = "order_"

// PaymentNotification is the untrusted payload delivered by the payment
// provider's webhook.
type PaymentNotification struct {
	NotificationType string `json:"notification_type" form:"notification_type"`
	OperationID      string `json:"operation_id" form:"operation_id"`
	Amount           string `json:"amount" form:"amount"`
	Currency         string `json:"currency" form:"currency"`
	Datetime         string `json:"datetime" form:"datetime"`
	Sender           string `json:"sender" form:"sender"`
	Codepro          string `json:"codepro" form:"codepro"`
	Label            string `json:"label" form:"label"`
	SHA1Hash         string `json:"sha1_hash" form:"sha1_hash"`
}

// PaymentService turns inbound payment notifications into trusted payment
// state transitions. Every check must pass before any order state changes;
// rejections never mutate anything.
type PaymentService struct {
	orders *OrderService
	secret string
}

// NewPaymentService creates a new PaymentService. secret is the shared
// notification secret configured in the provider's dashboard.
func NewPaymentService(orders *OrderService, secret string) *PaymentService {
	return &PaymentService{
		orders: orders,
		secret: secret,
	}
}

// Process verifies the notification and, if everything checks out, marks the
// referenced order as paid. Redelivered notifications for an already-paid
// order succeed without applying anything twice.
func (s *PaymentService) Process(n PaymentNotification) (*models.Order, error) {
	if n.NotificationType != incomingTransferType {
		return nil, fmt.Errorf("%w: %q", models.ErrWrongNotificationType, n.NotificationType)
	}

	expected := s.digest(n)
	provided := strings.ToLower(n.SHA1Hash)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
		return nil, models.ErrInvalidSignature
	}

	orderID := strings.TrimPrefix(n.Label, orderLabelPrefix)
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	amount, err := strconv.ParseFloat(n.Amount, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable amount %q", models.ErrMalformedNotification, n.Amount)
	}
	if amount < order.Total {
		return nil, fmt.Errorf("%w: got %.2f, order total is %.2f", models.ErrInsufficientAmount, amount, order.Total)
	}

	return s.orders.UpdatePaymentStatus(order.ID, models.PaymentPaid, n.OperationID)
}

// digest computes the provider's SHA1 check string: the notification fields
// joined with '&', with the shared secret spliced in before the label.
func (s *PaymentService) digest(n PaymentNotification) string {
	check := strings.Join([]string{
		n.NotificationType,
		n.OperationID,
		n.Amount,
		n.Currency,
		n.Datetime,
		n.Sender,
		n.Codepro,
		s.secret,
		n.Label,
	}, "&")
	sum := sha1.Sum([]byte(check))
	return hex.EncodeToString(sum[:])
}
