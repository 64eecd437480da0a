package services_test

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/services"
)

const webhookSecret = "test-notification-secret"

// sign fills in the sha1_hash the way the provider computes it.
func sign(n services.PaymentNotification, secret string) services.PaymentNotification {
	check := strings.Join([]string{
		n.NotificationType,
		n.OperationID,
		n.Amount,
		n.Currency,
		n.Datetime,
		n.Sender,
		n.Codepro,
		secret,
		n.Label,
	}, "&")
	sum := sha1.Sum([]byte(check))
	n.SHA1Hash = hex.EncodeToString(sum[:])
	return n
}

func paidNotification(orderID, amount string) services.PaymentNotification {
	return sign(services.PaymentNotification{
		NotificationType: "p2p-incoming",
		OperationID:      "op-42",
		Amount:           amount,
		Currency:         "643",
		Datetime:         "2025-06-01T12:00:00Z",
		Sender:           "41001000040",
		Codepro:          "false",
		Label:            "order_" + orderID,
	}, webhookSecret)
}

func newPaymentFixture(t *testing.T) (*services.PaymentService, *orderFixture, *models.Order) {
	t.Helper()
	f := newOrderFixture(t)
	f.seedCart(t)
	order, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)
	return services.NewPaymentService(f.svc, webhookSecret), f, order
}

func TestProcessRejectsWrongNotificationType(t *testing.T) {
	svc, f, order := newPaymentFixture(t)

	n := paidNotification(order.ID, "2000.00")
	n.NotificationType = "card-incoming"
	_, err := svc.Process(n)
	assert.ErrorIs(t, err, models.ErrWrongNotificationType)

	stored, err := f.svc.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentAwaiting, stored.PaymentStatus)
}

func TestProcessRejectsBadSignature(t *testing.T) {
	svc, f, order := newPaymentFixture(t)

	n := paidNotification(order.ID, "2000.00")
	n.Amount = "9999.00" // tampered after signing
	_, err := svc.Process(n)
	assert.ErrorIs(t, err, models.ErrInvalidSignature)

	n = paidNotification(order.ID, "2000.00")
	n.SHA1Hash = "deadbeef"
	_, err = svc.Process(n)
	assert.ErrorIs(t, err, models.ErrInvalidSignature)

	stored, err := f.svc.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentAwaiting, stored.PaymentStatus)
}

func TestProcessAcceptsUppercaseSignature(t *testing.T) {
	svc, _, order := newPaymentFixture(t)

	n := paidNotification(order.ID, "2000.00")
	n.SHA1Hash = strings.ToUpper(n.SHA1Hash)
	updated, err := svc.Process(n)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
}

func TestProcessRejectsUnknownOrder(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)

	_, err := svc.Process(paidNotification("no-such-order", "2000.00"))
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestProcessRejectsInsufficientAmount(t *testing.T) {
	svc, f, order := newPaymentFixture(t)

	_, err := svc.Process(paidNotification(order.ID, "1999.00"))
	assert.ErrorIs(t, err, models.ErrInsufficientAmount)

	// a rejected payment leaves the order exactly as it was
	stored, err := f.svc.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentAwaiting, stored.PaymentStatus)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, stored.Payment.TransactionID)
}

func TestProcessRejectsUnparseableAmount(t *testing.T) {
	svc, f, order := newPaymentFixture(t)

	_, err := svc.Process(paidNotification(order.ID, "not-a-number"))
	assert.ErrorIs(t, err, models.ErrMalformedNotification)
	assert.NotErrorIs(t, err, models.ErrInsufficientAmount)

	stored, err := f.svc.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentAwaiting, stored.PaymentStatus)
}

func TestProcessMarksOrderPaid(t *testing.T) {
	svc, _, order := newPaymentFixture(t)

	updated, err := svc.Process(paidNotification(order.ID, "2000.00"))
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, models.StatusProcessing, updated.Status)
	assert.Equal(t, "op-42", updated.Payment.TransactionID)
	assert.NotNil(t, updated.Payment.PaidAt)
	assert.InDelta(t, 2000, updated.Payment.Amount, 0.001)
}

func TestProcessOverpaymentIsAccepted(t *testing.T) {
	svc, _, order := newPaymentFixture(t)

	updated, err := svc.Process(paidNotification(order.ID, "2500.00"))
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
}

func TestProcessRedeliveryIsIdempotent(t *testing.T) {
	svc, _, order := newPaymentFixture(t)

	first, err := svc.Process(paidNotification(order.ID, "2000.00"))
	assert.NoError(t, err)

	second, err := svc.Process(paidNotification(order.ID, "2000.00"))
	assert.NoError(t, err)
	assert.Equal(t, first.Version, second.Version)
	assert.Len(t, second.StatusHistory, len(first.StatusHistory))
	assert.Equal(t, first.Payment.PaidAt, second.Payment.PaidAt)
}
