package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imroytran/telegram-webapp/internal/models"
)

func newTestOrder() *models.Order {
	return &models.Order{
		ID:            "order-1",
		CustomerID:    "cust-1",
		Total:         2000,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentAwaiting,
		StatusHistory: []models.StatusChange{{
			Status:    models.StatusPending,
			Timestamp: time.Now(),
			Comment:   "order created",
		}},
	}
}

func TestOrderStatusFlow(t *testing.T) {
	assert.True(t, models.StatusPending.CanTransitionTo(models.StatusProcessing))
	assert.True(t, models.StatusProcessing.CanTransitionTo(models.StatusShipped))
	assert.True(t, models.StatusShipped.CanTransitionTo(models.StatusCompleted))

	// cancelled is reachable from every non-terminal state
	for _, s := range []models.OrderStatus{models.StatusPending, models.StatusProcessing, models.StatusShipped} {
		assert.True(t, s.CanTransitionTo(models.StatusCancelled), "cancel from %s", s)
	}

	// no skipping ahead
	assert.False(t, models.StatusPending.CanTransitionTo(models.StatusShipped))
	assert.False(t, models.StatusPending.CanTransitionTo(models.StatusCompleted))
	assert.False(t, models.StatusProcessing.CanTransitionTo(models.StatusCompleted))

	// no going back
	assert.False(t, models.StatusProcessing.CanTransitionTo(models.StatusPending))
	assert.False(t, models.StatusShipped.CanTransitionTo(models.StatusProcessing))
}

func TestOrderTerminalStatesRejectAllTransitions(t *testing.T) {
	targets := []models.OrderStatus{
		models.StatusPending, models.StatusProcessing, models.StatusShipped,
		models.StatusCompleted, models.StatusCancelled,
	}
	for _, terminal := range []models.OrderStatus{models.StatusCompleted, models.StatusCancelled} {
		for _, target := range targets {
			order := newTestOrder()
			order.Status = terminal
			historyLen := len(order.StatusHistory)

			err := order.ApplyStatus(target, "", "")
			assert.ErrorIs(t, err, models.ErrInvalidTransition, "%s -> %s", terminal, target)
			assert.Equal(t, terminal, order.Status)
			assert.Len(t, order.StatusHistory, historyLen, "history must be untouched on rejection")
		}
	}
}

func TestOrderApplyStatusAppendsHistory(t *testing.T) {
	order := newTestOrder()

	err := order.ApplyStatus(models.StatusProcessing, "packing started", "admin-7")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, order.Status)
	assert.Len(t, order.StatusHistory, 2)

	last := order.StatusHistory[len(order.StatusHistory)-1]
	assert.Equal(t, models.StatusProcessing, last.Status)
	assert.Equal(t, "packing started", last.Comment)
	assert.Equal(t, "admin-7", last.ChangedBy)
	assert.False(t, last.Timestamp.IsZero())
}

func TestPaymentPaidAutoAdvancesPendingOrder(t *testing.T) {
	order := newTestOrder()

	changed, err := order.ApplyPaymentStatus(models.PaymentPaid, "tx1")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, models.StatusProcessing, order.Status)

	// one synthetic history entry for the auto-advance
	assert.Len(t, order.StatusHistory, 2)
	assert.Equal(t, models.StatusProcessing, order.StatusHistory[1].Status)
	assert.NotEmpty(t, order.StatusHistory[1].Comment)

	assert.Equal(t, "tx1", order.Payment.TransactionID)
	assert.NotNil(t, order.Payment.PaidAt)
	assert.Equal(t, order.Total, order.Payment.Amount)
}

func TestPaymentPaidDoesNotTouchNonPendingStatus(t *testing.T) {
	order := newTestOrder()
	order.Status = models.StatusShipped

	changed, err := order.ApplyPaymentStatus(models.PaymentPaid, "tx1")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusShipped, order.Status)
	assert.Len(t, order.StatusHistory, 1)
}

func TestPaymentDuplicateTerminalIsIdempotent(t *testing.T) {
	order := newTestOrder()

	changed, err := order.ApplyPaymentStatus(models.PaymentPaid, "tx1")
	assert.NoError(t, err)
	assert.True(t, changed)
	paidAt := order.Payment.PaidAt
	historyLen := len(order.StatusHistory)

	changed, err = order.ApplyPaymentStatus(models.PaymentPaid, "tx1")
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, paidAt, order.Payment.PaidAt, "payment details must not be rewritten")
	assert.Len(t, order.StatusHistory, historyLen, "no duplicate history entries")
}

func TestPaymentTerminalStatesRejectDifferentTargets(t *testing.T) {
	order := newTestOrder()
	_, err := order.ApplyPaymentStatus(models.PaymentFailed, "")
	assert.NoError(t, err)

	_, err = order.ApplyPaymentStatus(models.PaymentPaid, "tx1")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, models.PaymentFailed, order.PaymentStatus)

	_, err = order.ApplyPaymentStatus(models.PaymentAwaiting, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition, "re-opening is not supported")
}

func TestInvalidTransitionErrorNamesBothStates(t *testing.T) {
	order := newTestOrder()
	order.Status = models.StatusCompleted

	err := order.ApplyStatus(models.StatusPending, "", "")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))
	assert.Contains(t, err.Error(), string(models.StatusCompleted))
	assert.Contains(t, err.Error(), string(models.StatusPending))
}
