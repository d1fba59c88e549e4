package orderControllers

import (
	"context"
	"sync"
	"testing"

	"github.com/sanjayhona/agrimart-api/apperrors"
	"github.com/sanjayhona/agrimart-api/models"
	"github.com/sanjayhona/agrimart-api/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPendingOrder(t *testing.T, db *gorm.DB, userID string, total float64) models.Order {
	t.Helper()
	order := models.Order{
		OrderRef:       "ref-" + userID,
		UserID:         userID,
		TotalAmount:    total,
		Status:         models.OrderStatusPending,
		ReceiptKey:     "order_ref-" + userID,
		RemoteOrderRef: "rzp_order_" + userID,
		Payment:        models.Payment{Status: models.PaymentStatusPending, Currency: "INR"},
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func capturedPayment(id string, amount float64) payment.RemotePayment {
	return payment.RemotePayment{
		ID:       id,
		Status:   payment.StatusCaptured,
		Amount:   amount,
		Method:   "upi",
		Currency: "INR",
	}
}

func orderStatus(t *testing.T, db *gorm.DB, id uint) models.OrderStatus {
	t.Helper()
	var order models.Order
	require.NoError(t, db.First(&order, id).Error)
	return order.Status
}

func TestConfirmOrder_Captured(t *testing.T) {
	db := newTestDB(t)
	order := seedPendingOrder(t, db, "user-1", 250)

	gw := &fakeGateway{fetchPaymentFn: func(id string) (payment.RemotePayment, error) {
		return capturedPayment(id, 250), nil
	}}

	result, err := ConfirmOrder(context.Background(), db, gw, order.OrderRef, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, result.Status)
	assert.Equal(t, "pay_123", result.Payment.RemotePaymentID)
	assert.Equal(t, models.PaymentStatusCompleted, result.Payment.Status)
	assert.Equal(t, 250.0, result.Payment.Amount)
}

func TestConfirmOrder_NotCaptured(t *testing.T) {
	db := newTestDB(t)
	order := seedPendingOrder(t, db, "user-1", 250)

	gw := &fakeGateway{fetchPaymentFn: func(id string) (payment.RemotePayment, error) {
		return payment.RemotePayment{ID: id, Status: "authorized"}, nil
	}}

	_, err := ConfirmOrder(context.Background(), db, gw, order.OrderRef, "pay_123")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindPaymentNotCaptured))

	// Order untouched and retryable
	assert.Equal(t, models.OrderStatusPending, orderStatus(t, db, order.ID))
}

func TestConfirmOrder_UnknownOrder(t *testing.T) {
	db := newTestDB(t)

	_, err := ConfirmOrder(context.Background(), db, &fakeGateway{}, "missing-ref", "pay_123")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestConfirmOrder_ReplayIsSuccess(t *testing.T) {
	db := newTestDB(t)
	order := seedPendingOrder(t, db, "user-1", 250)

	gw := &fakeGateway{fetchPaymentFn: func(id string) (payment.RemotePayment, error) {
		return capturedPayment(id, 250), nil
	}}

	_, err := ConfirmOrder(context.Background(), db, gw, order.OrderRef, "pay_123")
	require.NoError(t, err)

	// A second confirm for the same payment is a no-op success, not an error.
	result, err := ConfirmOrder(context.Background(), db, gw, order.OrderRef, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, result.Status)
}

func TestApplyCapture_Idempotent(t *testing.T) {
	db := newTestDB(t)
	order := seedPendingOrder(t, db, "user-1", 250)
	remote := capturedPayment("pay_123", 250)

	committed, err := ApplyCapture(db, remote, order.RemoteOrderRef)
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, models.OrderStatusProcessing, orderStatus(t, db, order.ID))

	// Identical redelivery: same final state, no second mutation.
	committed, err = ApplyCapture(db, remote, order.RemoteOrderRef)
	require.NoError(t, err)
	assert.False(t, committed)
	assert.Equal(t, models.OrderStatusProcessing, orderStatus(t, db, order.ID))
}

func TestApplyCapture_UnknownOrderIsNoop(t *testing.T) {
	db := newTestDB(t)

	committed, err := ApplyCapture(db, capturedPayment("pay_999", 10), "rzp_order_unknown")
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestApplyCapture_FindsOrderByPaymentID(t *testing.T) {
	db := newTestDB(t)
	order := seedPendingOrder(t, db, "user-1", 250)

	// Confirm recorded the payment id but lost the race to commit? Here we
	// just pre-store the id and deliver a webhook without the intent ref.
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_remote_payment_id", "pay_123").Error)

	committed, err := ApplyCapture(db, capturedPayment("pay_123", 250), "")
	require.NoError(t, err)
	assert.True(t, committed)
}

func TestApplyFailure_PendingToFailed(t *testing.T) {
	db := newTestDB(t)
	order := seedPendingOrder(t, db, "user-1", 250)

	remote := payment.RemotePayment{ID: "pay_123", Status: payment.StatusFailed}
	committed, err := ApplyFailure(db, remote, order.RemoteOrderRef)
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, models.OrderStatusFailed, orderStatus(t, db, order.ID))

	// A late capture for a failed order is a no-op, never a resurrection.
	committed, err = ApplyCapture(db, capturedPayment("pay_123", 250), order.RemoteOrderRef)
	require.NoError(t, err)
	assert.False(t, committed)
	assert.Equal(t, models.OrderStatusFailed, orderStatus(t, db, order.ID))
}

func TestConfirmAndWebhookRace_ExactlyOneTransition(t *testing.T) {
	db := newTestDB(t)
	order := seedPendingOrder(t, db, "user-1", 250)
	remote := capturedPayment("pay_123", 250)

	gw := &fakeGateway{fetchPaymentFn: func(id string) (payment.RemotePayment, error) {
		return capturedPayment(id, 250), nil
	}}

	var wg sync.WaitGroup
	webhookCommits := make(chan bool, 2)
	confirmErrs := make(chan error, 1)

	wg.Add(3)
	go func() {
		defer wg.Done()
		_, err := ConfirmOrder(context.Background(), db, gw, order.OrderRef, "pay_123")
		confirmErrs <- err
	}()
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			committed, err := ApplyCapture(db, remote, order.RemoteOrderRef)
			assert.NoError(t, err)
			webhookCommits <- committed
		}()
	}
	wg.Wait()
	close(webhookCommits)

	// Both callers observe success
	require.NoError(t, <-confirmErrs)

	// At most one webhook delivery committed the edge, and the order ended
	// in processing exactly once.
	commits := 0
	for c := range webhookCommits {
		if c {
			commits++
		}
	}
	assert.LessOrEqual(t, commits, 1)
	assert.Equal(t, models.OrderStatusProcessing, orderStatus(t, db, order.ID))
}

func TestFulfilmentTransitions(t *testing.T) {
	assert.True(t, models.CanFulfil(models.OrderStatusProcessing, models.OrderStatusShipped))
	assert.True(t, models.CanFulfil(models.OrderStatusShipped, models.OrderStatusDelivered))
	assert.True(t, models.CanFulfil(models.OrderStatusPending, models.OrderStatusCancelled))
	assert.True(t, models.CanFulfil(models.OrderStatusProcessing, models.OrderStatusCancelled))

	// Payment edges are reconciliation-owned
	assert.False(t, models.CanFulfil(models.OrderStatusPending, models.OrderStatusProcessing))
	assert.False(t, models.CanFulfil(models.OrderStatusPending, models.OrderStatusFailed))

	// Terminal states
	assert.False(t, models.CanFulfil(models.OrderStatusDelivered, models.OrderStatusShipped))
	assert.False(t, models.CanFulfil(models.OrderStatusCancelled, models.OrderStatusProcessing))
	assert.False(t, models.CanFulfil(models.OrderStatusFailed, models.OrderStatusProcessing))
}
