package razorpayControllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sanjayhona/agrimart-api/middleware"
	"github.com/sanjayhona/agrimart-api/models"
	"github.com/sanjayhona/agrimart-api/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sigCheckGateway accepts exactly one signature value.
type sigCheckGateway struct{}

func (sigCheckGateway) CreateIntent(context.Context, float64, string, string, map[string]string) (string, error) {
	return "", nil
}

func (sigCheckGateway) FetchPayment(context.Context, string) (payment.RemotePayment, error) {
	return payment.RemotePayment{}, nil
}

func (sigCheckGateway) VerifyWebhookSignature(_ []byte, signature string) bool {
	return signature == "valid"
}

func newWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}))

	r := gin.New()
	r.POST("/webhooks/payment-gateway",
		middleware.WebhookAuth(sigCheckGateway{}),
		WebhookHandler(db),
	)
	return r, db
}

func seedPendingOrder(t *testing.T, db *gorm.DB) models.Order {
	t.Helper()
	order := models.Order{
		OrderRef:       "ref-1",
		UserID:         "user-1",
		TotalAmount:    250,
		Status:         models.OrderStatusPending,
		ReceiptKey:     "order_ref-1",
		RemoteOrderRef: "rzp_order_1",
		Payment:        models.Payment{Status: models.PaymentStatusPending, Currency: "INR"},
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func postWebhook(r *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment-gateway", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func capturedEvent(paymentID, orderID string, amountPaise int64) string {
	return fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"order_id":%q,"status":"captured","amount":%d,"method":"upi","currency":"INR"}}}}`,
		paymentID, orderID, amountPaise)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	r, db := newWebhookRouter(t)
	order := seedPendingOrder(t, db)

	w := postWebhook(r, capturedEvent("pay_1", order.RemoteOrderRef, 25000), "forged")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Order untouched
	var fresh models.Order
	require.NoError(t, db.First(&fresh, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, fresh.Status)
}

func TestWebhook_MissingSignature(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w := postWebhook(r, capturedEvent("pay_1", "rzp_order_1", 25000), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_CapturedTransitionsOrder(t *testing.T) {
	r, db := newWebhookRouter(t)
	order := seedPendingOrder(t, db)

	w := postWebhook(r, capturedEvent("pay_1", order.RemoteOrderRef, 25000), "valid")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	var fresh models.Order
	require.NoError(t, db.First(&fresh, order.ID).Error)
	assert.Equal(t, models.OrderStatusProcessing, fresh.Status)
	assert.Equal(t, "pay_1", fresh.Payment.RemotePaymentID)
	assert.Equal(t, models.PaymentStatusCompleted, fresh.Payment.Status)
	assert.Equal(t, 250.0, fresh.Payment.Amount)
}

func TestWebhook_DuplicateDeliveryIsNoop(t *testing.T) {
	r, db := newWebhookRouter(t)
	order := seedPendingOrder(t, db)
	body := capturedEvent("pay_1", order.RemoteOrderRef, 25000)

	w := postWebhook(r, body, "valid")
	assert.Equal(t, http.StatusOK, w.Code)

	// Identical payload and signature again: still 200, state unchanged.
	w = postWebhook(r, body, "valid")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	var fresh models.Order
	require.NoError(t, db.First(&fresh, order.ID).Error)
	assert.Equal(t, models.OrderStatusProcessing, fresh.Status)
}

func TestWebhook_UnknownOrderAcknowledged(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w := postWebhook(r, capturedEvent("pay_x", "rzp_order_missing", 100), "valid")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestWebhook_UnknownEventAcknowledged(t *testing.T) {
	r, db := newWebhookRouter(t)
	order := seedPendingOrder(t, db)

	body := fmt.Sprintf(`{"event":"refund.created","payload":{"payment":{"entity":{"id":"pay_1","order_id":%q}}}}`, order.RemoteOrderRef)
	w := postWebhook(r, body, "valid")
	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.Order
	require.NoError(t, db.First(&fresh, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, fresh.Status)
}

func TestWebhook_FailedEvent(t *testing.T) {
	r, db := newWebhookRouter(t)
	order := seedPendingOrder(t, db)

	body := fmt.Sprintf(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_1","order_id":%q,"status":"failed"}}}}`, order.RemoteOrderRef)
	w := postWebhook(r, body, "valid")
	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.Order
	require.NoError(t, db.First(&fresh, order.ID).Error)
	assert.Equal(t, models.OrderStatusFailed, fresh.Status)
	assert.Equal(t, models.PaymentStatusFailed, fresh.Payment.Status)
}
