package razorpayControllers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	orderControllers "github.com/sanjayhona/agrimart-api/controllers/order"
	"github.com/sanjayhona/agrimart-api/middleware"
	"github.com/sanjayhona/agrimart-api/payment"
	"gorm.io/gorm"
)

const (
	eventPaymentCaptured = "payment.captured"
	eventPaymentFailed   = "payment.failed"
)

// WebhookEvent mirrors the gateway's event envelope. Amount arrives in paise.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string `json:"id"`
				OrderID  string `json:"order_id"`
				Status   string `json:"status"`
				Amount   int64  `json:"amount"`
				Method   string `json:"method"`
				Currency string `json:"currency"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// WebhookHandler processes gateway events. The signature middleware has
// already verified the raw body. Business no-ops (unknown order, duplicate
// delivery, unhandled event type) answer 200 so the gateway stops retrying;
// only genuine storage failures answer 500.
func WebhookHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawBody, ok := c.Get(middleware.RawBodyKey)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing webhook body"})
			return
		}

		var event WebhookEvent
		if err := json.Unmarshal(rawBody.([]byte), &event); err != nil {
			// Signed but unparseable: nothing to retry.
			log.Printf("webhook body unparseable: %v", err)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		entity := event.Payload.Payment.Entity
		remote := payment.RemotePayment{
			ID:       entity.ID,
			Status:   entity.Status,
			Amount:   float64(entity.Amount) / 100,
			Method:   entity.Method,
			Currency: entity.Currency,
		}

		var err error
		switch event.Event {
		case eventPaymentCaptured:
			_, err = orderControllers.ApplyCapture(db, remote, entity.OrderID)
		case eventPaymentFailed:
			_, err = orderControllers.ApplyFailure(db, remote, entity.OrderID)
		default:
			// Unhandled event types are acknowledged, not retried.
		}

		if err != nil {
			log.Printf("webhook processing failed for payment %s: %v", entity.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
