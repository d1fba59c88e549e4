package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanjayhona/agrimart-api/payment"
)

const RawBodyKey = "raw_webhook_body"

// WebhookAuth verifies the gateway signature over the raw request body before
// any JSON decoding happens. The verified bytes are stashed in the context so
// the handler interprets exactly what was signed.
func WebhookAuth(gw payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawBody, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(rawBody))

		signature := c.GetHeader("X-Razorpay-Signature")
		if !gw.VerifyWebhookSignature(rawBody, signature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Set(RawBodyKey, rawBody)
		c.Next()
	}
}
