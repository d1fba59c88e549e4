package routes

import (
	"github.com/gin-gonic/gin"
	razorpayControllers "github.com/sanjayhona/agrimart-api/controllers/razorpay"
	"github.com/sanjayhona/agrimart-api/middleware"
	"github.com/sanjayhona/agrimart-api/payment"
	"gorm.io/gorm"
)

func SetupWebhookRoutes(r *gin.Engine, db *gorm.DB, gw payment.Gateway) {
	webhooks := r.Group("/webhooks")
	{
		// Signature is verified against the raw body before the handler runs
		webhooks.POST("/payment-gateway",
			middleware.WebhookAuth(gw),
			razorpayControllers.WebhookHandler(db),
		)
	}
}
