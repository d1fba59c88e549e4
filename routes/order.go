package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/sanjayhona/agrimart-api/controllers/order"
	"github.com/sanjayhona/agrimart-api/middleware"
	"github.com/sanjayhona/agrimart-api/payment"
	"github.com/sanjayhona/agrimart-api/store"
	"gorm.io/gorm"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB, gw payment.Gateway, idem store.IdempotencyStore) {
	orders := r.Group("/orders")
	{
		// websocket endpoint for real-time order updates
		orders.GET("/ws", orderControllers.OrderWebSocketHandler)

		authed := orders.Group("")
		authed.Use(middleware.ValidateToken)
		{
			// Convert the cart into a new pending order + remote intent
			authed.POST("", orderControllers.CheckoutHandler(db, gw, idem))

			// Fetch orders for the signed-in user
			authed.GET("/user", orderControllers.GetUserOrdersHandler(db))

			// Fetch a single order
			authed.GET("/:orderRef", orderControllers.GetOrderByRefHandler(db))

			// Synchronous payment confirmation
			authed.PATCH("/:orderRef/confirm", orderControllers.ConfirmOrderHandler(db, gw))
		}
	}
}
