package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/sanjayhona/agrimart-api/controllers/cart"
	userControllers "github.com/sanjayhona/agrimart-api/controllers/user"
	"github.com/sanjayhona/agrimart-api/middleware"
	"gorm.io/gorm"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("/", userControllers.GetUser(db)) // GET /user/
		userGroup.PUT("/", userControllers.UpdateUser(db))

		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("/", cartControllers.GetUserCart(db))                         // GET /user/cart
			cartGroup.POST("/", cartControllers.ReplaceCart(db))                        // POST /user/cart
			cartGroup.POST("/add", cartControllers.AddCartItem(db))                     // POST /user/cart/add
			cartGroup.POST("/remove", cartControllers.RemoveCartItem(db))               // POST /user/cart/remove
			cartGroup.POST("/update-quantity", cartControllers.UpdateCartQuantity(db))  // POST /user/cart/update-quantity
			cartGroup.DELETE("/", cartControllers.ClearUserCart(db))                    // DELETE /user/cart
		}
	}
}
