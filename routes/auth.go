package routes

import (
	"github.com/gin-gonic/gin"
	userControllers "github.com/sanjayhona/agrimart-api/controllers/user"
	"gorm.io/gorm"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, db *gorm.DB) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", userControllers.Signup(db))
		authGroup.POST("/signin", userControllers.Signin(db))
	}
}
