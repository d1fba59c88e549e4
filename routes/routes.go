package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sanjayhona/agrimart-api/payment"
	"github.com/sanjayhona/agrimart-api/store"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry-point that wires up Auth, Catalog, User,
// Order, Webhook and Admin route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, gw payment.Gateway, idem store.IdempotencyStore) {
	// Public auth routes (no middleware)
	SetupAuthRoutes(r, db)

	// Public catalog browsing
	SetupCatalogRoutes(r, db)

	// User routes (JWT-protected)
	SetupUserRoutes(r, db)

	// Order routes (checkout, confirm, queries)
	SetupOrderRoutes(r, db, gw, idem)

	// Payment gateway webhook
	SetupWebhookRoutes(r, db, gw)

	// Admin routes (API-key-protected)
	SetupAdminRoutes(r, db)
}
