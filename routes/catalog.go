package routes

import (
	"github.com/gin-gonic/gin"
	productcontroller "github.com/sanjayhona/agrimart-api/controllers/product"
	"gorm.io/gorm"
)

// SetupCatalogRoutes registers the public, read-only catalog endpoints.
func SetupCatalogRoutes(r *gin.Engine, db *gorm.DB) {
	r.GET("/products", productcontroller.GetProducts(db))
	r.GET("/products/:id", productcontroller.GetProductByID(db))
	r.GET("/plants", productcontroller.GetPlants(db))
	r.GET("/diseases", productcontroller.GetDiseases(db))
	r.GET("/pests", productcontroller.GetPests(db))
}
