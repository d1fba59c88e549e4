package productcontroller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sanjayhona/agrimart-api/models"
	"gorm.io/gorm"
)

// GetProducts lists the product catalog, optionally filtered to one category.
// URL: /products?category=crop-products
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Product{})

		if category := c.Query("category"); category != "" {
			if !models.ValidCategory(models.CatalogCategory(category)) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category name"})
				return
			}
			query = query.Where("category = ?", category)
		}

		var products []models.Product
		if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GetProductByID returns a single product.
// URL param: /products/:id
func GetProductByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		idParam := c.Param("id")
		id, err := strconv.Atoi(idParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
			}
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GET /plants
func GetPlants(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var plants []models.Plant
		if err := db.Find(&plants).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plants"})
			return
		}
		c.JSON(http.StatusOK, plants)
	}
}

// GET /diseases
func GetDiseases(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var diseases []models.Disease
		if err := db.Find(&diseases).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch diseases"})
			return
		}
		c.JSON(http.StatusOK, diseases)
	}
}

// GET /pests
func GetPests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pests []models.Pest
		if err := db.Find(&pests).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pests"})
			return
		}
		c.JSON(http.StatusOK, pests)
	}
}
