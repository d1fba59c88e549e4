package cartControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sanjayhona/agrimart-api/apperrors"
	"github.com/sanjayhona/agrimart-api/models"
	"gorm.io/gorm"
)

type AddItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

type ReplaceItemInput struct {
	ProductID uint `json:"id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type ReplaceCartInput struct {
	Items []ReplaceItemInput `json:"items"`
}

type UpdateQuantityInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

type RemoveItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// -------- Core Logic --------

// GetCart returns the user's cart items, or an empty list if no cart exists.
func GetCart(db *gorm.DB, userID string) ([]models.CartItem, error) {
	var cart models.Cart
	if err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.CartItem{}, nil
		}
		return nil, apperrors.Internal("failed to fetch cart", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart.Items, nil
}

// ensureCart loads the user's cart, creating an empty one on first use.
func ensureCart(tx *gorm.DB, userID string) (models.Cart, error) {
	var cart models.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		if err := tx.Create(&cart).Error; err != nil {
			return cart, apperrors.Internal("failed to create cart", err)
		}
		return cart, nil
	}
	if err != nil {
		return cart, apperrors.Internal("failed to fetch cart", err)
	}
	return cart, nil
}

// AddItem puts a product into the cart. Adding a product that is already in
// the cart increments its quantity instead of creating a second line.
func AddItem(db *gorm.DB, userID string, productID uint, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}

	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("product not found")
		}
		return apperrors.Internal("failed to validate product", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		cart, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}

		var item models.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", cart.CartID, productID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			newItem := models.CartItem{
				CartID:       cart.CartID,
				ProductID:    product.ID,
				ProductName:  product.Name,
				ProductImage: product.Image,
				UnitPrice:    product.Price,
				Quantity:     quantity,
				AddedAt:      time.Now(),
			}
			if err := tx.Create(&newItem).Error; err != nil {
				return apperrors.Internal("failed to add item to cart", err)
			}
			return touchCart(tx, cart.CartID)
		}
		if err != nil {
			return apperrors.Internal("failed to fetch cart item", err)
		}

		item.Quantity += quantity
		item.AddedAt = time.Now()
		if err := tx.Save(&item).Error; err != nil {
			return apperrors.Internal("failed to update cart item", err)
		}
		return touchCart(tx, cart.CartID)
	})
}

// ReplaceItems swaps the whole item list in one shot, re-pricing every line
// from the catalog. Client-supplied prices are never trusted. The write is
// guarded by the cart version so a concurrent add is not silently lost.
func ReplaceItems(db *gorm.DB, userID string, inputs []ReplaceItemInput) ([]models.CartItem, error) {
	seen := make(map[uint]bool, len(inputs))
	items := make([]models.CartItem, 0, len(inputs))

	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, apperrors.Validation("quantity must be positive for product %d", in.ProductID)
		}
		if seen[in.ProductID] {
			return nil, apperrors.Validation("duplicate product %d in items", in.ProductID)
		}
		seen[in.ProductID] = true

		var product models.Product
		if err := db.First(&product, "id = ?", in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.Validation("product %d does not exist", in.ProductID)
			}
			return nil, apperrors.Internal("failed to validate product", err)
		}
		if product.Stock < in.Quantity {
			return nil, apperrors.Validation("product %s is out of stock", product.Name)
		}

		items = append(items, models.CartItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.Image,
			UnitPrice:    product.Price,
			Quantity:     in.Quantity,
			AddedAt:      time.Now(),
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		cart, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}

		// Versioned replace: if anything touched the cart since we read it,
		// reject and let the caller retry with fresh state.
		res := tx.Model(&models.Cart{}).
			Where("cart_id = ? AND version = ?", cart.CartID, cart.Version).
			Updates(map[string]interface{}{"version": cart.Version + 1, "updated_at": time.Now()})
		if res.Error != nil {
			return apperrors.Internal("failed to update cart", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("cart was modified concurrently, retry")
		}

		if err := tx.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
			return apperrors.Internal("failed to clear cart items", err)
		}
		for i := range items {
			items[i].CartID = cart.CartID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return apperrors.Internal("failed to store cart items", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RemoveItem deletes a line from the cart. Removing an absent line is a no-op.
func RemoveItem(db *gorm.DB, userID string, productID uint) error {
	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Internal("failed to fetch cart", err)
	}

	res := db.Where("cart_id = ? AND product_id = ?", cart.CartID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return apperrors.Internal("failed to delete cart item", res.Error)
	}
	if res.RowsAffected > 0 {
		return touchCart(db, cart.CartID)
	}
	return nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero is
// rejected rather than treated as a removal; removal has its own endpoint.
func UpdateQuantity(db *gorm.DB, userID string, productID uint, quantity int) error {
	if quantity <= 0 {
		return apperrors.Validation("quantity must be positive")
	}

	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("cart not found")
		}
		return apperrors.Internal("failed to fetch cart", err)
	}

	var item models.CartItem
	if err := db.Where("cart_id = ? AND product_id = ?", cart.CartID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("product not found in cart")
		}
		return apperrors.Internal("failed to fetch cart item", err)
	}

	item.Quantity = quantity
	if err := db.Save(&item).Error; err != nil {
		return apperrors.Internal("failed to update cart item", err)
	}
	return touchCart(db, cart.CartID)
}

// Clear removes the cart entirely. Clearing a missing cart is a no-op.
func Clear(db *gorm.DB, userID string) error {
	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Internal("failed to fetch cart", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
			return apperrors.Internal("failed to clear cart items", err)
		}
		if err := tx.Delete(&models.Cart{}, "cart_id = ?", cart.CartID).Error; err != nil {
			return apperrors.Internal("failed to delete cart", err)
		}
		return nil
	})
}

// touchCart bumps the version so versioned writers notice the change.
func touchCart(tx *gorm.DB, cartID uint) error {
	if err := tx.Model(&models.Cart{}).Where("cart_id = ?", cartID).
		Updates(map[string]interface{}{"version": gorm.Expr("version + 1"), "updated_at": time.Now()}).Error; err != nil {
		return apperrors.Internal("failed to update cart version", err)
	}
	return nil
}

// -------- Handlers --------

// GET /user/cart
func GetUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		items, err := GetCart(db, userID)
		if err != nil {
			c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// POST /user/cart/add
func AddCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		if err := AddItem(db, userID, input.ProductID, input.Quantity); err != nil {
			c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product added to cart"})
	}
}

// POST /user/cart
func ReplaceCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input ReplaceCartInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart data"})
			return
		}

		items, err := ReplaceItems(db, userID, input.Items)
		if err != nil {
			c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// POST /user/cart/remove
func RemoveCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input RemoveItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
			return
		}

		if err := RemoveItem(db, userID, input.ProductID); err != nil {
			c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart"})
	}
}

// POST /user/cart/update-quantity
func UpdateCartQuantity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input UpdateQuantityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID and quantity are required"})
			return
		}

		if err := UpdateQuantity(db, userID, input.ProductID, input.Quantity); err != nil {
			c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart quantity updated"})
	}
}

// DELETE /user/cart
func ClearUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		if err := Clear(db, userID); err != nil {
			c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// GET /admin/user-cart/:user_id
func GetAdminUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		items, err := GetCart(db, userID)
		if err != nil {
			c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}
