package orderControllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sanjayhona/agrimart-api/apperrors"
	"github.com/sanjayhona/agrimart-api/models"
	"github.com/sanjayhona/agrimart-api/payment"
	"github.com/sanjayhona/agrimart-api/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	currency        = "INR"
	checkoutTTL     = 15 * time.Minute
	gatewayDeadline = 10 * time.Second
)

type CheckoutResult struct {
	OrderID   uint   `json:"order_id"`
	OrderRef  string `json:"order_ref"`
	RemoteRef string `json:"remote_payment_reference"`
}

// Checkout converts the user's cart into a pending order: every line is
// re-validated and re-priced against the catalog at this instant, stock is
// decremented, the order is persisted and the cart consumed in one
// transaction, and a remote payment intent is requested afterwards. A retry
// within the idempotency window resumes the existing pending order instead of
// placing a second one.
func Checkout(ctx context.Context, db *gorm.DB, gw payment.Gateway, idem store.IdempotencyStore, userID string) (CheckoutResult, error) {
	claimKey := "checkout:" + userID
	ref := uuid.NewString()

	claimedRef, created, err := idem.Claim(ctx, claimKey, ref, checkoutTTL)
	if err != nil {
		// A dead idempotency store must not block checkouts; the receipt key
		// still protects against double-charging at the gateway.
		log.Printf("idempotency claim failed for user %s: %v", userID, err)
		claimedRef, created = ref, true
	}

	if !created {
		result, err := resumeCheckout(ctx, db, gw, idem, claimKey, claimedRef)
		if err == nil || !apperrors.Is(err, apperrors.KindNotFound) {
			return result, err
		}
		// Claimed ref no longer resolves to a pending order: stale claim.
		if err := idem.Release(ctx, claimKey); err != nil {
			log.Printf("failed to release stale checkout claim %s: %v", claimKey, err)
		}
		if _, _, err := idem.Claim(ctx, claimKey, ref, checkoutTTL); err != nil {
			log.Printf("idempotency reclaim failed for user %s: %v", userID, err)
		}
		claimedRef = ref
	}

	var cart models.Cart
	if err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CheckoutResult{}, apperrors.Validation("cart is empty")
		}
		return CheckoutResult{}, apperrors.Internal("failed to fetch cart", err)
	}
	if len(cart.Items) == 0 {
		return CheckoutResult{}, apperrors.Validation("cart is empty")
	}

	var order models.Order

	err = db.Transaction(func(tx *gorm.DB) error {
		var total float64
		var orderItems []models.OrderItem

		for _, item := range cart.Items {
			var product models.Product
			if err := lockForUpdate(tx).
				First(&product, "id = ?", item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("product %s no longer exists", item.ProductName)
				}
				return apperrors.Internal("failed to load product", err)
			}

			// Stock may have changed since the item was added.
			if product.Stock < item.Quantity {
				return apperrors.Conflict("insufficient stock for product: %s", product.Name)
			}
			product.Stock -= item.Quantity
			if err := tx.Save(&product).Error; err != nil {
				return apperrors.Internal("failed to update stock", err)
			}

			// Price comes from the catalog now, not from the cart snapshot.
			total += product.Price * float64(item.Quantity)
			orderItems = append(orderItems, models.OrderItem{
				ProductID:    product.ID,
				ProductName:  product.Name,
				ProductImage: product.Image,
				UnitPrice:    product.Price,
				Quantity:     item.Quantity,
			})
		}

		order = models.Order{
			OrderRef:    claimedRef,
			UserID:      userID,
			Items:       orderItems,
			TotalAmount: total,
			Status:      models.OrderStatusPending,
			ReceiptKey:  "order_" + claimedRef,
			Payment:     models.Payment{Status: models.PaymentStatusPending, Currency: currency},
			CreatedAt:   time.Now(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return apperrors.Internal("failed to create order", err)
		}
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	remoteRef, err := createIntent(ctx, db, gw, &order)
	if err != nil {
		// The pending order survives; the held claim lets the client retry
		// this same checkout and resume it.
		return CheckoutResult{}, err
	}

	consumeCart(db, cart, order.Items)

	if err := idem.Release(ctx, claimKey); err != nil {
		log.Printf("failed to release checkout claim %s: %v", claimKey, err)
	}

	return CheckoutResult{OrderID: order.ID, OrderRef: order.OrderRef, RemoteRef: remoteRef}, nil
}

// lockForUpdate takes a row lock where the dialect supports one. SQLite has
// no FOR UPDATE; its writes are serialized by the engine itself.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// resumeCheckout picks up a pending order left by an earlier attempt. It
// creates the remote intent if that step never completed.
func resumeCheckout(ctx context.Context, db *gorm.DB, gw payment.Gateway, idem store.IdempotencyStore, claimKey, ref string) (CheckoutResult, error) {
	var order models.Order
	if err := db.Preload("Items").Where("order_ref = ? AND status = ?", ref, models.OrderStatusPending).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CheckoutResult{}, apperrors.NotFound("no pending order for checkout claim")
		}
		return CheckoutResult{}, apperrors.Internal("failed to load pending order", err)
	}

	remoteRef := order.RemoteOrderRef
	if remoteRef == "" {
		var err error
		remoteRef, err = createIntent(ctx, db, gw, &order)
		if err != nil {
			return CheckoutResult{}, err
		}
	}

	// The cart may have gained items since the failed attempt; subtract only
	// what this order actually holds.
	var cart models.Cart
	if err := db.Where("user_id = ?", order.UserID).First(&cart).Error; err == nil {
		if err := db.Transaction(func(tx *gorm.DB) error {
			return removeOrderedLines(tx, cart.CartID, order.Items)
		}); err != nil {
			log.Printf("failed to clear cart %d after checkout: %v", cart.CartID, err)
		}
	}

	if err := idem.Release(ctx, claimKey); err != nil {
		log.Printf("failed to release checkout claim %s: %v", claimKey, err)
	}

	return CheckoutResult{OrderID: order.ID, OrderRef: order.OrderRef, RemoteRef: remoteRef}, nil
}

// createIntent asks the gateway for a remote payment intent keyed by the
// order's receipt and records the returned reference.
func createIntent(ctx context.Context, db *gorm.DB, gw payment.Gateway, order *models.Order) (string, error) {
	gwCtx, cancel := context.WithTimeout(ctx, gatewayDeadline)
	defer cancel()

	remoteRef, err := gw.CreateIntent(gwCtx, order.TotalAmount, currency, order.ReceiptKey,
		map[string]string{"order_ref": order.OrderRef})
	if err != nil {
		return "", apperrors.GatewayUnavailable("payment gateway unavailable", err)
	}

	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("remote_order_ref", remoteRef).Error; err != nil {
		return "", apperrors.Internal("failed to record remote payment reference", err)
	}
	order.RemoteOrderRef = remoteRef
	return remoteRef, nil
}

// consumeCart clears the checked-out lines. When the cart version still
// matches the checkout-time read the whole cart is dropped; otherwise the
// user changed the cart mid-checkout, and only the ordered quantities are
// subtracted so the newer selection survives.
func consumeCart(db *gorm.DB, cart models.Cart, ordered []models.OrderItem) {
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("cart_id = ? AND version = ?", cart.CartID, cart.Version).Delete(&models.Cart{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error
		}
		return removeOrderedLines(tx, cart.CartID, ordered)
	})
	if err != nil {
		// The order is already placed; a stale cart is recoverable, a lost
		// order is not.
		log.Printf("failed to clear cart %d after checkout: %v", cart.CartID, err)
	}
}

// removeOrderedLines subtracts the ordered quantities from the cart, line by
// line. A line the user topped up mid-checkout keeps its surplus; lines for
// products not in the order are left untouched.
func removeOrderedLines(tx *gorm.DB, cartID uint, ordered []models.OrderItem) error {
	for _, item := range ordered {
		var line models.CartItem
		err := tx.Where("cart_id = ? AND product_id = ?", cartID, item.ProductID).First(&line).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if line.Quantity > item.Quantity {
			if err := tx.Model(&models.CartItem{}).Where("id = ?", line.ID).
				Update("quantity", line.Quantity-item.Quantity).Error; err != nil {
				return err
			}
			continue
		}
		if err := tx.Delete(&models.CartItem{}, "id = ?", line.ID).Error; err != nil {
			return err
		}
	}
	return tx.Model(&models.Cart{}).Where("cart_id = ?", cartID).
		Update("version", gorm.Expr("version + 1")).Error
}

// -------- Handler --------

// POST /orders
func CheckoutHandler(db *gorm.DB, gw payment.Gateway, idem store.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		result, err := Checkout(c.Request.Context(), db, gw, idem, userID)
		if err != nil {
			c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}
