package orderControllers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanjayhona/agrimart-api/apperrors"
	"github.com/sanjayhona/agrimart-api/models"
	"github.com/sanjayhona/agrimart-api/payment"
	"gorm.io/gorm"
)

// The synchronous confirm call and the gateway webhook race by design. Both
// funnel into a conditional UPDATE on the order's status: whoever runs second
// hits zero rows and treats the transition as already done. Exactly one
// pending->processing (or pending->failed) commit happens per order.

// casTransition applies from->to with the given payment fields, only if the
// order is still in the from status. It reports whether this call committed
// the transition.
func casTransition(db *gorm.DB, orderID uint, from, to models.OrderStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, apperrors.Internal("failed to update order status", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func capturedUpdates(p payment.RemotePayment) map[string]interface{} {
	return map[string]interface{}{
		"payment_remote_payment_id": p.ID,
		"payment_status":            models.PaymentStatusCompleted,
		"payment_amount":            p.Amount,
		"payment_method":            p.Method,
		"payment_currency":          p.Currency,
	}
}

// ConfirmOrder is the synchronous reconciliation path: the client claims a
// payment id, we verify it with the gateway before trusting it, then commit
// the transition at most once.
func ConfirmOrder(ctx context.Context, db *gorm.DB, gw payment.Gateway, orderRef, paymentID string) (models.Order, error) {
	var order models.Order
	if err := db.Where("order_ref = ?", orderRef).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return order, apperrors.NotFound("order not found")
		}
		return order, apperrors.Internal("failed to load order", err)
	}

	gwCtx, cancel := context.WithTimeout(ctx, gatewayDeadline)
	defer cancel()

	remote, err := gw.FetchPayment(gwCtx, paymentID)
	if err != nil {
		return order, apperrors.GatewayUnavailable("failed to verify payment", err)
	}
	if remote.Status != payment.StatusCaptured {
		return order, apperrors.PaymentNotCaptured("payment not captured")
	}

	committed, err := casTransition(db, order.ID, models.OrderStatusPending, models.OrderStatusProcessing, capturedUpdates(remote))
	if err != nil {
		return order, err
	}

	var fresh models.Order
	if err := db.Preload("Items").First(&fresh, order.ID).Error; err != nil {
		return order, apperrors.Internal("failed to reload order", err)
	}
	order = fresh

	if committed {
		log.Printf("order %s confirmed via sync path, payment %s", order.OrderRef, remote.ID)
		BroadcastOrderUpdate(order)
		return order, nil
	}

	// Lost the race. If the webhook already moved the order to processing
	// (or beyond), the confirm still succeeded from the caller's view.
	if order.Status == models.OrderStatusFailed || order.Status == models.OrderStatusCancelled {
		return order, apperrors.Conflict("order is %s", order.Status)
	}
	return order, nil
}

// ApplyCapture is the webhook reconciliation path for payment.captured. The
// order is located by the remote payment id recorded at confirm time, or by
// the remote intent the payment belongs to. A missing order or an order that
// already left pending is a designed no-op, not an error.
func ApplyCapture(db *gorm.DB, remote payment.RemotePayment, remoteOrderRef string) (bool, error) {
	order, err := findByRemoteRefs(db, remote.ID, remoteOrderRef)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, nil
	}

	committed, err := casTransition(db, order.ID, models.OrderStatusPending, models.OrderStatusProcessing, capturedUpdates(remote))
	if err != nil {
		return false, err
	}
	if committed {
		log.Printf("order %s confirmed via webhook, payment %s", order.OrderRef, remote.ID)
		if err := db.Preload("Items").First(order, order.ID).Error; err == nil {
			BroadcastOrderUpdate(*order)
		}
	}
	return committed, nil
}

// ApplyFailure handles payment.failed: a confirmed non-capture moves the
// order from pending to failed, once.
func ApplyFailure(db *gorm.DB, remote payment.RemotePayment, remoteOrderRef string) (bool, error) {
	order, err := findByRemoteRefs(db, remote.ID, remoteOrderRef)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, nil
	}

	committed, err := casTransition(db, order.ID, models.OrderStatusPending, models.OrderStatusFailed, map[string]interface{}{
		"payment_remote_payment_id": remote.ID,
		"payment_status":            models.PaymentStatusFailed,
	})
	if err != nil {
		return false, err
	}
	if committed {
		log.Printf("order %s marked failed, payment %s", order.OrderRef, remote.ID)
		if err := db.Preload("Items").First(order, order.ID).Error; err == nil {
			BroadcastOrderUpdate(*order)
		}
	}
	return committed, nil
}

func findByRemoteRefs(db *gorm.DB, remotePaymentID, remoteOrderRef string) (*models.Order, error) {
	var order models.Order
	query := db.Where("payment_remote_payment_id = ?", remotePaymentID)
	if remoteOrderRef != "" {
		query = db.Where("payment_remote_payment_id = ? OR remote_order_ref = ?", remotePaymentID, remoteOrderRef)
	}
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("failed to look up order", err)
	}
	return &order, nil
}

// -------- Handler --------

type ConfirmOrderRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
}

// PATCH /orders/:orderRef/confirm
func ConfirmOrderHandler(db *gorm.DB, gw payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderRef := c.Param("orderRef")
		if orderRef == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderRef is required"})
			return
		}

		var req ConfirmOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := ConfirmOrder(c.Request.Context(), db, gw, orderRef, req.PaymentID)
		if err != nil {
			status := apperrors.Status(err)
			if apperrors.Is(err, apperrors.KindPaymentNotCaptured) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Order confirmed successfully", "order": order})
	}
}
