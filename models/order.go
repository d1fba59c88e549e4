package models

import "time"

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // placed, awaiting payment capture
	OrderStatusProcessing OrderStatus = "processing" // payment captured, being prepared
	OrderStatusShipped    OrderStatus = "shipped"    // out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // customer received the items
	OrderStatusCancelled  OrderStatus = "cancelled"  // cancelled before shipping
	OrderStatusFailed     OrderStatus = "failed"     // payment definitively not captured

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// fulfilmentEdges lists the legal status transitions beyond the payment
// reconciliation edge. pending->processing and pending->failed are owned by
// the reconciliation engine and applied as conditional updates there.
var fulfilmentEdges = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanFulfil reports whether from -> to is a legal fulfilment transition.
func CanFulfil(from, to OrderStatus) bool {
	for _, next := range fulfilmentEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Payment is the gateway-side record embedded in an order. RemotePaymentID is
// set when the capture is first verified and is how webhook events find the
// order on redelivery.
type Payment struct {
	RemotePaymentID string        `json:"payment_id"`
	Status          PaymentStatus `gorm:"type:VARCHAR(20)" json:"status"`
	Amount          float64       `json:"amount"`
	Method          string        `json:"method"`
	Currency        string        `json:"currency"`
}

type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderRef    string      `gorm:"uniqueIndex;not null" json:"order_ref"`
	UserID      string      `gorm:"index;not null" json:"user_id"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount float64     `json:"total_amount"` // frozen at creation
	Status      OrderStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	// ReceiptKey is passed to the gateway as the intent receipt, so retried
	// intent creations for this order never double-charge.
	ReceiptKey      string    `gorm:"uniqueIndex;not null" json:"receipt_key"`
	RemoteOrderRef  string    `gorm:"index" json:"remote_order_ref"` // gateway intent id
	Payment         Payment   `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	CreatedAt       time.Time `json:"created_at"`
}

// OrderItem is a frozen snapshot of the product line at checkout time. Later
// catalog price changes never alter a placed order.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	OrderID      uint    `gorm:"index" json:"order_id"`
	ProductID    uint    `json:"product_id"`
	ProductName  string  `json:"name"`
	ProductImage string  `json:"image"`
	UnitPrice    float64 `json:"unit_price"`
	Quantity     int     `json:"quantity"`
}
