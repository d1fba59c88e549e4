package models

import "time"

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"cart_id"`
	UserID    string     `gorm:"uniqueIndex" json:"user_id"` // enforces ONE cart per user
	Version   int        `gorm:"not null;default:0" json:"-"` // optimistic lock for replace/clear
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CartID       uint      `gorm:"index:idx_cart_product,unique" json:"cart_id"`
	ProductID    uint      `gorm:"index:idx_cart_product,unique" json:"product_id"`
	ProductName  string    `json:"name"`
	ProductImage string    `json:"image"`
	UnitPrice    float64   `json:"unit_price"` // display copy; re-read from catalog at checkout
	Quantity     int       `json:"quantity"`
	AddedAt      time.Time `json:"added_at"`
}
