package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart belongs to either a customer or an anonymous session, for one restaurant.
// Exactly one of CustomerID and SessionID is set.
type Cart struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"uniqueIndex:idx_cart_owner;not null" json:"restaurant_id"`
	CustomerID   string     `gorm:"uniqueIndex:idx_cart_owner;size:128" json:"customer_id,omitempty"`
	SessionID    string     `gorm:"uniqueIndex:idx_cart_owner;size:128" json:"session_id,omitempty"`
	Items        []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	CartID       uint             `gorm:"index" json:"cart_id"`
	ProductID    uint             `json:"product_id"`
	ProductName  string           `json:"product_name"`
	UnitPrice    decimal.Decimal  `gorm:"type:numeric(10,2)" json:"unit_price"` // product price plus option deltas
	Quantity     int              `json:"quantity"`
	SelectionKey string           `gorm:"size:255" json:"-"` // canonical option id list, e.g. "3,7,9"
	Notes        string           `json:"notes"`
	Options      []CartItemOption `gorm:"foreignKey:CartItemID;constraint:OnDelete:CASCADE" json:"options"`
	AddedAt      time.Time        `json:"added_at"`
}

// LineTotal is the unit price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CartItemOption struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CartItemID uint            `gorm:"index" json:"-"`
	OptionID   uint            `json:"option_id"`
	GroupName  string          `json:"group_name"`
	OptionName string          `json:"option_name"`
	PriceDelta decimal.Decimal `gorm:"type:numeric(10,2)" json:"price_delta"`
}
