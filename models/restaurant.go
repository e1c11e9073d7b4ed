package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Restaurant is a tenant of the platform. Its delivery fee settings feed the fee calculator.
type Restaurant struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Slug         string          `gorm:"uniqueIndex;not null" json:"slug"`
	Phone        string          `json:"phone"`
	Logo         string          `json:"logo"`
	Active       bool            `json:"active"`
	Open         bool            `json:"open"`
	Address      Address         `gorm:"embedded" json:"address"`
	MinimumOrder decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"minimum_order"`

	// Delivery fee configuration. A non-nil flat fee wins over everything else.
	DeliveryFlatFee    *decimal.Decimal `gorm:"type:numeric(10,2)" json:"delivery_flat_fee"`
	DeliveryBaseFee    decimal.Decimal  `gorm:"type:numeric(10,2);default:0" json:"delivery_base_fee"`
	DeliveryFeePerKm   decimal.Decimal  `gorm:"type:numeric(10,2);default:0" json:"delivery_fee_per_km"`
	DeliveryIncludedKm float64          `json:"delivery_included_km"`
	DeliveryMaxKm      float64          `json:"delivery_max_km"` // 0 means no limit

	Categories []Category     `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Address is embedded in restaurants, customers and orders.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
}

// Banner is a storefront banner image shown on a restaurant page.
type Banner struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"index;not null" json:"restaurant_id"`
	ImageURL     string    `gorm:"not null" json:"image_url"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
}
