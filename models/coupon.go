package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFixed   CouponKind = "fixed"
)

type Coupon struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	RestaurantID uint            `gorm:"uniqueIndex:idx_coupon_code;not null" json:"restaurant_id"`
	Code         string          `gorm:"uniqueIndex:idx_coupon_code;size:64;not null" json:"code"`
	Kind         CouponKind      `gorm:"type:VARCHAR(10)" json:"kind"`
	Value        decimal.Decimal `gorm:"type:numeric(10,2)" json:"value"`
	MinSubtotal  decimal.Decimal `gorm:"type:numeric(10,2)" json:"min_subtotal"`
	Active       bool            `json:"active"`
	ExpiresAt    *time.Time      `json:"expires_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DiscountFor returns the discount the coupon grants on subtotal, never more than subtotal.
func (c Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.Kind {
	case CouponPercent:
		d = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	case CouponFixed:
		d = c.Value
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
