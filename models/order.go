package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusPending         OrderStatus = "pending"          // Placed, waiting for the restaurant
	OrderStatusConfirmed       OrderStatus = "confirmed"        // Accepted by the restaurant
	OrderStatusPreparing       OrderStatus = "preparing"        // In the kitchen
	OrderStatusReady           OrderStatus = "ready"            // Packed
	OrderStatusAwaitingCourier OrderStatus = "awaiting_courier" // Offered to couriers
	OrderStatusOutForDelivery  OrderStatus = "out_for_delivery" // A courier has it
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"

	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodPix  PaymentMethod = "pix"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady,
	OrderStatusAwaitingCourier, OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled,
}

// OrderStatuses lists every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

// Terminal reports whether no transition may leave the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func ParseOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	for _, known := range orderStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", errors.New("invalid order status")
}

func ParsePaymentStatus(status string) (PaymentStatus, error) {
	switch s := PaymentStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return s, nil
	}
	return "", errors.New("invalid payment status")
}

func ParsePaymentMethod(method string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(method))); m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodPix:
		return m, nil
	}
	return "", errors.New("invalid payment method")
}

// Order is the immutable snapshot of a checked-out cart plus its mutable lifecycle fields.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Reference     string          `gorm:"uniqueIndex;size:64" json:"reference"`
	RestaurantID  uint            `gorm:"index;not null" json:"restaurant_id"`
	CustomerID    *string         `gorm:"index;size:128" json:"customer_id"`
	SessionID     string          `gorm:"size:128" json:"session_id,omitempty"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	Address       Address         `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	Notes         string          `json:"notes"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT" json:"items"`
	Status        OrderStatus     `gorm:"type:VARCHAR(20);index;default:'pending'" json:"status"`
	PaymentMethod PaymentMethod   `gorm:"type:VARCHAR(10)" json:"payment_method"`
	PaymentStatus PaymentStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(10,2)" json:"subtotal"`
	DeliveryFee   decimal.Decimal `gorm:"type:numeric(10,2)" json:"delivery_fee"`
	Discount      decimal.Decimal `gorm:"type:numeric(10,2)" json:"discount"`
	Total         decimal.Decimal `gorm:"type:numeric(10,2)" json:"total"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	DistanceKm    float64         `json:"distance_km"`
	FeeFallback   bool            `json:"fee_fallback"`
	CourierID     *uint           `gorm:"index" json:"courier_id"`
	Courier       *Courier        `json:"courier,omitempty"`
	CourierRating *int            `json:"courier_rating"`
	ConfirmedAt   *time.Time      `json:"confirmed_at"`
	DeliveredAt   *time.Time      `json:"delivered_at"`
	CancelledAt   *time.Time      `json:"cancelled_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID             uint                     `gorm:"primaryKey" json:"id"`
	OrderID        uint                     `gorm:"index" json:"order_id"`
	ProductID      uint                     `json:"product_id"`
	ProductName    string                   `json:"product_name"`
	UnitPrice      decimal.Decimal          `gorm:"type:numeric(10,2)" json:"unit_price"`
	Quantity       int                      `json:"quantity"`
	LineTotal      decimal.Decimal          `gorm:"type:numeric(10,2)" json:"line_total"`
	Notes          string                   `json:"notes"`
	Customizations []OrderItemCustomization `gorm:"foreignKey:OrderItemID;constraint:OnDelete:RESTRICT" json:"customizations"`
}

type OrderItemCustomization struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderItemID uint            `gorm:"index" json:"-"`
	GroupName   string          `json:"group_name"`
	OptionName  string          `json:"option_name"`
	PriceDelta  decimal.Decimal `gorm:"type:numeric(10,2)" json:"price_delta"`
}

// StatusHistoryEntry records one status change. Rows are only ever inserted.
type StatusHistoryEntry struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"index;not null" json:"order_id"`
	FromStatus OrderStatus `gorm:"type:VARCHAR(20)" json:"from_status"`
	ToStatus   OrderStatus `gorm:"type:VARCHAR(20);not null" json:"to_status"`
	ActorID    string      `json:"actor_id"`
	ActorRole  string      `json:"actor_role"`
	Notes      string      `json:"notes"`
	CreatedAt  time.Time   `json:"created_at"`
}
