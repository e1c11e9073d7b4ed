package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/geo"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/services/cart"
	"github.com/ronwsv/menuly-delivery/services/fees"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyCart            = apperr.Validation("Cart is empty")
	ErrRestaurantClosed     = apperr.Validation("Restaurant is closed")
	ErrRestaurantNotFound   = apperr.NotFound("Restaurant not found")
	ErrAddressRequired      = apperr.Validation("Delivery address is incomplete")
	ErrNameRequired         = apperr.Validation("Customer name is required")
	ErrInvalidPaymentMethod = apperr.Validation("Invalid payment method")
	ErrInvalidCoupon        = apperr.Validation("Coupon is not valid")
	ErrProductUnavailable   = apperr.Conflict("A product in your cart is no longer available")
	ErrInsufficientStock    = apperr.Conflict("Not enough stock for a product in your cart")
)

// CheckoutInput is what the customer supplies at checkout.
type CheckoutInput struct {
	CustomerName  string         `json:"customer_name"`
	CustomerPhone string         `json:"customer_phone"`
	Address       models.Address `json:"address"`
	PaymentMethod string         `json:"payment_method" binding:"required"`
	CouponCode    string         `json:"coupon_code"`
	Notes         string         `json:"notes"`
}

func (in CheckoutInput) validate() error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return ErrNameRequired
	}
	a := in.Address
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.Number) == "" ||
		strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.PostalCode) == "" {
		return ErrAddressRequired
	}
	if _, err := geo.NormalizePostalCode(a.PostalCode); err != nil {
		return fees.ErrInvalidPostalCode
	}
	return nil
}

// newReference returns a unique, roughly time-ordered order reference.
func newReference(now time.Time) string {
	return now.Format("20060102150405") + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Checkout turns the caller's cart for restaurantID into an order. Everything
// happens in one transaction: stock is decremented under row locks, the order
// and its first history entry are written and the cart is deleted. Any failure
// leaves the cart and stock untouched.
func (s *Service) Checkout(ctx context.Context, restaurantID uint, in CheckoutInput) (models.Order, error) {
	owner, err := cart.OwnerFrom(ctx)
	if err != nil {
		return models.Order{}, err
	}
	a, _ := actor.From(ctx)

	method, err := models.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return models.Order{}, ErrInvalidPaymentMethod
	}

	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).First(&restaurant, restaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, ErrRestaurantNotFound
		}
		return models.Order{}, err
	}
	if !restaurant.Active || !restaurant.Open {
		return models.Order{}, ErrRestaurantClosed
	}

	// Check for an empty cart before spending time on address and fee lookups.
	if _, err := cart.Find(s.db.WithContext(ctx), owner, restaurantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, ErrEmptyCart
		}
		return models.Order{}, err
	}
	if err := in.validate(); err != nil {
		return models.Order{}, err
	}

	// The quote involves network calls and is computed outside the transaction.
	quote := fees.Quote{Fee: restaurant.DeliveryBaseFee.Round(2)}
	if s.fees != nil {
		if quote, err = s.fees.Quote(ctx, restaurant, in.Address.PostalCode); err != nil {
			return models.Order{}, err
		}
	}

	var order models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r models.Restaurant
		if err := tx.First(&r, restaurantID).Error; err != nil {
			return err
		}
		if !r.Active || !r.Open {
			return ErrRestaurantClosed
		}

		c, err := cart.Find(tx, owner, restaurantID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(c.Items) == 0) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}

		subtotal := cart.Subtotal(c.Items)
		if subtotal.LessThan(r.MinimumOrder) {
			return apperr.Validationf("Minimum order is %s", r.MinimumOrder.StringFixed(2))
		}

		discount := decimal.Zero
		couponCode := ""
		if code := strings.TrimSpace(in.CouponCode); code != "" {
			coupon, err := findCoupon(tx, restaurantID, code, subtotal)
			if err != nil {
				return err
			}
			discount = coupon.DiscountFor(subtotal)
			couponCode = coupon.Code
		}

		items, err := snapshotItems(tx, restaurantID, c.Items)
		if err != nil {
			return err
		}

		now := time.Now()
		order = models.Order{
			Reference:     newReference(now),
			RestaurantID:  restaurantID,
			SessionID:     owner.SessionID,
			CustomerName:  strings.TrimSpace(in.CustomerName),
			CustomerPhone: strings.TrimSpace(in.CustomerPhone),
			Address:       in.Address,
			Notes:         in.Notes,
			Items:         items,
			Status:        models.OrderStatusPending,
			PaymentMethod: method,
			PaymentStatus: models.PaymentStatusPending,
			Subtotal:      subtotal,
			DeliveryFee:   quote.Fee,
			Discount:      discount,
			Total:         subtotal.Add(quote.Fee).Sub(discount).Round(2),
			CouponCode:    couponCode,
			DistanceKm:    quote.DistanceKm,
			FeeFallback:   quote.Fallback,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if owner.CustomerID != "" {
			id := owner.CustomerID
			order.CustomerID = &id
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := AppendHistory(tx, order.ID, "", models.OrderStatusPending, a, ""); err != nil {
			return err
		}
		return cart.Delete(tx, c.ID)
	})
	if err != nil {
		return models.Order{}, err
	}

	notify.Emit(ctx, s.events, notify.OrderEvent(notify.EventOrderCreated, order))
	return order, nil
}

func findCoupon(tx *gorm.DB, restaurantID uint, code string, subtotal decimal.Decimal) (models.Coupon, error) {
	var c models.Coupon
	err := tx.Where("restaurant_id = ? AND UPPER(code) = ?", restaurantID, strings.ToUpper(code)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, ErrInvalidCoupon
	}
	if err != nil {
		return c, err
	}
	if !c.Active || (c.ExpiresAt != nil && c.ExpiresAt.Before(time.Now())) {
		return c, ErrInvalidCoupon
	}
	if subtotal.LessThan(c.MinSubtotal) {
		return c, apperr.Validationf("Coupon requires a subtotal of at least %s", c.MinSubtotal.StringFixed(2))
	}
	return c, nil
}

// snapshotItems re-checks every product under a row lock, decrements tracked
// stock and copies the cart lines into order lines.
func snapshotItems(tx *gorm.DB, restaurantID uint, lines []models.CartItem) ([]models.OrderItem, error) {
	ids := make([]uint, 0, len(lines))
	need := make(map[uint]int)
	for _, l := range lines {
		if _, seen := need[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		need[l.ProductID] += l.Quantity
	}

	var products []models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.Available || p.RestaurantID != restaurantID {
			name := "unknown"
			if ok {
				name = p.Name
			}
			return nil, apperr.Wrap(ErrProductUnavailable, errors.New(name))
		}
		if !p.TrackStock {
			continue
		}
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", id, need[id]).
			UpdateColumn("stock", gorm.Expr("stock - ?", need[id]))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, apperr.Wrap(ErrInsufficientStock, errors.New(p.Name))
		}
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		item := models.OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal().Round(2),
			Notes:       l.Notes,
		}
		for _, opt := range l.Options {
			item.Customizations = append(item.Customizations, models.OrderItemCustomization{
				GroupName:  opt.GroupName,
				OptionName: opt.OptionName,
				PriceDelta: opt.PriceDelta,
			})
		}
		items = append(items, item)
	}
	return items, nil
}
