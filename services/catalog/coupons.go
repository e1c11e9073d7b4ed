package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCouponKind  = apperr.Validation("Coupon kind must be percent or fixed")
	ErrInvalidCouponValue = apperr.Validation("Coupon value must be positive, and at most 100 for percent coupons")
	ErrCouponCodeTaken    = apperr.Conflict("Coupon code already exists")
)

type CouponInput struct {
	Code        string          `json:"code"`
	Kind        string          `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	ExpiresAt   *time.Time      `json:"expires_at"`
}

func (s *Service) CreateCoupon(ctx context.Context, restaurantID uint, in CouponInput) (models.Coupon, error) {
	if err := authorize(ctx, restaurantID); err != nil {
		return models.Coupon{}, err
	}
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return models.Coupon{}, apperr.Validation("Coupon code is required")
	}
	kind := models.CouponKind(strings.ToLower(in.Kind))
	if kind != models.CouponPercent && kind != models.CouponFixed {
		return models.Coupon{}, ErrInvalidCouponKind
	}
	if !in.Value.IsPositive() || (kind == models.CouponPercent && in.Value.GreaterThan(decimal.NewFromInt(100))) {
		return models.Coupon{}, ErrInvalidCouponValue
	}
	if in.MinSubtotal.IsNegative() {
		return models.Coupon{}, ErrNegativePrice
	}

	var taken int64
	err := s.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("restaurant_id = ? AND UPPER(code) = ?", restaurantID, code).
		Count(&taken).Error
	if err != nil {
		return models.Coupon{}, err
	}
	if taken > 0 {
		return models.Coupon{}, ErrCouponCodeTaken
	}

	c := models.Coupon{
		RestaurantID: restaurantID,
		Code:         code,
		Kind:         kind,
		Value:        in.Value.Round(2),
		MinSubtotal:  in.MinSubtotal.Round(2),
		Active:       true,
		ExpiresAt:    in.ExpiresAt,
	}
	err = s.db.WithContext(ctx).Create(&c).Error
	return c, err
}

func (s *Service) ListCoupons(ctx context.Context, restaurantID uint) ([]models.Coupon, error) {
	if err := authorize(ctx, restaurantID); err != nil {
		return nil, err
	}
	var out []models.Coupon
	err := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (s *Service) SetCouponActive(ctx context.Context, id uint, active bool) (models.Coupon, error) {
	var c models.Coupon
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return c, notFound(err, ErrCouponNotFound)
	}
	if err := authorize(ctx, c.RestaurantID); err != nil {
		return models.Coupon{}, ErrCouponNotFound
	}
	if err := s.db.WithContext(ctx).Model(&models.Coupon{}).Where("id = ?", id).Update("active", active).Error; err != nil {
		return c, err
	}
	c.Active = active
	return c, nil
}
