// Package catalog manages what restaurants sell: restaurants, categories,
// products with their customization groups, banners and coupons.
package catalog

import (
	"context"
	"errors"

	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/storage"
	"gorm.io/gorm"
)

var (
	ErrForbidden          = apperr.Forbidden("You cannot manage this restaurant")
	ErrAdminOnly          = apperr.Forbidden("Only the platform administrator can do this")
	ErrRestaurantNotFound = apperr.NotFound("Restaurant not found")
	ErrCategoryNotFound   = apperr.NotFound("Category not found")
	ErrProductNotFound    = apperr.NotFound("Product not found")
	ErrGroupNotFound      = apperr.NotFound("Customization group not found")
	ErrOptionNotFound     = apperr.NotFound("Option not found")
	ErrBannerNotFound     = apperr.NotFound("Banner not found")
	ErrCouponNotFound     = apperr.NotFound("Coupon not found")
	ErrNameRequired       = apperr.Validation("Name is required")
	ErrNegativePrice      = apperr.Validation("Prices cannot be negative")
	ErrSlugTaken          = apperr.Conflict("Slug is already in use")
	ErrCategoryNotEmpty   = apperr.Conflict("Category still has products")
)

type Service struct {
	db    *gorm.DB
	store storage.Store
}

func NewService(db *gorm.DB, store storage.Store) *Service {
	return &Service{db: db, store: store}
}

func authorize(ctx context.Context, restaurantID uint) error {
	a, ok := actor.From(ctx)
	if !ok || !a.CanManageRestaurant(restaurantID) {
		return ErrForbidden
	}
	return nil
}

func requireAdmin(ctx context.Context) error {
	a, ok := actor.From(ctx)
	if !ok || !a.Is(actor.RoleSuperadmin, actor.RoleSystem) {
		return ErrAdminOnly
	}
	return nil
}

// notFound maps gorm's missing-row error to the given sentinel.
func notFound(err error, sentinel *apperr.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// nextPosition returns one past the highest position in table for the scope.
func nextPosition(tx *gorm.DB, model any, column string, value uint) (int, error) {
	var max int
	err := tx.Model(model).Where(column+" = ?", value).Select("COALESCE(MAX(position), -1)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
