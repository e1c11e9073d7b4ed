package catalog

import (
	"context"
	"regexp"
	"strings"

	"github.com/ronwsv/menuly-delivery/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RestaurantInput carries editable restaurant fields. Nil pointers are left unchanged on update.
type RestaurantInput struct {
	Name               string           `json:"name"`
	Slug               string           `json:"slug"`
	Phone              *string          `json:"phone"`
	Address            *models.Address  `json:"address"`
	MinimumOrder       *decimal.Decimal `json:"minimum_order"`
	DeliveryFlatFee    *decimal.Decimal `json:"delivery_flat_fee"`
	ClearFlatFee       bool             `json:"clear_flat_fee"`
	DeliveryBaseFee    *decimal.Decimal `json:"delivery_base_fee"`
	DeliveryFeePerKm   *decimal.Decimal `json:"delivery_fee_per_km"`
	DeliveryIncludedKm *float64         `json:"delivery_included_km"`
	DeliveryMaxKm      *float64         `json:"delivery_max_km"`
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a name into a lowercase url fragment, e.g. "Pizza da Nona!" -> "pizza-da-nona".
func Slugify(s string) string {
	replacer := strings.NewReplacer("á", "a", "à", "a", "ã", "a", "â", "a", "é", "e", "ê", "e",
		"í", "i", "ó", "o", "õ", "o", "ô", "o", "ú", "u", "ç", "c")
	s = replacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	return strings.Trim(slugInvalid.ReplaceAllString(s, "-"), "-")
}

func (in RestaurantInput) validateMoney() error {
	for _, d := range []*decimal.Decimal{in.MinimumOrder, in.DeliveryFlatFee, in.DeliveryBaseFee, in.DeliveryFeePerKm} {
		if d != nil && d.IsNegative() {
			return ErrNegativePrice
		}
	}
	return nil
}

func (in RestaurantInput) apply(r *models.Restaurant) {
	if in.Phone != nil {
		r.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		r.Address = *in.Address
	}
	if in.MinimumOrder != nil {
		r.MinimumOrder = in.MinimumOrder.Round(2)
	}
	if in.DeliveryFlatFee != nil {
		fee := in.DeliveryFlatFee.Round(2)
		r.DeliveryFlatFee = &fee
	}
	if in.ClearFlatFee {
		r.DeliveryFlatFee = nil
	}
	if in.DeliveryBaseFee != nil {
		r.DeliveryBaseFee = in.DeliveryBaseFee.Round(2)
	}
	if in.DeliveryFeePerKm != nil {
		r.DeliveryFeePerKm = in.DeliveryFeePerKm.Round(2)
	}
	if in.DeliveryIncludedKm != nil {
		r.DeliveryIncludedKm = *in.DeliveryIncludedKm
	}
	if in.DeliveryMaxKm != nil {
		r.DeliveryMaxKm = *in.DeliveryMaxKm
	}
}

// CreateRestaurant registers a tenant. New restaurants are active and closed.
func (s *Service) CreateRestaurant(ctx context.Context, in RestaurantInput) (models.Restaurant, error) {
	if err := requireAdmin(ctx); err != nil {
		return models.Restaurant{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Restaurant{}, ErrNameRequired
	}
	if err := in.validateMoney(); err != nil {
		return models.Restaurant{}, err
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}

	r := models.Restaurant{Name: name, Slug: slug, Active: true}
	in.apply(&r)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Unscoped().Model(&models.Restaurant{}).Where("slug = ?", slug).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrSlugTaken
		}
		return tx.Create(&r).Error
	})
	return r, err
}

func (s *Service) UpdateRestaurant(ctx context.Context, id uint, in RestaurantInput) (models.Restaurant, error) {
	if err := authorize(ctx, id); err != nil {
		return models.Restaurant{}, err
	}
	if err := in.validateMoney(); err != nil {
		return models.Restaurant{}, err
	}

	var r models.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, id).Error; err != nil {
			return notFound(err, ErrRestaurantNotFound)
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			r.Name = name
		}
		if slug := Slugify(in.Slug); slug != "" && slug != r.Slug {
			var taken int64
			if err := tx.Unscoped().Model(&models.Restaurant{}).Where("slug = ? AND id <> ?", slug, id).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return ErrSlugTaken
			}
			r.Slug = slug
		}
		in.apply(&r)
		return tx.Save(&r).Error
	})
	return r, err
}

func (s *Service) GetRestaurant(ctx context.Context, id uint) (models.Restaurant, error) {
	var r models.Restaurant
	err := s.db.WithContext(ctx).First(&r, id).Error
	return r, notFound(err, ErrRestaurantNotFound)
}

// GetRestaurantBySlug finds an active restaurant for the storefront.
func (s *Service) GetRestaurantBySlug(ctx context.Context, slug string) (models.Restaurant, error) {
	var r models.Restaurant
	err := s.db.WithContext(ctx).Where("slug = ? AND active = ?", slug, true).First(&r).Error
	return r, notFound(err, ErrRestaurantNotFound)
}

func (s *Service) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out []models.Restaurant
	err := s.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// SetRestaurantOpen opens or closes the restaurant for new orders.
func (s *Service) SetRestaurantOpen(ctx context.Context, id uint, open bool) (models.Restaurant, error) {
	if err := authorize(ctx, id); err != nil {
		return models.Restaurant{}, err
	}
	return s.setRestaurantFlag(ctx, id, "open", open)
}

// SetRestaurantActive suspends or reinstates a tenant.
func (s *Service) SetRestaurantActive(ctx context.Context, id uint, active bool) (models.Restaurant, error) {
	if err := requireAdmin(ctx); err != nil {
		return models.Restaurant{}, err
	}
	return s.setRestaurantFlag(ctx, id, "active", active)
}

func (s *Service) setRestaurantFlag(ctx context.Context, id uint, column string, value bool) (models.Restaurant, error) {
	res := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return models.Restaurant{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Restaurant{}, ErrRestaurantNotFound
	}
	return s.GetRestaurant(ctx, id)
}

// DeleteRestaurant soft-deletes a tenant; its orders stay untouched.
func (s *Service) DeleteRestaurant(ctx context.Context, id uint) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Delete(&models.Restaurant{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}
