package catalog

import (
	"context"

	"github.com/ronwsv/menuly-delivery/models"
	"gorm.io/gorm"
)

// Menu is the public storefront view of a restaurant.
type Menu struct {
	Restaurant models.Restaurant `json:"restaurant"`
	Categories []models.Category `json:"categories"`
	Banners    []models.Banner   `json:"banners"`
}

// Menu returns the active categories of an active restaurant with their
// available products, both in position order. Empty categories are left out.
func (s *Service) Menu(ctx context.Context, slug string) (Menu, error) {
	r, err := s.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		return Menu{}, err
	}

	var categories []models.Category
	err = s.db.WithContext(ctx).
		Where("restaurant_id = ? AND active = ?", r.ID, true).
		Order("position, id").
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Where("available = ?", true).Order("position, id")
		}).
		Preload("Products.Groups", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("Products.Groups.Options", func(db *gorm.DB) *gorm.DB {
			return db.Where("available = ?", true).Order("position, id")
		}).
		Find(&categories).Error
	if err != nil {
		return Menu{}, err
	}

	visible := make([]models.Category, 0, len(categories))
	for _, c := range categories {
		if len(c.Products) > 0 {
			visible = append(visible, c)
		}
	}

	banners, err := s.listBanners(ctx, r.ID)
	if err != nil {
		return Menu{}, err
	}
	return Menu{Restaurant: r, Categories: visible, Banners: banners}, nil
}
