package catalog

import (
	"context"
	"strings"

	"github.com/ronwsv/menuly-delivery/models"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name     string `json:"name"`
	Position *int   `json:"position"`
	Active   *bool  `json:"active"`
}

func (s *Service) CreateCategory(ctx context.Context, restaurantID uint, in CategoryInput) (models.Category, error) {
	if err := authorize(ctx, restaurantID); err != nil {
		return models.Category{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Category{}, ErrNameRequired
	}

	c := models.Category{RestaurantID: restaurantID, Name: name, Active: true}
	if in.Active != nil {
		c.Active = *in.Active
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Restaurant{}, restaurantID).Error; err != nil {
			return notFound(err, ErrRestaurantNotFound)
		}
		if in.Position != nil {
			c.Position = *in.Position
		} else {
			pos, err := nextPosition(tx, &models.Category{}, "restaurant_id", restaurantID)
			if err != nil {
				return err
			}
			c.Position = pos
		}
		return tx.Create(&c).Error
	})
	return c, err
}

func (s *Service) getCategory(ctx context.Context, id uint) (models.Category, error) {
	var c models.Category
	err := s.db.WithContext(ctx).First(&c, id).Error
	if err != nil {
		return c, notFound(err, ErrCategoryNotFound)
	}
	if err := authorize(ctx, c.RestaurantID); err != nil {
		// Other tenants' categories do not exist for the caller.
		return models.Category{}, ErrCategoryNotFound
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (models.Category, error) {
	c, err := s.getCategory(ctx, id)
	if err != nil {
		return c, err
	}
	updates := map[string]any{}
	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
	}
	if in.Position != nil {
		updates["position"] = *in.Position
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return c, err
		}
	}
	return s.getCategory(ctx, id)
}

func (s *Service) SetCategoryActive(ctx context.Context, id uint, active bool) (models.Category, error) {
	return s.UpdateCategory(ctx, id, CategoryInput{Active: &active})
}

// DeleteCategory removes a category that never held products, deleted ones included.
func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	c, err := s.getCategory(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products int64
		if err := tx.Unscoped().Model(&models.Product{}).Where("category_id = ?", c.ID).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return ErrCategoryNotEmpty
		}
		return tx.Delete(&models.Category{}, c.ID).Error
	})
}

// ListCategories returns every category of a restaurant in menu order.
func (s *Service) ListCategories(ctx context.Context, restaurantID uint) ([]models.Category, error) {
	if err := authorize(ctx, restaurantID); err != nil {
		return nil, err
	}
	var out []models.Category
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("position, id").
		Find(&out).Error
	return out, err
}

// ReorderCategories sets positions to follow the order of ids.
func (s *Service) ReorderCategories(ctx context.Context, restaurantID uint, ids []uint) error {
	if err := authorize(ctx, restaurantID); err != nil {
		return err
	}
	return reorder(s.db.WithContext(ctx), &models.Category{}, restaurantID, ids)
}

func reorder(db *gorm.DB, model any, restaurantID uint, ids []uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for pos, id := range ids {
			res := tx.Model(model).Where("id = ? AND restaurant_id = ?", id, restaurantID).Update("position", pos)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
}
