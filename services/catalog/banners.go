package catalog

import (
	"context"
	"io"
	"log/slog"

	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/storage"
)

// AddBanner uploads an image and shows it on the restaurant's storefront.
func (s *Service) AddBanner(ctx context.Context, restaurantID uint, filename, contentType string, r io.Reader) (models.Banner, error) {
	if err := authorize(ctx, restaurantID); err != nil {
		return models.Banner{}, err
	}
	key, err := storage.ImageKey("banners", filename, contentType)
	if err != nil {
		return models.Banner{}, ErrUnsupportedImage
	}
	url, err := s.store.Save(ctx, key, r, contentType)
	if err != nil {
		return models.Banner{}, err
	}

	b := models.Banner{RestaurantID: restaurantID, ImageURL: url}
	pos, err := nextPosition(s.db.WithContext(ctx), &models.Banner{}, "restaurant_id", restaurantID)
	if err != nil {
		return models.Banner{}, err
	}
	b.Position = pos
	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		s.discard(ctx, url)
		return models.Banner{}, err
	}
	return b, nil
}

// Banners lists the storefront banners of an active restaurant.
func (s *Service) Banners(ctx context.Context, slug string) ([]models.Banner, error) {
	r, err := s.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.listBanners(ctx, r.ID)
}

func (s *Service) listBanners(ctx context.Context, restaurantID uint) ([]models.Banner, error) {
	out := []models.Banner{}
	err := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("position, id").Find(&out).Error
	return out, err
}

// DeleteBanner removes the banner row and its stored image.
func (s *Service) DeleteBanner(ctx context.Context, id uint) error {
	var b models.Banner
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return notFound(err, ErrBannerNotFound)
	}
	if err := authorize(ctx, b.RestaurantID); err != nil {
		return ErrBannerNotFound
	}
	if err := s.db.WithContext(ctx).Delete(&b).Error; err != nil {
		return err
	}
	s.discard(ctx, b.ImageURL)
	return nil
}

// discard deletes a stored image, logging failures.
func (s *Service) discard(ctx context.Context, url string) {
	if url == "" || s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, url); err != nil {
		slog.WarnContext(ctx, "failed to delete stored image", "url", url, "error", err)
	}
}
