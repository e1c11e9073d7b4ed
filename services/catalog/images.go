package catalog

import (
	"context"
	"io"

	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/storage"
)

var (
	ErrUnsupportedImage = apperr.Validation("Image must be JPEG, PNG, GIF or WebP")
	ErrUnknownImageKind = apperr.Validation("Unknown image target")
)

// ImageKind names the record an uploaded image belongs to.
type ImageKind string

const (
	ImageRestaurantLogo ImageKind = "logo"
	ImageCategory       ImageKind = "category"
	ImageProduct        ImageKind = "product"
)

// AttachImage stores an upload and points the target record at it in the same
// call. The previous image, if any, is deleted afterwards.
func (s *Service) AttachImage(ctx context.Context, kind ImageKind, id uint, filename, contentType string, r io.Reader) (string, error) {
	var (
		model        any
		column       string
		folder       string
		current      string
		restaurantID uint
	)
	switch kind {
	case ImageRestaurantLogo:
		rest, err := s.GetRestaurant(ctx, id)
		if err != nil {
			return "", err
		}
		model, column, folder, current, restaurantID = &models.Restaurant{}, "logo", "logos", rest.Logo, rest.ID
	case ImageCategory:
		c, err := s.getCategory(ctx, id)
		if err != nil {
			return "", err
		}
		model, column, folder, current, restaurantID = &models.Category{}, "image", "categories", c.Image, c.RestaurantID
	case ImageProduct:
		p, err := s.GetProduct(ctx, id)
		if err != nil {
			return "", err
		}
		model, column, folder, current, restaurantID = &models.Product{}, "image", "products", p.Image, p.RestaurantID
	default:
		return "", ErrUnknownImageKind
	}
	if err := authorize(ctx, restaurantID); err != nil {
		return "", err
	}

	key, err := storage.ImageKey(folder, filename, contentType)
	if err != nil {
		return "", ErrUnsupportedImage
	}
	url, err := s.store.Save(ctx, key, r, contentType)
	if err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Update(column, url).Error; err != nil {
		s.discard(ctx, url)
		return "", err
	}
	if current != "" && current != url {
		s.discard(ctx, current)
	}
	return url, nil
}
