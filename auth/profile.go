package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"gorm.io/gorm"
)

var (
	ErrCustomerOnly     = apperr.Forbidden("Only customers have a profile")
	ErrCustomerNotFound = apperr.NotFound("Customer not found")
)

type ProfileInput struct {
	Name    *string         `json:"name"`
	Phone   *string         `json:"phone"`
	Picture *string         `json:"picture"`
	Address *models.Address `json:"address"`
}

func customerID(ctx context.Context) (string, error) {
	a, ok := actor.From(ctx)
	if !ok || a.Role != actor.RoleCustomer {
		return "", ErrCustomerOnly
	}
	return a.ID, nil
}

// Profile returns the calling customer's account.
func (s *Service) Profile(ctx context.Context) (models.Customer, error) {
	id, err := customerID(ctx)
	if err != nil {
		return models.Customer{}, err
	}
	var c models.Customer
	err = s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, ErrCustomerNotFound
	}
	return c, err
}

// UpdateProfile changes the fields present in the input. The saved address
// pre-fills checkout forms.
func (s *Service) UpdateProfile(ctx context.Context, in ProfileInput) (models.Customer, error) {
	c, err := s.Profile(ctx)
	if err != nil {
		return c, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Picture != nil {
		updates["picture"] = strings.TrimSpace(*in.Picture)
	}
	if in.Address != nil {
		updates["street"] = in.Address.Street
		updates["number"] = in.Address.Number
		updates["complement"] = in.Address.Complement
		updates["neighborhood"] = in.Address.Neighborhood
		updates["city"] = in.Address.City
		updates["state"] = in.Address.State
		updates["postal_code"] = in.Address.PostalCode
	}
	if len(updates) == 0 {
		return c, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
		return c, err
	}
	return s.Profile(ctx)
}

// ListCustomers returns public customer fields, newest first.
func (s *Service) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	if err := requireSuperadmin(ctx); err != nil {
		return nil, err
	}
	var out []models.Customer
	err := s.db.WithContext(ctx).
		Select("id", "email", "name", "picture", "provider", "created_at").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
