package delivery

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
	ErrAdminOnly        = apperr.Forbidden("Only the platform administrator can manage couriers")
	ErrCourierNameEmpty = apperr.Validation("Courier name is required")
	ErrCourierEmail     = apperr.Validation("Courier email is required")
	ErrCourierExists    = apperr.Conflict("A courier with this email already exists")
)

// CourierInput is the editable part of a courier profile.
type CourierInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Vehicle string `json:"vehicle"`
}

func requireAdmin(ctx context.Context) error {
	a, ok := actor.From(ctx)
	if !ok || !a.Is(actor.RoleSuperadmin, actor.RoleSystem) {
		return ErrAdminOnly
	}
	return nil
}

// CreateCourier registers a courier. New couriers start offline.
func (s *Service) CreateCourier(ctx context.Context, in CourierInput) (models.Courier, error) {
	if err := requireAdmin(ctx); err != nil {
		return models.Courier{}, err
	}
	c := models.Courier{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:   strings.TrimSpace(in.Phone),
		Vehicle: strings.TrimSpace(in.Vehicle),
	}
	if c.Name == "" {
		return c, ErrCourierNameEmpty
	}
	if c.Email == "" {
		return c, ErrCourierEmail
	}
	// The identity uid is bound on first login; until then the email keeps the row unique.
	c.UserID = "pending:" + c.Email

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Courier{}).Where("email = ?", c.Email).Count(&existing).Error; err != nil {
		return c, err
	}
	if existing > 0 {
		return c, ErrCourierExists
	}
	err := s.db.WithContext(ctx).Create(&c).Error
	return c, err
}

func (s *Service) UpdateCourier(ctx context.Context, id uint, in CourierInput) (models.Courier, error) {
	if err := requireAdmin(ctx); err != nil {
		return models.Courier{}, err
	}
	c, err := s.GetCourier(ctx, id)
	if err != nil {
		return c, err
	}
	updates := map[string]any{}
	if v := strings.TrimSpace(in.Name); v != "" {
		updates["name"] = v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		updates["phone"] = v
	}
	if v := strings.TrimSpace(in.Vehicle); v != "" {
		updates["vehicle"] = v
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Courier{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return c, err
		}
	}
	return s.GetCourier(ctx, id)
}

func (s *Service) GetCourier(ctx context.Context, id uint) (models.Courier, error) {
	var c models.Courier
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, ErrCourierNotFound
	}
	return c, err
}

// ListCouriers returns couriers by name. onlyAvailable keeps those ready for offers.
func (s *Service) ListCouriers(ctx context.Context, onlyAvailable bool) ([]models.Courier, error) {
	a, ok := actor.From(ctx)
	if !ok || !a.Is(actor.RoleSuperadmin, actor.RoleSystem, actor.RoleMerchant) {
		return nil, ErrAdminOnly
	}
	q := s.db.WithContext(ctx).Order("name")
	if onlyAvailable {
		q = q.Where("available = ? AND paused = ?", true, false)
	}
	var out []models.Courier
	err := q.Find(&out).Error
	return out, err
}

// BindCourier links a courier row to an identity on login, matching by email.
// It returns ErrCourierNotFound when the email does not belong to a courier.
func (s *Service) BindCourier(ctx context.Context, email, userID string) (models.Courier, error) {
	var c models.Courier
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, ErrCourierNotFound
	}
	if err != nil {
		return c, err
	}
	if c.UserID != userID {
		if err := s.db.WithContext(ctx).Model(&models.Courier{}).Where("id = ?", c.ID).Update("user_id", userID).Error; err != nil {
			return c, err
		}
		c.UserID = userID
	}
	return c, nil
}
