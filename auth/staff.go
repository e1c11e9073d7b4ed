package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"gorm.io/gorm"
)

var (
	ErrAdminOnly          = apperr.Forbidden("Only the platform administrator can do this")
	ErrStaffNotFound      = apperr.NotFound("Staff account not found")
	ErrRestaurantNotFound = apperr.NotFound("Restaurant not found")
)

// StaffActorID is the actor id carried by tokens of merchant staff.
func StaffActorID(id uint) string {
	return fmt.Sprintf("staff-%d", id)
}

func requireSuperadmin(ctx context.Context) error {
	a, ok := actor.From(ctx)
	if !ok || !a.Is(actor.RoleSuperadmin, actor.RoleSystem) {
		return ErrAdminOnly
	}
	return nil
}

func (s *Service) ListStaff(ctx context.Context, pendingOnly bool) ([]models.Staff, error) {
	if err := requireSuperadmin(ctx); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Order("created_at")
	if pendingOnly {
		q = q.Where("approved = ?", false)
	}
	var out []models.Staff
	err := q.Find(&out).Error
	return out, err
}

// ApproveStaff approves an account and binds it to a restaurant.
func (s *Service) ApproveStaff(ctx context.Context, email string, restaurantID uint) (models.Staff, error) {
	if err := requireSuperadmin(ctx); err != nil {
		return models.Staff{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	var st models.Staff
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&st).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStaffNotFound
			}
			return err
		}
		var found int64
		if err := tx.Model(&models.Restaurant{}).Where("id = ?", restaurantID).Count(&found).Error; err != nil {
			return err
		}
		if found == 0 {
			return ErrRestaurantNotFound
		}
		st.Approved = true
		st.RestaurantID = &restaurantID
		return tx.Model(&models.Staff{}).Where("id = ?", st.ID).
			Updates(map[string]any{"approved": true, "restaurant_id": restaurantID}).Error
	})
	return st, err
}

// RejectStaff deletes an account, pending or approved. Its tokens stay valid until they expire.
func (s *Service) RejectStaff(ctx context.Context, email string) error {
	if err := requireSuperadmin(ctx); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Delete(&models.Staff{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaffNotFound
	}
	return nil
}
