package delivery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/services/orders"
	"gorm.io/gorm"
)

var (
	ErrInvalidOccurrenceKind = apperr.Validation("Invalid occurrence kind")
	ErrDescriptionRequired   = apperr.Validation("Describe what happened")
	ErrOccurrenceNotFound    = apperr.NotFound("Occurrence not found")
	ErrAlreadyResolved       = apperr.Conflict("Occurrence already resolved")
	ErrDeliveryNotInProgress = apperr.Conflict("Occurrences can only be filed while the order is out for delivery")
)

// RegisterOccurrence records an incident on an order the calling courier is
// currently delivering.
func (s *Service) RegisterOccurrence(ctx context.Context, orderID uint, kind models.OccurrenceKind, description string) (models.DeliveryOccurrence, error) {
	a, err := courierFrom(ctx)
	if err != nil {
		return models.DeliveryOccurrence{}, err
	}
	if !kind.Valid() {
		return models.DeliveryOccurrence{}, ErrInvalidOccurrenceKind
	}
	description = strings.TrimSpace(description)
	if description == "" && kind == models.OccurrenceOther {
		return models.DeliveryOccurrence{}, ErrDescriptionRequired
	}

	var o models.Order
	err = s.db.WithContext(ctx).First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DeliveryOccurrence{}, orders.ErrOrderNotFound
	}
	if err != nil {
		return models.DeliveryOccurrence{}, err
	}
	if o.CourierID == nil || *o.CourierID != a.CourierID {
		return models.DeliveryOccurrence{}, orders.ErrOrderNotFound
	}
	if o.Status != models.OrderStatusOutForDelivery {
		return models.DeliveryOccurrence{}, ErrDeliveryNotInProgress
	}

	occ := models.DeliveryOccurrence{
		OrderID:     o.ID,
		CourierID:   a.CourierID,
		Kind:        kind,
		Description: description,
	}
	if err := s.db.WithContext(ctx).Create(&occ).Error; err != nil {
		return models.DeliveryOccurrence{}, err
	}

	e := notify.OrderEvent(notify.EventOccurrence, o)
	e.Note = string(kind)
	notify.Emit(ctx, s.events, e)
	return occ, nil
}

// ResolveOccurrence closes an incident. Only staff of the order's restaurant may do it.
func (s *Service) ResolveOccurrence(ctx context.Context, occurrenceID uint, notes string) (models.DeliveryOccurrence, error) {
	a, ok := actor.From(ctx)
	if !ok {
		return models.DeliveryOccurrence{}, ErrForbidden
	}

	var occ models.DeliveryOccurrence
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&occ, occurrenceID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOccurrenceNotFound
		}
		if err != nil {
			return err
		}

		var o models.Order
		if err := tx.Select("id", "restaurant_id").First(&o, occ.OrderID).Error; err != nil {
			return err
		}
		if !a.CanManageRestaurant(o.RestaurantID) {
			return ErrOccurrenceNotFound
		}

		now := time.Now()
		res := tx.Model(&models.DeliveryOccurrence{}).
			Where("id = ? AND resolved = ?", occ.ID, false).
			Updates(map[string]any{
				"resolved":         true,
				"resolution_notes": strings.TrimSpace(notes),
				"resolved_by":      a.String(),
				"resolved_at":      now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyResolved
		}
		occ.Resolved = true
		occ.ResolutionNotes = strings.TrimSpace(notes)
		occ.ResolvedBy = a.String()
		occ.ResolvedAt = &now
		return nil
	})
	return occ, err
}

// OccurrenceFilter narrows ListOccurrences. Zero fields are ignored.
type OccurrenceFilter struct {
	OrderID        uint
	UnresolvedOnly bool
}

// ListOccurrences returns incidents newest first, limited to what the actor may see:
// couriers their own reports, staff their restaurant's orders.
func (s *Service) ListOccurrences(ctx context.Context, f OccurrenceFilter) ([]models.DeliveryOccurrence, error) {
	a, ok := actor.From(ctx)
	if !ok {
		return nil, ErrForbidden
	}

	q := s.db.WithContext(ctx).Model(&models.DeliveryOccurrence{})
	switch a.Role {
	case actor.RoleCourier:
		q = q.Where("courier_id = ?", a.CourierID)
	case actor.RoleMerchant:
		q = q.Where("order_id IN (?)",
			s.db.Model(&models.Order{}).Select("id").Where("restaurant_id = ?", a.RestaurantID))
	case actor.RoleSuperadmin, actor.RoleSystem:
	default:
		return nil, ErrForbidden
	}
	if f.OrderID != 0 {
		q = q.Where("order_id = ?", f.OrderID)
	}
	if f.UnresolvedOnly {
		q = q.Where("resolved = ?", false)
	}

	var out []models.DeliveryOccurrence
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}
