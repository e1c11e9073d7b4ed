// Package delivery attaches couriers to orders and tracks what happens on the road.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/services/orders"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAlreadyAccepted    = apperr.Conflict("Order already accepted by another courier")
	ErrNotAwaitingCourier = apperr.Conflict("Order is not waiting for a courier")
	ErrCourierNotFound    = apperr.NotFound("Courier not found")
	ErrCourierUnavailable = apperr.Conflict("Courier is not available")
	ErrCourierBusy        = apperr.Conflict("Courier already has an order out for delivery")
	ErrNotCourier         = apperr.Forbidden("Only couriers can do this")
	ErrForbidden          = apperr.Forbidden("You cannot manage deliveries of this order")
	ErrNoActiveDelivery   = apperr.NotFound("No delivery in progress")
)

type Service struct {
	db     *gorm.DB
	orders *orders.Service
	events notify.Publisher
}

func NewService(db *gorm.DB, o *orders.Service, events notify.Publisher) *Service {
	if events == nil {
		events = notify.Nop{}
	}
	return &Service{db: db, orders: o, events: events}
}

func courierFrom(ctx context.Context) (actor.Actor, error) {
	a, ok := actor.From(ctx)
	if !ok || a.Role != actor.RoleCourier || a.CourierID == 0 {
		return actor.Actor{}, ErrNotCourier
	}
	return a, nil
}

// ListAvailable returns orders waiting for a courier, oldest first.
func (s *Service) ListAvailable(ctx context.Context) ([]models.Order, error) {
	if _, err := courierFrom(ctx); err != nil {
		return nil, err
	}
	var out []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND courier_id IS NULL", models.OrderStatusAwaitingCourier).
		Order("created_at, id").
		Find(&out).Error
	return out, err
}

// Accept lets the courier in ctx take an order that is waiting for a courier.
// When two couriers race for the same order exactly one wins; the other gets
// ErrAlreadyAccepted.
func (s *Service) Accept(ctx context.Context, orderID uint) (models.Order, error) {
	a, err := courierFrom(ctx)
	if err != nil {
		return models.Order{}, err
	}
	return s.assign(ctx, a, orderID, a.CourierID, []models.OrderStatus{models.OrderStatusAwaitingCourier})
}

// Assign is the manual path: restaurant staff hand an order that is ready or
// waiting for a courier to a specific courier.
func (s *Service) Assign(ctx context.Context, orderID, courierID uint) (models.Order, error) {
	a, ok := actor.From(ctx)
	if !ok || !a.Is(actor.RoleMerchant, actor.RoleSuperadmin, actor.RoleSystem) {
		return models.Order{}, ErrForbidden
	}
	return s.assign(ctx, a, orderID, courierID, []models.OrderStatus{
		models.OrderStatusReady, models.OrderStatusAwaitingCourier,
	})
}

func (s *Service) assign(ctx context.Context, a actor.Actor, orderID, courierID uint, from []models.OrderStatus) (models.Order, error) {
	var (
		order    models.Order
		previous models.OrderStatus
		repeated bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := orders.LockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if a.Role == actor.RoleMerchant && a.RestaurantID != o.RestaurantID {
			return orders.ErrOrderNotFound
		}

		if o.CourierID != nil {
			if *o.CourierID == courierID && o.Status == models.OrderStatusOutForDelivery {
				order, repeated = o, true
				return nil
			}
			return ErrAlreadyAccepted
		}
		if !statusIn(o.Status, from) {
			if o.Status == models.OrderStatusOutForDelivery || o.Status == models.OrderStatusDelivered {
				return ErrAlreadyAccepted
			}
			return apperr.Wrap(ErrNotAwaitingCourier, errors.New(string(o.Status)))
		}

		var c models.Courier
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, courierID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourierNotFound
		}
		if err != nil {
			return err
		}
		if !c.Available || c.Paused {
			return ErrCourierUnavailable
		}

		var busy int64
		err = tx.Model(&models.Order{}).
			Where("courier_id = ? AND status = ?", courierID, models.OrderStatusOutForDelivery).
			Count(&busy).Error
		if err != nil {
			return err
		}
		if busy > 0 {
			return ErrCourierBusy
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ? AND courier_id IS NULL", o.ID, from).
			Updates(map[string]any{
				"status":     models.OrderStatusOutForDelivery,
				"courier_id": courierID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyAccepted
		}

		assignedBy := "courier"
		if a.Role != actor.RoleCourier {
			assignedBy = a.String()
		}
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.DeliveryAcceptance{
			OrderID:    o.ID,
			CourierID:  courierID,
			AssignedBy: assignedBy,
		}).Error
		if err != nil {
			return err
		}

		note := fmt.Sprintf("courier %d (%s)", c.ID, c.Name)
		if err := orders.AppendHistory(tx, o.ID, o.Status, models.OrderStatusOutForDelivery, a, note); err != nil {
			return err
		}

		previous = o.Status
		o.Status = models.OrderStatusOutForDelivery
		o.CourierID = &c.ID
		o.Courier = &c
		order = o
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	if repeated {
		return order, nil
	}

	changed := notify.OrderEvent(notify.EventStatusChanged, order)
	changed.FromStatus = previous
	notify.Emit(ctx, s.events, changed)
	notify.Emit(ctx, s.events, notify.OrderEvent(notify.EventCourierAssigned, order))
	return order, nil
}

func statusIn(s models.OrderStatus, set []models.OrderStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Active returns the order the courier in ctx is currently carrying.
func (s *Service) Active(ctx context.Context) (models.Order, error) {
	a, err := courierFrom(ctx)
	if err != nil {
		return models.Order{}, err
	}
	var o models.Order
	err = s.db.WithContext(ctx).
		Preload("Items.Customizations").
		Where("courier_id = ? AND status = ?", a.CourierID, models.OrderStatusOutForDelivery).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return o, ErrNoActiveDelivery
	}
	return o, err
}

// MarkDelivered closes the courier's delivery.
func (s *Service) MarkDelivered(ctx context.Context, orderID uint) (models.Order, error) {
	if _, err := courierFrom(ctx); err != nil {
		return models.Order{}, err
	}
	return s.orders.Transition(ctx, orderID, models.OrderStatusDelivered, "")
}

// SetAvailability switches whether the courier in ctx receives offers.
func (s *Service) SetAvailability(ctx context.Context, available bool) (models.Courier, error) {
	return s.updateSelf(ctx, "available", available)
}

// SetPaused lets a courier take a break without going offline.
func (s *Service) SetPaused(ctx context.Context, paused bool) (models.Courier, error) {
	return s.updateSelf(ctx, "paused", paused)
}

func (s *Service) updateSelf(ctx context.Context, column string, value bool) (models.Courier, error) {
	a, err := courierFrom(ctx)
	if err != nil {
		return models.Courier{}, err
	}
	var c models.Courier
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, a.CourierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourierNotFound
			}
			return err
		}
		if err := tx.Model(&models.Courier{}).Where("id = ?", c.ID).Update(column, value).Error; err != nil {
			return err
		}
		return tx.First(&c, c.ID).Error
	})
	return c, err
}
