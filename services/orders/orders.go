// Package orders drives orders from checkout to delivery or cancellation.
package orders

import (
	"context"
	"errors"
	"strconv"

	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/services/fees"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound        = apperr.NotFound("Order not found")
	ErrInvalidTransition    = apperr.Conflict("Order cannot move to that status")
	ErrConcurrentUpdate     = apperr.Conflict("Order was changed by someone else, reload and try again")
	ErrForbidden            = apperr.Forbidden("You cannot access this order")
	ErrUnauthenticated      = apperr.Unauthorized("Authentication required")
	ErrCourierRequired      = apperr.Validation("Assign a courier before sending the order out")
	ErrInvalidStatus        = apperr.Validation("Invalid order status")
	ErrInvalidPaymentStatus = apperr.Validation("Invalid payment status")
	ErrInvalidRating        = apperr.Validation("Rating must be between 1 and 5")
	ErrNotDelivered         = apperr.Conflict("Only delivered orders can be rated")
	ErrAlreadyRated         = apperr.Conflict("This delivery was already rated")
	ErrNoCourier            = apperr.Conflict("This order had no courier")
)

// Quoter prices a delivery. *fees.Calculator implements it.
type Quoter interface {
	Quote(ctx context.Context, r models.Restaurant, destPostalCode string) (fees.Quote, error)
}

type Service struct {
	db     *gorm.DB
	fees   Quoter
	events notify.Publisher
}

func NewService(db *gorm.DB, q Quoter, events notify.Publisher) *Service {
	if events == nil {
		events = notify.Nop{}
	}
	return &Service{db: db, fees: q, events: events}
}

func currentActor(ctx context.Context) (actor.Actor, error) {
	a, ok := actor.From(ctx)
	if !ok {
		return actor.Actor{}, ErrUnauthenticated
	}
	return a, nil
}

// canView reports whether a may read order o.
func canView(a actor.Actor, o models.Order) bool {
	switch a.Role {
	case actor.RoleSuperadmin, actor.RoleSystem:
		return true
	case actor.RoleMerchant:
		return a.RestaurantID == o.RestaurantID
	case actor.RoleCourier:
		return o.CourierID != nil && *o.CourierID == a.CourierID
	case actor.RoleCustomer:
		return o.CustomerID != nil && *o.CustomerID == a.ID
	case actor.RoleGuest:
		return o.CustomerID == nil && o.SessionID != "" && o.SessionID == a.ID
	}
	return false
}

// canTransition checks who may drive the lifecycle: restaurant staff for their
// own orders, couriers only to deliver what they carry, customers only to
// cancel an order the restaurant has not confirmed yet.
func canTransition(a actor.Actor, o models.Order, target models.OrderStatus) bool {
	switch a.Role {
	case actor.RoleSuperadmin, actor.RoleSystem:
		return true
	case actor.RoleMerchant:
		return a.RestaurantID == o.RestaurantID
	case actor.RoleCourier:
		return target == models.OrderStatusDelivered &&
			o.CourierID != nil && *o.CourierID == a.CourierID
	case actor.RoleCustomer, actor.RoleGuest:
		return target == models.OrderStatusCancelled &&
			o.Status == models.OrderStatusPending && canView(a, o)
	}
	return false
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Customizations").
		Preload("Courier")
}

func (s *Service) load(ctx context.Context, query func(*gorm.DB) *gorm.DB) (models.Order, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return models.Order{}, err
	}

	var o models.Order
	err = query(preloadOrder(s.db.WithContext(ctx))).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return o, ErrOrderNotFound
	}
	if err != nil {
		return o, err
	}
	if !canView(a, o) {
		// Hide the existence of other people's orders.
		return models.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID uint) (models.Order, error) {
	return s.load(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("id = ?", orderID) })
}

func (s *Service) GetByReference(ctx context.Context, reference string) (models.Order, error) {
	return s.load(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("reference = ?", reference) })
}

// Lookup accepts a numeric id or an order reference.
func (s *Service) Lookup(ctx context.Context, key string) (models.Order, error) {
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		return s.Get(ctx, uint(id))
	}
	return s.GetByReference(ctx, key)
}

// ListFilter narrows List. Zero fields are ignored.
type ListFilter struct {
	RestaurantID uint
	CustomerID   string
	SessionID    string
	Statuses     []models.OrderStatus
	Limit        int
	Offset       int
}

// List returns orders newest first. The filter is narrowed to what the actor may see.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Order, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	switch a.Role {
	case actor.RoleMerchant:
		f.RestaurantID = a.RestaurantID
	case actor.RoleCustomer:
		f.CustomerID, f.SessionID = a.ID, ""
	case actor.RoleGuest:
		f.CustomerID, f.SessionID = "", a.ID
	case actor.RoleSuperadmin, actor.RoleSystem:
	default:
		return nil, ErrForbidden
	}

	q := preloadOrder(s.db.WithContext(ctx))
	if f.RestaurantID != 0 {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ? AND customer_id IS NULL", f.SessionID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	var out []models.Order
	err = q.Order("created_at DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&out).Error
	return out, err
}

// History returns the status history of an order, oldest first.
func (s *Service) History(ctx context.Context, orderID uint) ([]models.StatusHistoryEntry, error) {
	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	var entries []models.StatusHistoryEntry
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&entries).Error
	return entries, err
}

// Transition moves an order to target on behalf of the actor in ctx.
// Moving to out_for_delivery here requires a courier already attached; the
// usual way in is the delivery assignment service.
func (s *Service) Transition(ctx context.Context, orderID uint, target models.OrderStatus, notes string) (models.Order, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return models.Order{}, err
	}
	if _, err := models.ParseOrderStatus(string(target)); err != nil {
		return models.Order{}, ErrInvalidStatus
	}

	var (
		order models.Order
		from  models.OrderStatus
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := LockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !canView(a, o) {
			return ErrOrderNotFound
		}
		if !canTransition(a, o, target) {
			return ErrForbidden
		}
		if !CanTransition(o.Status, target) {
			return apperr.Wrap(ErrInvalidTransition, errors.New(string(o.Status)+" -> "+string(target)))
		}
		if target == models.OrderStatusOutForDelivery && o.CourierID == nil {
			return ErrCourierRequired
		}

		from = o.Status
		if err := applyTransition(tx, &o, target, a, notes); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	e := notify.OrderEvent(notify.EventStatusChanged, order)
	e.FromStatus = from
	e.Note = notes
	notify.Emit(ctx, s.events, e)
	return order, nil
}

// Cancel is Transition to cancelled.
func (s *Service) Cancel(ctx context.Context, orderID uint, reason string) (models.Order, error) {
	return s.Transition(ctx, orderID, models.OrderStatusCancelled, reason)
}

// UpdatePaymentStatus records a payment outcome reported by restaurant staff.
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID uint, status string) (models.Order, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return models.Order{}, err
	}
	ps, err := models.ParsePaymentStatus(status)
	if err != nil {
		return models.Order{}, ErrInvalidPaymentStatus
	}

	var order models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := LockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !a.CanManageRestaurant(o.RestaurantID) {
			return ErrForbidden
		}
		if err := tx.Model(&o).Update("payment_status", ps).Error; err != nil {
			return err
		}
		o.PaymentStatus = ps
		order = o
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	notify.Emit(ctx, s.events, notify.OrderEvent(notify.EventPaymentChanged, order))
	return order, nil
}

// RateCourier lets the customer score the courier of a delivered order once.
func (s *Service) RateCourier(ctx context.Context, orderID uint, rating int) (models.Order, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return models.Order{}, err
	}
	if rating < 1 || rating > 5 {
		return models.Order{}, ErrInvalidRating
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := LockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !a.Is(actor.RoleCustomer, actor.RoleGuest) || !canView(a, o) {
			return ErrOrderNotFound
		}
		if o.Status != models.OrderStatusDelivered {
			return ErrNotDelivered
		}
		if o.CourierID == nil {
			return ErrNoCourier
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND courier_rating IS NULL", o.ID).
			Update("courier_rating", rating)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyRated
		}
		return tx.Model(&models.Courier{}).Where("id = ?", *o.CourierID).
			UpdateColumns(map[string]any{
				"rating_sum":   gorm.Expr("rating_sum + ?", rating),
				"rating_count": gorm.Expr("rating_count + 1"),
			}).Error
	})
	if err != nil {
		return models.Order{}, err
	}
	return s.Get(ctx, orderID)
}
