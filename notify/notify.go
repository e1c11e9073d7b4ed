// Package notify fans order events out to interested parties after the
// database work that produced them has committed.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ronwsv/menuly-delivery/models"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderCreated    EventType = "order.created"
	EventStatusChanged   EventType = "order.status_changed"
	EventCourierAssigned EventType = "order.courier_assigned"
	EventOccurrence      EventType = "delivery.occurrence"
	EventPaymentChanged  EventType = "order.payment_changed"
)

// Event is the payload delivered to every publisher.
type Event struct {
	Type         EventType            `json:"type"`
	OrderID      uint                 `json:"order_id"`
	Reference    string               `json:"reference"`
	RestaurantID uint                 `json:"restaurant_id"`
	CustomerID   string               `json:"customer_id,omitempty"`
	CourierID    uint                 `json:"courier_id,omitempty"`
	FromStatus   models.OrderStatus   `json:"from_status,omitempty"`
	Status       models.OrderStatus   `json:"status"`
	Payment      models.PaymentStatus `json:"payment_status,omitempty"`
	Total        decimal.Decimal      `json:"total"`
	Note         string               `json:"note,omitempty"`
	At           time.Time            `json:"at"`
}

// OrderEvent builds an event describing order.
func OrderEvent(t EventType, order models.Order) Event {
	e := Event{
		Type:         t,
		OrderID:      order.ID,
		Reference:    order.Reference,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		Payment:      order.PaymentStatus,
		Total:        order.Total,
		At:           time.Now().UTC(),
	}
	if order.CustomerID != nil {
		e.CustomerID = *order.CustomerID
	}
	if order.CourierID != nil {
		e.CourierID = *order.CourierID
	}
	return e
}

// RoutingKey is the topic key used by broker publishers, e.g. "order.out_for_delivery".
func (e Event) RoutingKey() string {
	switch e.Type {
	case EventStatusChanged, EventOrderCreated:
		return "order." + string(e.Status)
	default:
		return string(e.Type)
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Emit publishes e and logs a failure instead of returning it; callers have
// already committed and must not fail the request because of a notification.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "event publish failed",
			"event", e.Type, "order_id", e.OrderID, "error", err)
	}
}

// Recorder keeps published events in memory. Tests use it to assert on side effects.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

// Types returns the type of every recorded event in order.
func (r *Recorder) Types() []EventType {
	out := make([]EventType, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
