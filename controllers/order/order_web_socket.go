package orderControllers

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/response"
)

var errNoFeed = apperr.Forbidden("Guests have no live order feed")

// EventFilter returns which order events a is allowed to receive live.
func EventFilter(a actor.Actor) notify.Filter {
	switch a.Role {
	case actor.RoleSuperadmin:
		return func(notify.Event) bool { return true }
	case actor.RoleMerchant:
		return func(e notify.Event) bool { return e.RestaurantID == a.RestaurantID }
	case actor.RoleCourier:
		return func(e notify.Event) bool {
			return e.CourierID == a.CourierID || e.Status == models.OrderStatusAwaitingCourier
		}
	case actor.RoleCustomer:
		return func(e notify.Event) bool { return e.CustomerID == a.ID }
	}
	return nil
}

// GET /ws/orders streams order events to the authenticated caller.
func OrderWebSocketHandler(hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, _ := actor.From(c.Request.Context())
		filter := EventFilter(a)
		if filter == nil {
			response.Fail(c, errNoFeed)
			return
		}
		hub.Serve(c.Writer, c.Request, filter)
	}
}
