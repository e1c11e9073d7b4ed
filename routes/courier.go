package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/actor"
	courierControllers "github.com/ronwsv/menuly-delivery/controllers/courier"
	"github.com/ronwsv/menuly-delivery/middleware"
)

// SetupCourierRoutes registers the courier app endpoints under “/courier”.
func SetupCourierRoutes(r *gin.Engine, d Deps) {
	courier := r.Group("/courier")
	courier.Use(middleware.ValidateToken(d.Auth), middleware.RequireRole(actor.RoleCourier))
	{
		courier.PUT("/availability", courierControllers.SetAvailability(d.Delivery))
		courier.PUT("/pause", courierControllers.SetPaused(d.Delivery))

		courier.GET("/orders/available", courierControllers.AvailableOrders(d.Delivery))
		courier.GET("/orders/active", courierControllers.ActiveOrder(d.Delivery))
		courier.POST("/orders/:id/accept", courierControllers.AcceptOrder(d.Delivery))
		courier.POST("/orders/:id/delivered", courierControllers.MarkDelivered(d.Delivery))
		courier.POST("/orders/:id/occurrences", courierControllers.RegisterOccurrence(d.Delivery))
	}

	// Shared between couriers and restaurant staff; filtered per caller.
	r.GET("/occurrences",
		middleware.ValidateToken(d.Auth),
		middleware.RequireRole(actor.RoleCourier, actor.RoleMerchant),
		courierControllers.ListOccurrences(d.Delivery),
	)
}
