package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/actor"
	orderControllers "github.com/ronwsv/menuly-delivery/controllers/order"
	"github.com/ronwsv/menuly-delivery/middleware"
)

// SetupOrderRoutes registers “/orders/*”. Each service call checks that the
// caller may see or change the particular order.
func SetupOrderRoutes(r *gin.Engine, d Deps) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken(d.Auth))
	{
		// Orders placed by the caller (customer or guest session)
		orders.GET("/mine", orderControllers.MyOrders(d.Orders))

		// Lookup by numeric id or public reference
		orders.GET("/:id", orderControllers.GetOrder(d.Orders))
		orders.GET("/:id/history", orderControllers.GetHistory(d.Orders))

		orders.POST("/:id/cancel", orderControllers.CancelOrder(d.Orders))
		orders.POST("/:id/rating", middleware.RequireRole(actor.RoleCustomer), orderControllers.RateCourier(d.Orders))

		// Restaurant staff moves the order along and records payment
		orders.PUT("/:id/status", middleware.RequireRole(actor.RoleMerchant), orderControllers.UpdateOrderStatus(d.Orders))
		orders.PUT("/:id/payment-status", middleware.RequireRole(actor.RoleMerchant), orderControllers.UpdatePaymentStatus(d.Orders))
	}

	// websocket endpoint for real-time order updates
	r.GET("/ws/orders", middleware.ValidateToken(d.Auth), orderControllers.OrderWebSocketHandler(d.Hub))
}
