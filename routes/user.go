package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/actor"
	cartControllers "github.com/ronwsv/menuly-delivery/controllers/cart"
	orderControllers "github.com/ronwsv/menuly-delivery/controllers/order"
	userControllers "github.com/ronwsv/menuly-delivery/controllers/user"
	"github.com/ronwsv/menuly-delivery/middleware"
)

// SetupUserRoutes registers the profile and cart endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, d Deps) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken(d.Auth), middleware.RequireRole(actor.RoleCustomer))
	{
		userGroup.GET("", userControllers.GetUser(d.Auth))    // GET /user
		userGroup.PUT("", userControllers.UpdateUser(d.Auth)) // PUT /user
	}

	// ──────────────── Shopping Cart (customers and guests) ────────────────
	cartGroup := r.Group("/cart/:restaurantID")
	cartGroup.Use(middleware.ValidateToken(d.Auth), middleware.RequireRole(actor.RoleCustomer, actor.RoleGuest))
	{
		cartGroup.GET("", cartControllers.GetCart(d.Cart))
		cartGroup.DELETE("", cartControllers.ClearCart(d.Cart))
		cartGroup.POST("/items", cartControllers.AddItem(d.Cart))
		cartGroup.PATCH("/items/:itemID", cartControllers.UpdateItem(d.Cart))
		cartGroup.DELETE("/items/:itemID", cartControllers.DeleteItem(d.Cart))
		cartGroup.POST("/checkout", orderControllers.Checkout(d.Orders))
	}
}
