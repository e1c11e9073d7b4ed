package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/ronwsv/menuly-delivery/controllers/admin"
	courierControllers "github.com/ronwsv/menuly-delivery/controllers/courier"
	userControllers "github.com/ronwsv/menuly-delivery/controllers/user"
	"github.com/ronwsv/menuly-delivery/middleware"
)

// SetupAdminRoutes registers all “/admin/*” endpoints. Requires API‐Key middleware.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(d.APIKey))
	{
		// ─────────── Customers ───────────
		adminGroup.GET("/users", userControllers.GetAllUsers(d.Auth))

		// ─────────── Restaurants (tenants) ───────────
		restaurants := adminGroup.Group("/restaurants")
		{
			restaurants.GET("", adminController.ListRestaurants(d.Catalog))
			restaurants.POST("", adminController.CreateRestaurant(d.Catalog))
			restaurants.PUT("/:restaurantID/active", adminController.SetRestaurantActive(d.Catalog))
			restaurants.DELETE("/:restaurantID", adminController.DeleteRestaurant(d.Catalog))
		}

		// ─────────── Staff Approval Workflow ───────────
		staff := adminGroup.Group("/staff")
		{
			staff.GET("", adminController.ListStaff(d.Auth))
			staff.POST("/approve", adminController.ApproveStaff(d.Auth))
			staff.POST("/reject", adminController.RejectStaff(d.Auth))
		}

		// ─────────── Couriers ───────────
		couriers := adminGroup.Group("/couriers")
		{
			couriers.GET("", courierControllers.ListCouriers(d.Delivery))
			couriers.POST("", adminController.CreateCourier(d.Delivery))
			couriers.GET("/:id", adminController.GetCourier(d.Delivery))
			couriers.PUT("/:id", adminController.UpdateCourier(d.Delivery))
		}
	}
}
