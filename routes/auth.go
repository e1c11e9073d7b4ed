package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/ronwsv/menuly-delivery/controllers/admin"
	orderControllers "github.com/ronwsv/menuly-delivery/controllers/order"
	productcontroller "github.com/ronwsv/menuly-delivery/controllers/product"
	userControllers "github.com/ronwsv/menuly-delivery/controllers/user"
)

// SetupAuthRoutes registers all “/auth/*” endpoints.
func SetupAuthRoutes(r *gin.Engine, d Deps) {
	authGroup := r.Group("/auth")
	{
		// Firebase ID token login for customers, staff and couriers
		authGroup.POST("/login", userControllers.Login(d.Auth))

		// Anonymous guest session with its own cart
		authGroup.POST("/guest", userControllers.CreateGuest(d.Auth))
	}
}

// SetupStorefrontRoutes registers the public per-restaurant pages.
func SetupStorefrontRoutes(r *gin.Engine, d Deps) {
	store := r.Group("/storefront/:slug")
	{
		store.GET("/menu", productcontroller.GetMenu(d.Catalog))
		store.GET("/banners", adminController.GetBanners(d.Catalog))
		store.POST("/delivery-fee", orderControllers.DeliveryFee(d.Catalog, d.Fees))
	}
}
