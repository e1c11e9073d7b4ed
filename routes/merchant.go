package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/actor"
	adminController "github.com/ronwsv/menuly-delivery/controllers/admin"
	courierControllers "github.com/ronwsv/menuly-delivery/controllers/courier"
	orderControllers "github.com/ronwsv/menuly-delivery/controllers/order"
	productcontroller "github.com/ronwsv/menuly-delivery/controllers/product"
	"github.com/ronwsv/menuly-delivery/middleware"
	"github.com/ronwsv/menuly-delivery/services/catalog"
)

// SetupMerchantRoutes registers the restaurant back office under “/merchant”.
// Staff only reach their own restaurant; the services enforce it.
func SetupMerchantRoutes(r *gin.Engine, d Deps) {
	merchant := r.Group("/merchant")
	merchant.Use(middleware.ValidateToken(d.Auth), middleware.RequireRole(actor.RoleMerchant))

	// ─────────── Restaurant ───────────
	restaurant := merchant.Group("/restaurants/:restaurantID")
	{
		restaurant.GET("", adminController.GetRestaurant(d.Catalog))
		restaurant.PUT("", adminController.UpdateRestaurant(d.Catalog))
		restaurant.PUT("/open", adminController.SetRestaurantOpen(d.Catalog))
		restaurant.POST("/logo", productcontroller.UploadImageFor(d.Catalog, catalog.ImageRestaurantLogo, "restaurantID"))
		restaurant.POST("/banners", adminController.UploadBanner(d.Catalog))
		restaurant.GET("/orders", orderControllers.RestaurantOrders(d.Orders))

		restaurant.GET("/categories", productcontroller.GetAllCategories(d.Catalog))
		restaurant.POST("/categories", productcontroller.CreateCategory(d.Catalog))
		restaurant.PUT("/categories/order", productcontroller.ReorderCategories(d.Catalog))

		restaurant.GET("/products", productcontroller.GetProducts(d.Catalog))
		restaurant.POST("/products", productcontroller.CreateProduct(d.Catalog))
		restaurant.PUT("/products/order", productcontroller.ReorderProducts(d.Catalog))
		restaurant.POST("/products/import-excel", productcontroller.ImportProductsFromExcel(d.Catalog))
		restaurant.GET("/products/export-excel", productcontroller.ExportProductsToExcel(d.Catalog))

		restaurant.GET("/coupons", productcontroller.GetCoupons(d.Catalog))
		restaurant.POST("/coupons", productcontroller.CreateCoupon(d.Catalog))
	}

	// ─────────── Category Management ───────────
	merchant.PUT("/categories/:id", productcontroller.UpdateCategory(d.Catalog))
	merchant.DELETE("/categories/:id", productcontroller.DeleteCategory(d.Catalog))
	merchant.POST("/categories/:id/image", productcontroller.UploadImage(d.Catalog, catalog.ImageCategory))

	// ─────────── Product Management ───────────
	products := merchant.Group("/products/:id")
	{
		products.GET("", productcontroller.GetProductByID(d.Catalog))
		products.PUT("", productcontroller.UpdateProduct(d.Catalog))
		products.DELETE("", productcontroller.DeleteProduct(d.Catalog))
		products.PUT("/available", productcontroller.SetProductAvailable(d.Catalog))
		products.PUT("/stock", productcontroller.SetStock(d.Catalog))
		products.POST("/image", productcontroller.UploadImage(d.Catalog, catalog.ImageProduct))
		products.POST("/groups", productcontroller.AddGroup(d.Catalog))
	}
	merchant.DELETE("/groups/:id", productcontroller.DeleteGroup(d.Catalog))
	merchant.POST("/groups/:id/options", productcontroller.AddOption(d.Catalog))
	merchant.PUT("/options/:id/available", productcontroller.SetOptionAvailable(d.Catalog))

	merchant.DELETE("/banners/:id", adminController.DeleteBanner(d.Catalog))
	merchant.PUT("/coupons/:id/active", productcontroller.SetCouponActive(d.Catalog))

	// ─────────── Delivery ───────────
	merchant.GET("/couriers", courierControllers.ListCouriers(d.Delivery))
	merchant.POST("/orders/:id/assign", courierControllers.AssignCourier(d.Delivery))
	merchant.POST("/occurrences/:id/resolve", courierControllers.ResolveOccurrence(d.Delivery))
}
