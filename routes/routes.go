package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/auth"
	"github.com/ronwsv/menuly-delivery/config"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/services/cart"
	"github.com/ronwsv/menuly-delivery/services/catalog"
	"github.com/ronwsv/menuly-delivery/services/delivery"
	"github.com/ronwsv/menuly-delivery/services/orders"
)

// Deps is everything the HTTP layer needs from main.
type Deps struct {
	Auth     *auth.Service
	Catalog  *catalog.Service
	Cart     *cart.Service
	Orders   *orders.Service
	Delivery *delivery.Service
	Fees     orders.Quoter
	Hub      *notify.Hub
	APIKey   string
	Payment  config.Payment
}

// SetupRoutes is the single entry point that wires every route group.
func SetupRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// Public: login, guest sessions, storefront
	SetupAuthRoutes(r, d)
	SetupStorefrontRoutes(r, d)

	// Customers and guests (JWT)
	SetupUserRoutes(r, d)
	SetupOrderRoutes(r, d)

	// Restaurant staff and couriers (JWT + role)
	SetupMerchantRoutes(r, d)
	SetupCourierRoutes(r, d)

	// Platform administration (API key)
	SetupAdminRoutes(r, d)

	SetupPaymentRoutes(r, d)
}
