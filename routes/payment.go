package routes

import (
	"github.com/gin-gonic/gin"
	paymentControllers "github.com/ronwsv/menuly-delivery/controllers/payment"
	"github.com/ronwsv/menuly-delivery/middleware"
)

func SetupPaymentRoutes(r *gin.Engine, d Deps) {
	payment := r.Group("/payments")
	{
		// Webhook endpoint: middleware handles sandbox/prod verification
		payment.POST("/webhook",
			middleware.PaymentWebhookAuth(d.Payment.WebhookSecret, d.Payment.Sandbox),
			paymentControllers.PaymentWebhook(d.Orders),
		)
	}
}
