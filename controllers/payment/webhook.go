package paymentControllers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/orders"
)

// WebhookRequest is the gateway notification. Status is one of pending,
// paid, failed or refunded.
type WebhookRequest struct {
	Reference string `json:"reference" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

// POST /payments/webhook records the gateway's verdict on an order's payment.
func PaymentWebhook(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		ctx := actor.With(c.Request.Context(), actor.Actor{ID: "payment-gateway", Role: actor.RoleSystem})

		order, err := svc.GetByReference(ctx, req.Reference)
		if err != nil {
			response.Fail(c, err)
			return
		}
		order, err = svc.UpdatePaymentStatus(ctx, order.ID, req.Status)
		if err != nil {
			response.Fail(c, err)
			return
		}
		slog.InfoContext(ctx, "payment status received", "reference", order.Reference, "status", order.PaymentStatus)
		response.OK(c, "Payment status recorded", gin.H{"reference": order.Reference, "payment_status": order.PaymentStatus})
	}
}
