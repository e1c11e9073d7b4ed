package orderControllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
	"github.com/ronwsv/menuly-delivery/services/orders"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type RatingRequest struct {
	Rating int `json:"rating" binding:"required"`
}

type DeliveryFeeRequest struct {
	PostalCode string `json:"postal_code" binding:"required"`
}

// listFilter reads ?status=a,b&limit=&offset= from the query string.
func listFilter(c *gin.Context) (orders.ListFilter, error) {
	var f orders.ListFilter
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			s, err := models.ParseOrderStatus(part)
			if err != nil {
				return f, orders.ErrInvalidStatus
			}
			f.Statuses = append(f.Statuses, s)
		}
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}

// POST /cart/:restaurantID/checkout
func Checkout(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var req orders.CheckoutInput
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		order, err := svc.Checkout(c.Request.Context(), restaurantID, req)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Order placed", order)
	}
}

// GET /orders/mine
func MyOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := listFilter(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		list, err := svc.List(c.Request.Context(), f)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Orders fetched", list)
	}
}

// GET /merchant/restaurants/:restaurantID/orders
func RestaurantOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		f, err := listFilter(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		f.RestaurantID = restaurantID
		list, err := svc.List(c.Request.Context(), f)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Orders fetched", list)
	}
}

// GET /orders/:id accepts a numeric id or an order reference.
func GetOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Lookup(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Order fetched", order)
	}
}

// GET /orders/:id/history
func GetHistory(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		entries, err := svc.History(c.Request.Context(), id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "History fetched", entries)
	}
}

// PUT /orders/:id/status
func UpdateOrderStatus(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		status, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			response.Fail(c, orders.ErrInvalidStatus)
			return
		}
		order, err := svc.Transition(c.Request.Context(), id, status, req.Notes)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Order status updated", order)
	}
}

// POST /orders/:id/cancel
func CancelOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req CancelRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.BindError(c, err)
				return
			}
		}
		order, err := svc.Cancel(c.Request.Context(), id, req.Reason)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Order cancelled", order)
	}
}

// PUT /orders/:id/payment-status
func UpdatePaymentStatus(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req UpdatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		order, err := svc.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Payment status updated", order)
	}
}

// POST /orders/:id/rating
func RateCourier(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req RatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		order, err := svc.RateCourier(c.Request.Context(), id, req.Rating)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Thanks for rating your delivery", order)
	}
}

// POST /storefront/:slug/delivery-fee quotes a delivery before checkout.
func DeliveryFee(cat *catalog.Service, quoter orders.Quoter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DeliveryFeeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		r, err := cat.GetRestaurantBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			response.Fail(c, err)
			return
		}
		quote, err := quoter.Quote(c.Request.Context(), r, req.PostalCode)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Delivery fee calculated", quote)
	}
}
