package productcontroller

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
)

type couponActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// POST /merchant/restaurants/:restaurantID/coupons
func CreateCoupon(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var input catalog.CouponInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		coupon, err := svc.CreateCoupon(c.Request.Context(), restaurantID, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Coupon created", coupon)
	}
}

// GET /merchant/restaurants/:restaurantID/coupons
func GetCoupons(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		list, err := svc.ListCoupons(c.Request.Context(), restaurantID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Coupons fetched", list)
	}
}

// PUT /merchant/coupons/:id/active
func SetCouponActive(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req couponActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		coupon, err := svc.SetCouponActive(c.Request.Context(), id, *req.Active)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Coupon updated", coupon)
	}
}
