package adminController

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/delivery"
)

// POST /admin/couriers
func CreateCourier(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input delivery.CourierInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		courier, err := svc.CreateCourier(c.Request.Context(), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Courier created", courier)
	}
}

// PUT /admin/couriers/:id
func UpdateCourier(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var input delivery.CourierInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		courier, err := svc.UpdateCourier(c.Request.Context(), id, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Courier updated", courier)
	}
}

// GET /admin/couriers/:id
func GetCourier(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		courier, err := svc.GetCourier(c.Request.Context(), id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Courier fetched", courier)
	}
}
