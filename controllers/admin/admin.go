package adminController

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
)

type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type openRequest struct {
	Open *bool `json:"open" binding:"required"`
}

// GET /admin/restaurants
func ListRestaurants(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListRestaurants(c.Request.Context())
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Restaurants fetched", list)
	}
}

// POST /admin/restaurants
func CreateRestaurant(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input catalog.RestaurantInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		r, err := svc.CreateRestaurant(c.Request.Context(), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Restaurant created", r)
	}
}

// GET /merchant/restaurants/:restaurantID
func GetRestaurant(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		r, err := svc.GetRestaurant(c.Request.Context(), id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Restaurant fetched", r)
	}
}

// PUT /merchant/restaurants/:restaurantID
func UpdateRestaurant(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var input catalog.RestaurantInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		r, err := svc.UpdateRestaurant(c.Request.Context(), id, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Restaurant updated", r)
	}
}

// PUT /merchant/restaurants/:restaurantID/open
func SetRestaurantOpen(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var req openRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		r, err := svc.SetRestaurantOpen(c.Request.Context(), id, *req.Open)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Restaurant updated", r)
	}
}

// PUT /admin/restaurants/:restaurantID/active
func SetRestaurantActive(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var req activeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		r, err := svc.SetRestaurantActive(c.Request.Context(), id, *req.Active)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Restaurant updated", r)
	}
}

// DELETE /admin/restaurants/:restaurantID
func DeleteRestaurant(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		if err := svc.DeleteRestaurant(c.Request.Context(), id); err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Restaurant deleted", nil)
	}
}
