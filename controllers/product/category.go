package productcontroller

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
)

type reorderRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

// POST /merchant/restaurants/:restaurantID/categories
func CreateCategory(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var input catalog.CategoryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		category, err := svc.CreateCategory(c.Request.Context(), restaurantID, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Category created", category)
	}
}

// GET /merchant/restaurants/:restaurantID/categories
func GetAllCategories(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		list, err := svc.ListCategories(c.Request.Context(), restaurantID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Categories fetched", list)
	}
}

// PUT /merchant/categories/:id
func UpdateCategory(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var input catalog.CategoryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		category, err := svc.UpdateCategory(c.Request.Context(), id, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Category updated", category)
	}
}

// DELETE /merchant/categories/:id
func DeleteCategory(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteCategory(c.Request.Context(), id); err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Category deleted", nil)
	}
}

// PUT /merchant/restaurants/:restaurantID/categories/order
func ReorderCategories(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var req reorderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		if err := svc.ReorderCategories(c.Request.Context(), restaurantID, req.IDs); err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Categories reordered", nil)
	}
}
