package productcontroller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
)

type availableRequest struct {
	Available *bool `json:"available" binding:"required"`
}

type stockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

// POST /merchant/restaurants/:restaurantID/products
func CreateProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var input catalog.ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		product, err := svc.CreateProduct(c.Request.Context(), restaurantID, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Product created", product)
	}
}

// GET /merchant/restaurants/:restaurantID/products?category_id=&search=&available=true
func GetProducts(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		f := catalog.ProductFilter{
			Search:        c.Query("search"),
			AvailableOnly: c.Query("available") == "true",
		}
		if raw := c.Query("category_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				response.BadRequest(c, "Invalid category_id")
				return
			}
			f.CategoryID = uint(id)
		}
		list, err := svc.ListProducts(c.Request.Context(), restaurantID, f)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Products fetched", list)
	}
}

// GET /merchant/products/:id
func GetProductByID(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		product, err := svc.GetProduct(c.Request.Context(), id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Product fetched", product)
	}
}

// PUT /merchant/products/:id
func UpdateProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var input catalog.ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		product, err := svc.UpdateProduct(c.Request.Context(), id, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Product updated", product)
	}
}

// PUT /merchant/products/:id/available
func SetProductAvailable(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req availableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		product, err := svc.SetProductAvailable(c.Request.Context(), id, *req.Available)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Product updated", product)
	}
}

// PUT /merchant/products/:id/stock
func SetStock(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req stockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		product, err := svc.SetStock(c.Request.Context(), id, *req.Stock)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Stock updated", product)
	}
}

// DELETE /merchant/products/:id
func DeleteProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteProduct(c.Request.Context(), id); err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Product deleted", nil)
	}
}

// PUT /merchant/restaurants/:restaurantID/products/order
func ReorderProducts(svc *catalog.Service) gin.HandlerFunc {
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
		if err := svc.ReorderProducts(c.Request.Context(), restaurantID, req.IDs); err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Products reordered", nil)
	}
}
