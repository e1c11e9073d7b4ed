package cartControllers

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/cart"
)

type quantityInput struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// GET /cart/:restaurantID
func GetCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		view, err := svc.Get(c.Request.Context(), restaurantID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Cart fetched", view)
	}
}

// POST /cart/:restaurantID/items
func AddItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var input cart.AddInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		view, err := svc.Add(c.Request.Context(), restaurantID, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Item added to cart", view)
	}
}

// PATCH /cart/:restaurantID/items/:itemID
func UpdateItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		itemID, ok := response.UintParam(c, "itemID")
		if !ok {
			return
		}
		var input quantityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		view, err := svc.SetQuantity(c.Request.Context(), restaurantID, itemID, *input.Quantity)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Cart updated", view)
	}
}

// DELETE /cart/:restaurantID/items/:itemID
func DeleteItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		itemID, ok := response.UintParam(c, "itemID")
		if !ok {
			return
		}
		view, err := svc.Remove(c.Request.Context(), restaurantID, itemID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Item removed from cart", view)
	}
}

// DELETE /cart/:restaurantID
func ClearCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		if err := svc.Clear(c.Request.Context(), restaurantID); err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Cart cleared", nil)
	}
}
