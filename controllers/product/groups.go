package productcontroller

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
)

// POST /merchant/products/:id/groups
func AddGroup(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var input catalog.GroupInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		group, err := svc.AddGroup(c.Request.Context(), productID, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Customization group created", group)
	}
}

// DELETE /merchant/groups/:id
func DeleteGroup(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteGroup(c.Request.Context(), id); err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Customization group deleted", nil)
	}
}

// POST /merchant/groups/:id/options
func AddOption(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var input catalog.OptionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		option, err := svc.AddOption(c.Request.Context(), groupID, input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Option created", option)
	}
}

// PUT /merchant/options/:id/available
func SetOptionAvailable(svc *catalog.Service) gin.HandlerFunc {
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
		option, err := svc.SetOptionAvailable(c.Request.Context(), id, *req.Available)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Option updated", option)
	}
}
