package userControllers

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/auth"
	"github.com/ronwsv/menuly-delivery/response"
)

// GET /user
func GetUser(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, err := svc.Profile(c.Request.Context())
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Profile fetched", customer)
	}
}

// PUT /user
func UpdateUser(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input auth.ProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		customer, err := svc.UpdateProfile(c.Request.Context(), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Profile updated", customer)
	}
}

// GET /admin/users
func GetAllUsers(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		customers, err := svc.ListCustomers(c.Request.Context())
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Customers fetched", customers)
	}
}
