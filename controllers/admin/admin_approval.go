package adminController

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/auth"
	"github.com/ronwsv/menuly-delivery/response"
)

type approveRequest struct {
	Email        string `json:"email" binding:"required,email"`
	RestaurantID uint   `json:"restaurant_id" binding:"required"`
}

type rejectRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// GET /admin/staff?all=true lists staff accounts, pending ones by default.
func ListStaff(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		staff, err := svc.ListStaff(c.Request.Context(), c.Query("all") != "true")
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Staff fetched", staff)
	}
}

// POST /admin/staff/approve
func ApproveStaff(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req approveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		st, err := svc.ApproveStaff(c.Request.Context(), req.Email, req.RestaurantID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Staff approved", st)
	}
}

// POST /admin/staff/reject
func RejectStaff(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req rejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		if err := svc.RejectStaff(c.Request.Context(), req.Email); err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Staff rejected", nil)
	}
}
