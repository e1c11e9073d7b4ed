package userControllers

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/auth"
	"github.com/ronwsv/menuly-delivery/response"
)

// POST /auth/login exchanges a Firebase ID token for an API token.
// Body: {"idToken": "...", "role": "customer|merchant|courier", "guest_id": "..."}.
func Login(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input auth.LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
		session, err := svc.Login(c.Request.Context(), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Login successful", session)
	}
}

// POST /auth/guest
func CreateGuest(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := svc.Guest(c.Request.Context())
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Guest session created", session)
	}
}
