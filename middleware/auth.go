package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/response"
)

var (
	errMissingToken = apperr.Unauthorized("Authorization header is missing")
	errWrongRole    = apperr.Forbidden("You are not allowed to use this endpoint")
)

// Authenticator resolves a bearer token to the actor it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (actor.Actor, error)
}

// ValidateToken requires a valid token in the Authorization header and puts
// its actor into the request context. Browsers cannot set headers on websocket
// upgrades, so a ?token= query parameter is accepted as well.
func ValidateToken(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			response.Fail(c, errMissingToken)
			return
		}
		a, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Fail(c, err)
			return
		}
		SetActor(c, a)
		c.Next()
	}
}

// SetActor stores a in the request context and mirrors its id under "user_id".
func SetActor(c *gin.Context, a actor.Actor) {
	c.Request = c.Request.WithContext(actor.With(c.Request.Context(), a))
	c.Set("user_id", a.ID)
}

// RequireRole lets only the given roles through. Superadmins always pass.
func RequireRole(roles ...actor.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor.From(c.Request.Context())
		if !ok {
			response.Fail(c, errMissingToken)
			return
		}
		if a.Role != actor.RoleSuperadmin && !a.Is(roles...) {
			response.Fail(c, errWrongRole)
			return
		}
		c.Next()
	}
}
