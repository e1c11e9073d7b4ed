package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/response"
)

var errInvalidAPIKey = apperr.Unauthorized("Invalid or missing API key")

// APIKeyActor is the actor behind requests authenticated with the platform API key.
var APIKeyActor = actor.Actor{ID: "api-key", Role: actor.RoleSuperadmin}

// ValidateAPIKey admits requests whose X-API-KEY header matches key as the
// superadmin. An empty key rejects everything.
func ValidateAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader("X-API-KEY")
		if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			response.Fail(c, errInvalidAPIKey)
			return
		}
		SetActor(c, APIKeyActor)
		c.Next()
	}
}
