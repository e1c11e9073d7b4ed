package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/response"
)

var errBadSignature = apperr.Forbidden("Invalid webhook signature")

const signatureHeader = "X-Signature"

// Sign returns the hex HMAC-SHA256 of body, as expected in X-Signature.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentWebhookAuth verifies that the raw body was signed with secret. The
// body is restored for the handler. With skip set (sandbox), nothing is checked.
func PaymentWebhookAuth(secret string, skip bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skip {
			c.Next()
			return
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			response.BadRequest(c, "Unreadable body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		given := strings.ToLower(strings.TrimSpace(c.GetHeader(signatureHeader)))
		if secret == "" || given == "" || !hmac.Equal([]byte(given), []byte(Sign(secret, body))) {
			response.Fail(c, errBadSignature)
			return
		}
		c.Next()
	}
}
