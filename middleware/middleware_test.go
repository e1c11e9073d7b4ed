package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/telemetry"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

type tokenTable map[string]actor.Actor

func (t tokenTable) Authenticate(_ context.Context, token string) (actor.Actor, error) {
	a, ok := t[strings.TrimPrefix(token, "Bearer ")]
	if !ok {
		return actor.Actor{}, apperr.Unauthorized("Invalid token")
	}
	return a, nil
}

// whoami echoes the actor placed in the request context.
func whoami(c *gin.Context) {
	a, _ := actor.From(c.Request.Context())
	c.String(http.StatusOK, a.String())
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateToken(t *testing.T) {
	tokens := tokenTable{
		"ana":   {ID: "ana", Role: actor.RoleCustomer},
		"staff": {ID: "staff-1", Role: actor.RoleMerchant, RestaurantID: 1},
	}
	r := gin.New()
	r.GET("/me", ValidateToken(tokens), whoami)
	r.GET("/back-office", ValidateToken(tokens), RequireRole(actor.RoleMerchant), whoami)

	w := do(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer nobody")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer ana")
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "customer:ana", w.Body.String())

	// websocket clients pass the token in the query
	w = do(r, httptest.NewRequest(http.MethodGet, "/me?token=staff", nil))
	assert.Equal(t, "merchant:staff-1", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/back-office", nil)
	req.Header.Set("Authorization", "Bearer ana")
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/back-office", nil)
	req.Header.Set("Authorization", "Bearer staff")
	assert.Equal(t, http.StatusOK, do(r, req).Code)
}

func TestRequireRoleLetsSuperadminThrough(t *testing.T) {
	r := gin.New()
	r.GET("/couriers-only", func(c *gin.Context) {
		SetActor(c, actor.Actor{ID: "root", Role: actor.RoleSuperadmin})
	}, RequireRole(actor.RoleCourier), whoami)
	r.GET("/anonymous", RequireRole(actor.RoleCourier), whoami)

	w := do(r, httptest.NewRequest(http.MethodGet, "/couriers-only", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "superadmin:root", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/anonymous", nil)).Code)
}

func TestValidateAPIKey(t *testing.T) {
	r := gin.New()
	r.GET("/admin", ValidateAPIKey("s3cret"), whoami)
	locked := gin.New()
	locked.GET("/admin", ValidateAPIKey(""), whoami)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-API-KEY", "wrong")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-API-KEY", "s3cret")
	w := do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "superadmin:api-key", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, do(locked, req).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, telemetry.RequestIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := do(r, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
}

func TestPaymentWebhookAuth(t *testing.T) {
	const secret = "whsec"
	body := `{"reference":"ref-1","status":"paid"}`

	r := gin.New()
	r.POST("/hook", PaymentWebhookAuth(secret, false), func(c *gin.Context) {
		raw, _ := c.GetRawData()
		c.String(http.StatusOK, string(raw))
	})
	sandbox := gin.New()
	sandbox.POST("/hook", PaymentWebhookAuth(secret, true), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	req.Header.Set("X-Signature", Sign(secret, []byte(body)))
	w := do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, w.Body.String(), "body must be readable after verification")

	req = httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	req.Header.Set("X-Signature", Sign("other", []byte(body)))
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	assert.Equal(t, http.StatusNoContent, do(sandbox, req).Code)
}
