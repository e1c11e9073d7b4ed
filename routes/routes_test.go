package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/auth"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/services/cart"
	"github.com/ronwsv/menuly-delivery/services/catalog"
	"github.com/ronwsv/menuly-delivery/services/delivery"
	"github.com/ronwsv/menuly-delivery/services/fees"
	"github.com/ronwsv/menuly-delivery/services/orders"
	"github.com/ronwsv/menuly-delivery/storage"
	"github.com/ronwsv/menuly-delivery/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const apiKey = "test-key"

type noLogins struct{}

func (noLogins) Verify(context.Context, string) (auth.Identity, error) {
	return auth.Identity{}, auth.ErrInvalidIDToken
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type client struct {
	t      *testing.T
	router *gin.Engine
}

func (c client) call(method, path, token string, body any) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token == apiKey {
		req.Header.Set("X-API-KEY", token)
	} else if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func setup(t *testing.T) (client, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	quoter := fees.NewCalculator(nil, time.Second)
	cartSvc := cart.NewService(db)
	orderSvc := orders.NewService(db, quoter, notify.Nop{})
	deliverySvc := delivery.NewService(db, orderSvc, notify.Nop{})
	authSvc := auth.NewService(db, auth.NewIssuer("secret", time.Hour), noLogins{}, cartSvc, deliverySvc, auth.Options{})

	r := gin.New()
	SetupRoutes(r, Deps{
		Auth:     authSvc,
		Catalog:  catalog.NewService(db, storage.NewLocalStore(t.TempDir(), "/uploads")),
		Cart:     cartSvc,
		Orders:   orderSvc,
		Delivery: deliverySvc,
		Fees:     quoter,
		Hub:      notify.NewHub(),
		APIKey:   apiKey,
	})
	return client{t: t, router: r}, db
}

func TestGuestOrdersThroughTheAPI(t *testing.T) {
	c, db := setup(t)

	status, env := c.call(http.MethodPost, "/admin/restaurants", "", map[string]any{"name": "Cantina"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", env.Error)

	status, env = c.call(http.MethodPost, "/admin/restaurants", apiKey, map[string]any{
		"name":    "Cantina da Praça",
		"address": map[string]string{"street": "Rua B", "number": "10", "city": "Recife", "postal_code": "50030230"},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var restaurant struct {
		ID   uint   `json:"id"`
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &restaurant))
	assert.Equal(t, "cantina-da-praca", restaurant.Slug)

	// Freshly created restaurants are closed until staff opens them.
	require.NoError(t, db.Table("restaurants").Where("id = ?", restaurant.ID).Update("open", true).Error)
	cat := testutil.Category(t, db, restaurant.ID)
	product := testutil.Product(t, db, cat, "18.50")

	status, _ = c.call(http.MethodGet, "/storefront/"+restaurant.Slug+"/menu", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = c.call(http.MethodPost, "/auth/guest", "", nil)
	require.Equal(t, http.StatusCreated, status)
	var session auth.Session
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)

	base := fmt.Sprintf("/cart/%d", restaurant.ID)
	status, env = c.call(http.MethodPost, base+"/items", session.Token, map[string]any{"product_id": product.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = c.call(http.MethodPost, base+"/checkout", session.Token, map[string]any{
		"customer_name":  "Bia",
		"payment_method": "pix",
		"address":        map[string]string{"street": "Rua C", "number": "5", "city": "Recife", "postal_code": "50030230"},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var order struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Total     string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "37", order.Total)

	status, env = c.call(http.MethodGet, "/orders/mine", session.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []struct {
		Reference string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, order.Reference, mine[0].Reference)

	status, _ = c.call(http.MethodGet, "/orders/"+order.Reference, session.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	// Guests cannot reach the back office or the profile.
	status, _ = c.call(http.MethodGet, fmt.Sprintf("/merchant/restaurants/%d/orders", restaurant.ID), session.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = c.call(http.MethodGet, "/user", session.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestLoginRejectsBadIDToken(t *testing.T) {
	c, _ := setup(t)

	status, env := c.call(http.MethodPost, "/auth/login", "", map[string]string{"idToken": "forged"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	status, _ = c.call(http.MethodPost, "/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}
