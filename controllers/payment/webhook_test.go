package paymentControllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/services/orders"
	"github.com/ronwsv/menuly-delivery/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentWebhook(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	events := &notify.Recorder{}
	svc := orders.NewService(db, nil, events)

	r := testutil.Restaurant(t, db)
	order := testutil.Order(t, db, r.ID, models.OrderStatusPending)

	router := gin.New()
	router.POST("/payments/webhook", PaymentWebhook(svc))
	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	w := post(`{"reference":"` + order.Reference + `","status":"paid"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, []notify.EventType{notify.EventPaymentChanged}, events.Types())

	assert.Equal(t, http.StatusNotFound, post(`{"reference":"ref-unknown","status":"paid"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"reference":"`+order.Reference+`","status":"maybe"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"status":"paid"}`).Code)
}
