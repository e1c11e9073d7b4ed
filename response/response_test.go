package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(t *testing.T, path, target string, h gin.HandlerFunc) (*httptest.ResponseRecorder, Body) {
	t.Helper()
	r := gin.New()
	r.GET(path, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	var body Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestFailMapsKindsToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.Validation("bad"), http.StatusBadRequest, "validation_error"},
		{apperr.NotFound("missing"), http.StatusNotFound, "not_found"},
		{apperr.Conflict("taken"), http.StatusConflict, "conflict"},
		{apperr.Forbidden("no"), http.StatusForbidden, "forbidden"},
		{apperr.Unauthorized("who"), http.StatusUnauthorized, "unauthorized"},
		{apperr.Wrap(apperr.NotFound("missing"), errors.New("record not found")), http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w, body := serve(t, "/", "/", func(c *gin.Context) { Fail(c, tc.err) })
			assert.Equal(t, tc.status, w.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Error)
			assert.Equal(t, apperr.MessageOf(tc.err), body.Message)
		})
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	w, body := serve(t, "/", "/", func(c *gin.Context) {
		Fail(c, errors.New("pq: connection refused"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", body.Error)
	assert.NotContains(t, body.Message, "pq")
}

func TestOKAndCreated(t *testing.T) {
	w, body := serve(t, "/", "/", func(c *gin.Context) { OK(c, "fine", gin.H{"n": 1}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
	assert.Equal(t, map[string]any{"n": float64(1)}, body.Data)
	assert.NotContains(t, w.Body.String(), `"error"`)

	w, body = serve(t, "/", "/", func(c *gin.Context) { Created(c, "made", nil) })
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "made", body.Message)
}

func TestUintParam(t *testing.T) {
	handler := func(c *gin.Context) {
		id, ok := UintParam(c, "id")
		if !ok {
			return
		}
		OK(c, "ok", id)
	}

	w, body := serve(t, "/items/:id", "/items/42", handler)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(42), body.Data)

	for _, bad := range []string{"0", "-3", "abc"} {
		w, body = serve(t, "/items/:id", "/items/"+bad, handler)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Equal(t, "Invalid id", body.Message)
	}
}
