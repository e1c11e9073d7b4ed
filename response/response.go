// Package response writes the JSON envelope every endpoint answers with:
// {"success": bool, "message": string, "data": ..., "error": code}.
package response

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/apperr"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

type Body struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Body{Success: true, Message: message, Data: data})
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Fail aborts the request with the envelope for err. Unclassified errors are
// logged with the request id and answered with a generic message.
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"request_id", c.GetString(RequestIDKey),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(StatusOf(kind), Body{
		Success: false,
		Message: apperr.MessageOf(err),
		Error:   kind.String(),
	})
}

// BadRequest answers a malformed request body or parameter.
func BadRequest(c *gin.Context, message string) {
	Fail(c, apperr.Validation(message))
}

// BindError answers a request whose body or query failed to bind.
func BindError(c *gin.Context, err error) {
	BadRequest(c, "Invalid input: "+err.Error())
}

// UintParam reads a positive numeric path parameter. On failure it answers
// 400 and returns false.
func UintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(n), true
}
