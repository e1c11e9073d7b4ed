package courierControllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/delivery"
)

type toggleRequest struct {
	Value *bool `json:"value" binding:"required"`
}

type assignRequest struct {
	CourierID uint `json:"courier_id" binding:"required"`
}

type occurrenceRequest struct {
	Kind        string `json:"kind" binding:"required"`
	Description string `json:"description"`
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

// GET /courier/orders/available
func AvailableOrders(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListAvailable(c.Request.Context())
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Available orders fetched", list)
	}
}

// GET /courier/orders/active
func ActiveOrder(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Active(c.Request.Context())
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Active delivery fetched", order)
	}
}

// POST /courier/orders/:id/accept
func AcceptOrder(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		order, err := svc.Accept(c.Request.Context(), id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Delivery accepted", order)
	}
}

// POST /courier/orders/:id/delivered
func MarkDelivered(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		order, err := svc.MarkDelivered(c.Request.Context(), id)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Order delivered", order)
	}
}

// PUT /courier/availability
func SetAvailability(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		courier, err := svc.SetAvailability(c.Request.Context(), *req.Value)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Availability updated", courier)
	}
}

// PUT /courier/pause
func SetPaused(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		courier, err := svc.SetPaused(c.Request.Context(), *req.Value)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Pause updated", courier)
	}
}

// POST /merchant/orders/:id/assign
func AssignCourier(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req assignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		order, err := svc.Assign(c.Request.Context(), id, req.CourierID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Courier assigned", order)
	}
}

// POST /courier/orders/:id/occurrences
func RegisterOccurrence(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req occurrenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		occ, err := svc.RegisterOccurrence(c.Request.Context(), id, models.OccurrenceKind(req.Kind), req.Description)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Occurrence registered", occ)
	}
}

// GET /occurrences?order_id=&unresolved=true
func ListOccurrences(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f delivery.OccurrenceFilter
		if raw := c.Query("order_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				response.BadRequest(c, "Invalid order_id")
				return
			}
			f.OrderID = uint(id)
		}
		f.UnresolvedOnly = c.Query("unresolved") == "true"
		list, err := svc.ListOccurrences(c.Request.Context(), f)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Occurrences fetched", list)
	}
}

// POST /merchant/occurrences/:id/resolve
func ResolveOccurrence(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		var req resolveRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.BindError(c, err)
				return
			}
		}
		occ, err := svc.ResolveOccurrence(c.Request.Context(), id, req.Notes)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Occurrence resolved", occ)
	}
}

// GET /merchant/couriers?available=true
func ListCouriers(svc *delivery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListCouriers(c.Request.Context(), c.Query("available") == "true")
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Couriers fetched", list)
	}
}
