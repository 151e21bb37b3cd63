package order

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"repairshop/internal/domain"
	"repairshop/internal/middleware"
	"repairshop/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts client-facing order routes on the authenticated
// group and management routes on the admin group.
func (h *Handler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	if protected != nil {
		protected.GET("/orders", h.List)
		protected.GET("/orders/:id", h.Get)
		protected.GET("/orders/:id/totals", h.Totals)
		protected.POST("/orders", h.CreateForClient)
		protected.POST("/orders/:id/cancel", h.Cancel)
	}
	if admin != nil {
		admin.POST("/orders", h.Save)
		admin.PUT("/orders/:id", h.Save)
		admin.DELETE("/orders/:id", h.Delete)
		admin.POST("/orders/:id/advance", h.Advance)
		admin.GET("/parts/available", h.AvailableParts)
		admin.GET("/dashboard", h.Dashboard)
	}
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	o, err := h.service.Get(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"order": o})
}

func (h *Handler) List(c *gin.Context) {
	f := ListFilters{
		Search: c.Query("q"),
		Status: domain.OrderStatus(c.Query("status")),
	}
	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse(dateLayout, d)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date filter")
			return
		}
		f.ReceivedDate = &parsed
	}

	orders, err := h.service.List(c.Request.Context(), middleware.CallerFromContext(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) Save(c *gin.Context) {
	var id int64
	if raw := c.Param("id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID")
			return
		}
		id = parsed
	}

	var req SaveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	in, selections, err := req.toInput(id)
	if err != nil {
		writeError(c, err)
		return
	}

	o, err := h.service.Save(c.Request.Context(), middleware.CallerFromContext(c), in, selections)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"order": o})
}

func (h *Handler) CreateForClient(c *gin.Context) {
	var req ClientOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	o, err := h.service.CreateForClient(c.Request.Context(), middleware.CallerFromContext(c), ClientOrderInput{
		PhoneModel:         req.PhoneModel,
		ProblemDescription: req.ProblemDescription,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"order": o})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), middleware.CallerFromContext(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": domain.StatusCanceled})
}

func (h *Handler) Advance(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	next, err := h.service.Advance(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": next})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CallerFromContext(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) Totals(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	totals, err := h.service.Totals(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"totals": totals})
}

func (h *Handler) AvailableParts(c *gin.Context) {
	var orderID int64
	if raw := c.Query("order_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID")
			return
		}
		orderID = parsed
	}

	parts, err := h.service.AvailableParts(c.Request.Context(), middleware.CallerFromContext(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"parts": parts})
}

func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), middleware.CallerFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Order not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrNotOwner):
		response.Error(c, http.StatusForbidden, "NOT_OWNER", "You do not own this order")
	case errors.Is(err, ErrWrongStatus):
		response.Error(c, http.StatusConflict, "WRONG_STATUS", "Only orders still in received status can be canceled")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "Order status cannot advance further")
	case errors.Is(err, ErrHasDependentParts):
		response.Error(c, http.StatusConflict, "HAS_DEPENDENT_PARTS", "Unassign the order's parts first")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed")
	}
}
