package client

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"repairshop/internal/middleware"
	"repairshop/internal/pkg/response"
	"repairshop/internal/pkg/validator"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type SaveClientRequest struct {
	LastName   string `json:"last_name" binding:"required" validate:"required"`
	FirstName  string `json:"first_name" binding:"required" validate:"required"`
	MiddleName string `json:"middle_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email" validate:"omitempty,email"`
	RoleID     int64  `json:"role_id"`
}

type ProfileRequest struct {
	LastName   string `json:"last_name" binding:"required"`
	FirstName  string `json:"first_name" binding:"required"`
	MiddleName string `json:"middle_name"`
	Phone      string `json:"phone"`
}

func (h *Handler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	if protected != nil {
		protected.PUT("/profile", h.UpdateProfile)
	}
	if admin != nil {
		admin.GET("/clients", h.List)
		admin.GET("/clients/:id", h.Get)
		admin.POST("/clients", h.Save)
		admin.PUT("/clients/:id", h.Save)
		admin.DELETE("/clients/:id", h.Delete)
		admin.GET("/users", h.ListUsers)
	}
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID")
		return
	}

	cl, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"client": cl})
}

func (h *Handler) List(c *gin.Context) {
	f := ListFilters{Search: c.Query("q")}
	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse(dateLayout, d)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date filter")
			return
		}
		f.RegisteredOn = &parsed
	}

	clients, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"clients": clients})
}

func (h *Handler) Save(c *gin.Context) {
	var id int64
	if raw := c.Param("id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID")
			return
		}
		id = parsed
	}

	var req SaveClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid client data", details)
		return
	}

	cl, err := h.service.Save(c.Request.Context(), SaveClientInput{
		ID:         id,
		LastName:   req.LastName,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		Phone:      req.Phone,
		Email:      req.Email,
		RoleID:     req.RoleID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"client": cl})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	cl, err := h.service.UpdateProfile(c.Request.Context(), middleware.CallerFromContext(c), ProfileInput{
		LastName:   req.LastName,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		Phone:      req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"client": cl})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid client data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Client not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrEmailAlreadyLinked):
		response.Error(c, http.StatusConflict, "EMAIL_ALREADY_LINKED", "This email belongs to another user")
	case errors.Is(err, ErrHasActiveOrders):
		response.Error(c, http.StatusConflict, "HAS_ACTIVE_ORDERS", "Complete or cancel the client's orders first")
	case errors.Is(err, ErrPhoneTaken):
		response.Error(c, http.StatusConflict, "PHONE_TAKEN", "Phone number already registered")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed")
	}
}
