package supply

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"repairshop/internal/pkg/response"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type SaveSupplyRequest struct {
	SupplierID int64             `json:"supplier_id" binding:"required"`
	SupplyDate string            `json:"supply_date" binding:"required"`
	Parts      []PartLineRequest `json:"parts"`
}

type PartLineRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type SaveSupplierRequest struct {
	Name     string `json:"name" binding:"required"`
	Contacts string `json:"contacts"`
}

type SavePartRequest struct {
	Name     string `json:"name" binding:"required"`
	Price    string `json:"price" binding:"required"`
	SupplyID int64  `json:"supply_id" binding:"required"`
}

// RegisterRoutes mounts all supply-chain management routes; everything
// here is admin territory.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/supplies", h.ListSupplies)
	admin.GET("/supplies/:id", h.GetSupply)
	admin.POST("/supplies", h.SaveSupply)
	admin.PUT("/supplies/:id", h.SaveSupply)
	admin.DELETE("/supplies/:id", h.DeleteSupply)

	admin.GET("/suppliers", h.ListSuppliers)
	admin.POST("/suppliers", h.SaveSupplier)
	admin.PUT("/suppliers/:id", h.SaveSupplier)
	admin.DELETE("/suppliers/:id", h.DeleteSupplier)

	admin.GET("/parts", h.ListParts)
	admin.POST("/parts", h.SavePart)
	admin.PUT("/parts/:id", h.SavePart)
	admin.DELETE("/parts/:id", h.DeletePart)
}

func (h *Handler) SaveSupply(c *gin.Context) {
	id, ok := optionalIDParam(c)
	if !ok {
		return
	}

	var req SaveSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	date, err := time.Parse(dateLayout, req.SupplyDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid supply date")
		return
	}

	lines := make([]PartLine, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.Name == "" && p.Price == "" {
			continue
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid part price")
			return
		}
		lines = append(lines, PartLine{Name: p.Name, Price: price})
	}

	sp, err := h.service.SaveSupply(c.Request.Context(), SaveSupplyInput{
		ID:         id,
		SupplierID: req.SupplierID,
		SupplyDate: date,
	}, lines)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"supply": sp})
}

func (h *Handler) GetSupply(c *gin.Context) {
	id, ok := requiredIDParam(c)
	if !ok {
		return
	}

	sp, err := h.service.GetSupply(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"supply": sp})
}

func (h *Handler) ListSupplies(c *gin.Context) {
	f := SupplyFilters{Search: c.Query("q")}
	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse(dateLayout, d)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date filter")
			return
		}
		f.Date = &parsed
	}

	supplies, err := h.service.ListSupplies(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"supplies": supplies})
}

func (h *Handler) DeleteSupply(c *gin.Context) {
	id, ok := requiredIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSupply(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) SaveSupplier(c *gin.Context) {
	id, ok := optionalIDParam(c)
	if !ok {
		return
	}

	var req SaveSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	sup, err := h.service.SaveSupplier(c.Request.Context(), SaveSupplierInput{
		ID:       id,
		Name:     req.Name,
		Contacts: req.Contacts,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"supplier": sup})
}

func (h *Handler) DeleteSupplier(c *gin.Context) {
	id, ok := requiredIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSupplier(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.service.ListSuppliers(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"suppliers": suppliers})
}

func (h *Handler) ListParts(c *gin.Context) {
	parts, err := h.service.ListParts(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"parts": parts})
}

func (h *Handler) SavePart(c *gin.Context) {
	id, ok := optionalIDParam(c)
	if !ok {
		return
	}

	var req SavePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid part price")
		return
	}

	p, err := h.service.SavePart(c.Request.Context(), SavePartInput{
		ID:       id,
		Name:     req.Name,
		Price:    price,
		SupplyID: req.SupplyID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"part": p})
}

func (h *Handler) DeletePart(c *gin.Context) {
	id, ok := requiredIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DeletePart(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func requiredIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func optionalIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Record not found")
	case errors.Is(err, ErrHasParts):
		response.Error(c, http.StatusConflict, "HAS_PARTS", "Remove the supply's parts first")
	case errors.Is(err, ErrHasSupplies):
		response.Error(c, http.StatusConflict, "HAS_SUPPLIES", "Remove the supplier's supplies first")
	case errors.Is(err, ErrNameTaken):
		response.Error(c, http.StatusConflict, "NAME_TAKEN", "Supplier name already exists")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed")
	}
}
