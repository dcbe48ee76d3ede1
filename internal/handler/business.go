package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargo/internal/domain"
	"cargo/internal/service"
)

// BusinessHandler handles HTTP requests for businesses.
type BusinessHandler struct {
	businessService *service.BusinessService
}

// NewBusinessHandler creates a new BusinessHandler.
func NewBusinessHandler(businessService *service.BusinessService) *BusinessHandler {
	return &BusinessHandler{businessService: businessService}
}

// CreateBusinessRequest is the HTTP request body for registering a business.
type CreateBusinessRequest struct {
	Name               string `json:"name" binding:"required"`
	RegistrationNumber string `json:"registration_number" binding:"required"`
	Address            string `json:"address"`
	ContactEmail       string `json:"contact_email"`
}

// Create handles POST /v1/businesses
func (h *BusinessHandler) Create(c *gin.Context) {
	var req CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	business, err := h.businessService.CreateBusiness(c.Request.Context(), actorFrom(c), service.CreateBusinessRequest{
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		Address:            req.Address,
		ContactEmail:       req.ContactEmail,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newBusinessResponse(business))
}

// Get handles GET /v1/businesses/:id
func (h *BusinessHandler) Get(c *gin.Context) {
	business, err := h.businessService.GetBusiness(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newBusinessResponse(business))
}

// GetAll handles GET /v1/businesses
func (h *BusinessHandler) GetAll(c *gin.Context) {
	businesses, err := h.businessService.ListBusinesses(c.Request.Context(), domain.BusinessStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, mapSlice(businesses, newBusinessResponse))
}

// Approve handles POST /v1/businesses/:id/approve
func (h *BusinessHandler) Approve(c *gin.Context) {
	business, err := h.businessService.ApproveBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newBusinessResponse(business))
}

// Suspend handles POST /v1/businesses/:id/suspend
func (h *BusinessHandler) Suspend(c *gin.Context) {
	business, err := h.businessService.SuspendBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newBusinessResponse(business))
}
