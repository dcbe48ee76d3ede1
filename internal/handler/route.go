package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cargo/internal/service"
)

// RouteHandler handles HTTP requests for routes.
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// RouteRequest is the HTTP request body for creating or updating a route.
type RouteRequest struct {
	Origin      string          `json:"origin" binding:"required"`
	Destination string          `json:"destination" binding:"required"`
	DistanceKm  float64         `json:"distance_km" binding:"required"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

func (r RouteRequest) toService() service.RouteRequest {
	return service.RouteRequest{
		Origin:      r.Origin,
		Destination: r.Destination,
		DistanceKm:  r.DistanceKm,
		BasePrice:   r.BasePrice,
	}
}

// Create handles POST /v1/routes
func (h *RouteHandler) Create(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	route, err := h.routeService.CreateRoute(c.Request.Context(), req.toService())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, newRouteResponse(route))
}

// Update handles PUT /v1/routes/:id
func (h *RouteHandler) Update(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	route, err := h.routeService.UpdateRoute(c.Request.Context(), c.Param("id"), req.toService())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newRouteResponse(route))
}

// Deactivate handles POST /v1/routes/:id/deactivate
func (h *RouteHandler) Deactivate(c *gin.Context) {
	route, err := h.routeService.DeactivateRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newRouteResponse(route))
}

// GetAll handles GET /v1/routes
func (h *RouteHandler) GetAll(c *gin.Context) {
	routes, err := h.routeService.ListRoutes(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, mapSlice(routes, newRouteResponse))
}
