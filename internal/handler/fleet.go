package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargo/internal/domain"
	"cargo/internal/service"
)

// FleetHandler handles HTTP requests for drivers and trucks.
type FleetHandler struct {
	fleetService *service.FleetService
}

// NewFleetHandler creates a new FleetHandler.
func NewFleetHandler(fleetService *service.FleetService) *FleetHandler {
	return &FleetHandler{fleetService: fleetService}
}

// RegisterDriverRequest is the HTTP request body for creating a driver profile.
type RegisterDriverRequest struct {
	LicenseNumber string `json:"license_number" binding:"required"`
	TruckOwnerID  string `json:"truck_owner_id"`
}

// AvailabilityRequest is the HTTP request body for changing availability.
type AvailabilityRequest struct {
	Status string `json:"status" binding:"required"`
}

// RegisterTruckRequest is the HTTP request body for adding a truck.
type RegisterTruckRequest struct {
	PlateNumber string  `json:"plate_number" binding:"required"`
	TruckType   string  `json:"truck_type"`
	CapacityKg  float64 `json:"capacity_kg" binding:"required"`
}

// AssignDriverRequest is the HTTP request body for assigning a truck's driver.
type AssignDriverRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
}

// RegisterDriver handles POST /v1/drivers
func (h *FleetHandler) RegisterDriver(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	driver, err := h.fleetService.RegisterDriver(c.Request.Context(), actorFrom(c), service.RegisterDriverRequest{
		LicenseNumber: req.LicenseNumber,
		TruckOwnerID:  req.TruckOwnerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newDriverResponse(driver))
}

// GetMyDriver handles GET /v1/drivers/me
func (h *FleetHandler) GetMyDriver(c *gin.Context) {
	driver, err := h.fleetService.GetMyDriver(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newDriverResponse(driver))
}

// SetAvailability handles PUT /v1/drivers/me/availability
func (h *FleetHandler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	driver, err := h.fleetService.SetAvailability(c.Request.Context(), actorFrom(c), domain.DriverStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newDriverResponse(driver))
}

// GetDrivers handles GET /v1/drivers
func (h *FleetHandler) GetDrivers(c *gin.Context) {
	drivers, err := h.fleetService.ListDrivers(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, mapSlice(drivers, newDriverResponse))
}

// RegisterTruck handles POST /v1/trucks
func (h *FleetHandler) RegisterTruck(c *gin.Context) {
	var req RegisterTruckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	truck, err := h.fleetService.RegisterTruck(c.Request.Context(), actorFrom(c), service.RegisterTruckRequest{
		PlateNumber: req.PlateNumber,
		TruckType:   req.TruckType,
		CapacityKg:  req.CapacityKg,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newTruckResponse(truck))
}

// GetTrucks handles GET /v1/trucks
func (h *FleetHandler) GetTrucks(c *gin.Context) {
	trucks, err := h.fleetService.ListTrucks(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, mapSlice(trucks, newTruckResponse))
}

// AssignDriver handles PUT /v1/trucks/:id/driver
func (h *FleetHandler) AssignDriver(c *gin.Context) {
	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	truck, err := h.fleetService.AssignDriver(c.Request.Context(), actorFrom(c), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newTruckResponse(truck))
}

// DeactivateTruck handles POST /v1/trucks/:id/deactivate
func (h *FleetHandler) DeactivateTruck(c *gin.Context) {
	truck, err := h.fleetService.DeactivateTruck(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newTruckResponse(truck))
}
