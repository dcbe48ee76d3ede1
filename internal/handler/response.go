package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"cargo/internal/middleware"
	"cargo/internal/repository"
	"cargo/internal/service"
)

// Envelope wraps every JSON response.
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal server error"
	}
	c.JSON(code, Envelope{StatusCode: code, Message: message})
}

// respondBadRequest sends a 400 for malformed input.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{StatusCode: http.StatusBadRequest, Message: message})
}

// respondJSON sends data in the envelope with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, Envelope{StatusCode: code, Message: http.StatusText(code), Data: data})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidTruckOwner),
		errors.Is(err, service.ErrBidOrderMismatch),
		errors.Is(err, service.ErrNotPayoutDay),
		errors.Is(err, service.ErrRouteInactive):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotAssignedDriver),
		errors.Is(err, service.ErrBusinessNotApproved),
		errors.Is(err, service.ErrBusinessRequired),
		errors.Is(err, service.ErrDriverProfileRequired):
		return http.StatusForbidden

	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusPaymentRequired

	// Conflict errors
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrBusinessAlreadyRegistered),
		errors.Is(err, service.ErrDriverProfileExists),
		errors.Is(err, service.ErrDriverOnJob),
		errors.Is(err, service.ErrTruckUnavailable),
		errors.Is(err, service.ErrInsufficientCapacity),
		errors.Is(err, service.ErrOrderNotEditable),
		errors.Is(err, service.ErrOrderNotAcceptingBids),
		errors.Is(err, service.ErrDuplicateBid),
		errors.Is(err, service.ErrBidNotPending),
		errors.Is(err, service.ErrResourceBusy),
		errors.Is(err, service.ErrPayoutAlreadyRun):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// actorFrom builds the service actor from the verified token.
func actorFrom(c *gin.Context) service.Actor {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{
		UserID:     claims.UserID(),
		Role:       claims.Role,
		BusinessID: claims.BusinessID,
	}
}

// pageParams reads limit and offset query parameters.
func pageParams(c *gin.Context) (limit, offset int) {
	limit = cast.ToInt(c.Query("limit"))
	offset = cast.ToInt(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
