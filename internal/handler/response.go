package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/repository"
	"carpool/internal/service"
)

// actorHeader carries the verified user identity supplied by the auth layer
// in front of this service. The core only performs authorization checks.
const actorHeader = "X-User-ID"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// actorID returns the authenticated user ID for the request.
func actorID(c *gin.Context) string {
	return c.GetHeader(actorHeader)
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidActorID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidOrigin),
		errors.Is(err, service.ErrInvalidDestination),
		errors.Is(err, service.ErrOriginEqualsDestination),
		errors.Is(err, service.ErrInvalidSeatCount),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrDepartureInPast),
		errors.Is(err, service.ErrInvalidBookingMode):
		return http.StatusBadRequest

	// Authorization errors
	case errors.Is(err, service.ErrNotRideOwner),
		errors.Is(err, service.ErrNotBookingParticipant):
		return http.StatusForbidden

	// Conflict errors - operation illegal for current state
	case errors.Is(err, service.ErrRideNotOpen),
		errors.Is(err, service.ErrRideAlreadyCancelled),
		errors.Is(err, service.ErrSeatsLockedByBookings),
		errors.Is(err, service.ErrBookingModeMismatch),
		errors.Is(err, service.ErrSelfBooking),
		errors.Is(err, service.ErrDuplicateBooking),
		errors.Is(err, service.ErrBookingNotPending),
		errors.Is(err, service.ErrBookingNotActive),
		errors.Is(err, repository.ErrInsufficientSeats),
		errors.Is(err, repository.ErrSeatsExceedTotal):
		return http.StatusConflict

	// Lock contention - caller should retry
	case errors.Is(err, service.ErrRideBusy):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
