package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest is the HTTP request body for booking seats.
type CreateBookingRequest struct {
	RideID string `json:"ride_id"`
	Seats  int    `json:"seats"`
}

// RespondBookingRequest is the HTTP request body for a driver's answer to a
// pending request.
type RespondBookingRequest struct {
	Accept bool `json:"accept"`
}

// CancelBookingRequest is the HTTP request body for cancelling a booking.
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID                 string `json:"id"`
	RideID             string `json:"ride_id"`
	PassengerID        string `json:"passenger_id"`
	Seats              int    `json:"seats"`
	Status             string `json:"status"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	CreatedAt          string `json:"created_at"`
	CancelledAt        string `json:"cancelled_at,omitempty"`
}

func toBookingResponse(booking *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                 booking.ID,
		RideID:             booking.RideID,
		PassengerID:        booking.PassengerID,
		Seats:              booking.Seats,
		Status:             string(booking.Status),
		CancellationReason: booking.CancellationReason,
		CreatedAt:          booking.CreatedAt.Format(time.RFC3339),
	}
	if !booking.CancelledAt.IsZero() {
		resp.CancelledAt = booking.CancelledAt.Format(time.RFC3339)
	}
	return resp
}

// CreateBooking handles POST /v1/bookings. The ride's booking mode decides
// whether the booking confirms instantly or waits for the driver.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.Book(c.Request.Context(), service.BookRequest{
		RideID:      req.RideID,
		PassengerID: actorID(c),
		Seats:       req.Seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// RespondToBooking handles POST /v1/bookings/:id/respond (ride owner only)
func (h *BookingHandler) RespondToBooking(c *gin.Context) {
	var req RespondBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.RespondToRequest(c.Request.Context(), service.RespondRequest{
		BookingID: c.Param("id"),
		DriverID:  actorID(c),
		Accept:    req.Accept,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), service.CancelBookingRequest{
		BookingID: c.Param("id"),
		ActorID:   actorID(c),
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}
