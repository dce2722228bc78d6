package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// RideHandler handles HTTP requests for ride postings.
type RideHandler struct {
	rideService    *service.RideService
	bookingService *service.BookingService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, bookingService *service.BookingService) *RideHandler {
	return &RideHandler{
		rideService:    rideService,
		bookingService: bookingService,
	}
}

// CreateRideRequest is the HTTP request body for posting a ride.
type CreateRideRequest struct {
	OriginLat          float64  `json:"origin_lat"`
	OriginLng          float64  `json:"origin_lng"`
	OriginAddress      string   `json:"origin_address"`
	DestinationLat     float64  `json:"destination_lat"`
	DestinationLng     float64  `json:"destination_lng"`
	DestinationAddress string   `json:"destination_address"`
	RoutePolyline      string   `json:"route_polyline,omitempty"`
	DepartureTime      string   `json:"departure_time"` // RFC 3339
	SeatsTotal         int      `json:"seats_total"`
	Price              *float64 `json:"price,omitempty"` // null means free
	BookingMode        string   `json:"booking_mode"`    // INSTANT or REQUEST
}

// UpdateRideRequest is the HTTP request body for editing a ride.
type UpdateRideRequest struct {
	OriginAddress      *string  `json:"origin_address,omitempty"`
	DestinationAddress *string  `json:"destination_address,omitempty"`
	RoutePolyline      *string  `json:"route_polyline,omitempty"`
	DepartureTime      *string  `json:"departure_time,omitempty"`
	Price              *float64 `json:"price,omitempty"`
	SeatsTotal         *int     `json:"seats_total,omitempty"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID                 string   `json:"id"`
	DriverID           string   `json:"driver_id"`
	OriginLat          float64  `json:"origin_lat"`
	OriginLng          float64  `json:"origin_lng"`
	OriginAddress      string   `json:"origin_address"`
	DestinationLat     float64  `json:"destination_lat"`
	DestinationLng     float64  `json:"destination_lng"`
	DestinationAddress string   `json:"destination_address"`
	RoutePolyline      string   `json:"route_polyline,omitempty"`
	DepartureTime      string   `json:"departure_time"`
	SeatsTotal         int      `json:"seats_total"`
	SeatsAvailable     int      `json:"seats_available"`
	Price              *float64 `json:"price,omitempty"`
	BookingMode        string   `json:"booking_mode"`
	Status             string   `json:"status"`
	CancelledAt        string   `json:"cancelled_at,omitempty"`
	CancelReason       string   `json:"cancel_reason,omitempty"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:                 ride.ID,
		DriverID:           ride.DriverID,
		OriginLat:          ride.Origin.Lat,
		OriginLng:          ride.Origin.Lng,
		OriginAddress:      ride.OriginAddress,
		DestinationLat:     ride.Destination.Lat,
		DestinationLng:     ride.Destination.Lng,
		DestinationAddress: ride.DestinationAddress,
		RoutePolyline:      ride.RoutePolyline,
		DepartureTime:      ride.DepartureTime.Format(time.RFC3339),
		SeatsTotal:         ride.SeatsTotal,
		SeatsAvailable:     ride.SeatsAvailable,
		Price:              ride.Price,
		BookingMode:        string(ride.BookingMode),
		Status:             string(ride.Status),
	}
	if !ride.CancelledAt.IsZero() {
		resp.CancelledAt = ride.CancelledAt.Format(time.RFC3339)
		resp.CancelReason = ride.CancelReason
	}
	return resp
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid departure_time, expected RFC 3339"})
		return
	}

	mode, err := service.ValidateBookingMode(req.BookingMode)
	if err != nil {
		respondError(c, err)
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		DriverID:           actorID(c),
		Origin:             domain.GeoPoint{Lat: req.OriginLat, Lng: req.OriginLng},
		OriginAddress:      req.OriginAddress,
		Destination:        domain.GeoPoint{Lat: req.DestinationLat, Lng: req.DestinationLng},
		DestinationAddress: req.DestinationAddress,
		RoutePolyline:      req.RoutePolyline,
		DepartureTime:      departure,
		SeatsTotal:         req.SeatsTotal,
		Price:              req.Price,
		BookingMode:        mode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ListRides handles GET /v1/rides, optionally filtered by driver_id.
func (h *RideHandler) ListRides(c *gin.Context) {
	rides, err := h.rideService.ListRides(c.Request.Context(), c.Query("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		response = append(response, toRideResponse(ride))
	}
	respondJSON(c, http.StatusOK, response)
}

// UpdateRide handles PATCH /v1/rides/:id
func (h *RideHandler) UpdateRide(c *gin.Context) {
	var req UpdateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	patch := service.RidePatch{
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		RoutePolyline:      req.RoutePolyline,
		Price:              req.Price,
		SeatsTotal:         req.SeatsTotal,
	}
	if req.DepartureTime != nil {
		departure, err := time.Parse(time.RFC3339, *req.DepartureTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid departure_time, expected RFC 3339"})
			return
		}
		patch.DepartureTime = &departure
	}

	ride, err := h.rideService.UpdateRide(c.Request.Context(), service.UpdateRideRequest{
		RideID:   c.Param("id"),
		DriverID: actorID(c),
		Patch:    patch,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), service.CancelRideRequest{
		RideID:   c.Param("id"),
		DriverID: actorID(c),
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ListRideBookings handles GET /v1/rides/:id/bookings (ride owner only)
func (h *RideHandler) ListRideBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListRideBookings(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		response = append(response, toBookingResponse(booking))
	}
	respondJSON(c, http.StatusOK, response)
}
