package domain

import "time"

// RideStatus represents the current status of a ride posting.
type RideStatus string

const (
	RideStatusUpcoming   RideStatus = "UPCOMING"
	RideStatusInProgress RideStatus = "IN_PROGRESS"
	RideStatusCompleted  RideStatus = "COMPLETED"
	RideStatusCancelled  RideStatus = "CANCELLED"
)

// BookingMode controls how passengers reserve seats on a ride.
type BookingMode string

const (
	// BookingModeInstant confirms a booking immediately, no driver approval.
	BookingModeInstant BookingMode = "INSTANT"
	// BookingModeRequest requires explicit driver approval before a seat is reserved.
	BookingModeRequest BookingMode = "REQUEST"
)

// GeoPoint is an immutable (lat, lng) pair in decimal degrees.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Ride represents a driver's ride posting with open seats.
type Ride struct {
	ID                 string
	DriverID           string
	Origin             GeoPoint
	OriginAddress      string
	Destination        GeoPoint
	DestinationAddress string
	RoutePolyline      string // optional encoded route, opaque to this service
	DepartureTime      time.Time
	SeatsTotal         int
	SeatsAvailable     int
	Price              *float64 // per seat; nil means free
	BookingMode        BookingMode
	Status             RideStatus
	CreatedAt          time.Time
	CancelledAt        time.Time
	CancelReason       string
}

// IsOpen reports whether the ride can still accept bookings.
func (r *Ride) IsOpen() bool {
	return r.Status == RideStatusUpcoming
}
