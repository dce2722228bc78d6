package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusDeclined  BookingStatus = "DECLINED"
)

// Booking represents a passenger's seat reservation on a ride.
type Booking struct {
	ID                 string
	RideID             string
	PassengerID        string
	Seats              int
	Status             BookingStatus
	CancellationReason string
	CreatedAt          time.Time
	CancelledAt        time.Time
}

// IsActive reports whether the booking still holds or may hold seats.
// Cancelled and declined bookings are terminal.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}
