package service

import "errors"

var (
	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidPassengerID is returned when passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidActorID is returned when the acting user ID is empty.
	ErrInvalidActorID = errors.New("invalid actor id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidOrigin is returned when origin coordinates are out of range.
	ErrInvalidOrigin = errors.New("invalid origin location")

	// ErrInvalidDestination is returned when destination coordinates are out of range.
	ErrInvalidDestination = errors.New("invalid destination location")

	// ErrOriginEqualsDestination is returned when origin and destination are
	// the same point within tolerance.
	ErrOriginEqualsDestination = errors.New("origin and destination are the same location")

	// ErrInvalidSeatCount is returned when a seat count is below one or
	// exceeds the ride's total capacity.
	ErrInvalidSeatCount = errors.New("invalid seat count")

	// ErrInvalidPrice is returned when the price is negative.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrDepartureInPast is returned when the departure time has already passed.
	ErrDepartureInPast = errors.New("departure time is in the past")

	// ErrInvalidBookingMode is returned when the booking mode is unknown.
	ErrInvalidBookingMode = errors.New("invalid booking mode")

	// ErrNotRideOwner is returned when the actor does not own the ride.
	ErrNotRideOwner = errors.New("actor is not the ride owner")

	// ErrNotBookingParticipant is returned when the actor is neither the
	// booking's passenger nor the ride's driver.
	ErrNotBookingParticipant = errors.New("actor is not a participant of this booking")

	// ErrRideNotOpen is returned when the ride no longer accepts changes or bookings.
	ErrRideNotOpen = errors.New("ride is not open")

	// ErrRideAlreadyCancelled is returned when cancelling an already cancelled ride.
	ErrRideAlreadyCancelled = errors.New("ride already cancelled")

	// ErrSeatsLockedByBookings is returned when editing seats_total while
	// active bookings exist.
	ErrSeatsLockedByBookings = errors.New("cannot change total seats while bookings are active")

	// ErrBookingModeMismatch is returned when the operation does not match
	// the ride's booking mode.
	ErrBookingModeMismatch = errors.New("operation does not match the ride's booking mode")

	// ErrSelfBooking is returned when a driver tries to book their own ride.
	ErrSelfBooking = errors.New("driver cannot book own ride")

	// ErrDuplicateBooking is returned when the passenger already has an
	// active booking on the ride.
	ErrDuplicateBooking = errors.New("passenger already has an active booking on this ride")

	// ErrBookingNotPending is returned when responding to a booking that is
	// not pending.
	ErrBookingNotPending = errors.New("booking is not pending")

	// ErrBookingNotActive is returned when cancelling a booking that is
	// already terminal.
	ErrBookingNotActive = errors.New("booking is not active")

	// ErrRideBusy is returned when the per-ride lock cannot be acquired in
	// time. The caller may retry.
	ErrRideBusy = errors.New("ride is busy, try again")
)
