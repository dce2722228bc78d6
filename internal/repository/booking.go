package repository

import (
	"context"

	"carpool/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetByRideID retrieves all bookings for a ride, newest first.
	GetByRideID(ctx context.Context, rideID string) ([]*domain.Booking, error)

	// GetActiveByRideID retrieves pending and confirmed bookings for a ride.
	GetActiveByRideID(ctx context.Context, rideID string) ([]*domain.Booking, error)

	// GetActiveByRideAndPassenger retrieves the passenger's pending or
	// confirmed booking on the ride. Returns (nil, nil) if there is none.
	GetActiveByRideAndPassenger(ctx context.Context, rideID, passengerID string) (*domain.Booking, error)

	// Update updates an existing booking.
	Update(ctx context.Context, booking *domain.Booking) error
}
