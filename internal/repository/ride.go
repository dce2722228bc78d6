package repository

import (
	"context"

	"carpool/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetByIDs retrieves all rides matching the given IDs in a single query.
	// Unknown IDs are silently omitted from the result.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Ride, error)

	// GetByDriverID retrieves all rides posted by a driver, newest first.
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// GetAll retrieves recent rides.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// Update updates an existing ride.
	Update(ctx context.Context, ride *domain.Ride) error

	// DecrementSeats atomically subtracts count from seats_available.
	// Returns ErrInsufficientSeats if fewer than count seats remain.
	DecrementSeats(ctx context.Context, id string, count int) error

	// RestoreSeats atomically adds count back to seats_available.
	// Returns ErrSeatsExceedTotal if the restore would exceed seats_total.
	RestoreSeats(ctx context.Context, id string, count int) error
}
