package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `
	id, ride_id, passenger_id, seats, status, cancellation_reason, created_at, cancelled_at`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.RideID,
		booking.PassengerID,
		booking.Seats,
		booking.Status,
		nullString(booking.CancellationReason),
		booking.CreatedAt,
		nullTime(booking.CancelledAt),
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// GetByRideID retrieves all bookings for a ride, newest first.
func (r *BookingRepository) GetByRideID(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ride_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// GetActiveByRideID retrieves pending and confirmed bookings for a ride.
func (r *BookingRepository) GetActiveByRideID(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ride_id = $1 AND status IN ($2, $3)
		ORDER BY created_at
	`

	rows, err := r.q.QueryContext(ctx, query, rideID,
		domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// GetActiveByRideAndPassenger retrieves the passenger's active booking on the
// ride, or (nil, nil) if there is none.
func (r *BookingRepository) GetActiveByRideAndPassenger(ctx context.Context, rideID, passengerID string) (*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ride_id = $1 AND passenger_id = $2 AND status IN ($3, $4)
		LIMIT 1
	`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, rideID, passengerID,
		domain.BookingStatusPending, domain.BookingStatusConfirmed))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return booking, nil
}

// Update updates an existing booking.
func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, cancellation_reason = $2, cancelled_at = $3
		WHERE id = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		booking.Status,
		nullString(booking.CancellationReason),
		nullTime(booking.CancelledAt),
		booking.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var reason sql.NullString
	var cancelledAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.RideID,
		&booking.PassengerID,
		&booking.Seats,
		&booking.Status,
		&reason,
		&booking.CreatedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if reason.Valid {
		booking.CancellationReason = reason.String
	}
	if cancelledAt.Valid {
		booking.CancelledAt = cancelledAt.Time
	}

	return &booking, nil
}

func collectBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
