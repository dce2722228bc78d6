package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `
	id, driver_id, origin_lat, origin_lng, origin_address,
	destination_lat, destination_lng, destination_address, route_polyline,
	departure_time, seats_total, seats_available, price, booking_mode, status,
	cancelled_at, cancel_reason, created_at`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.DriverID,
		ride.Origin.Lat,
		ride.Origin.Lng,
		ride.OriginAddress,
		ride.Destination.Lat,
		ride.Destination.Lng,
		ride.DestinationAddress,
		nullString(ride.RoutePolyline),
		ride.DepartureTime,
		ride.SeatsTotal,
		ride.SeatsAvailable,
		nullFloat(ride.Price),
		ride.BookingMode,
		ride.Status,
		nullTime(ride.CancelledAt),
		nullString(ride.CancelReason),
		ride.CreatedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetByIDs retrieves all rides matching the given IDs in a single query.
func (r *RideRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Ride, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = ANY($1)`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// GetByDriverID retrieves all rides posted by a driver, newest first.
func (r *RideRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// GetAll retrieves recent rides.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// Update updates an existing ride. Seat counters are not written here; they
// change only through DecrementSeats/RestoreSeats or a seats_total edit.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET origin_address = $1, destination_address = $2, route_polyline = $3,
		    departure_time = $4, seats_total = $5, seats_available = $6,
		    price = $7, status = $8, cancelled_at = $9, cancel_reason = $10
		WHERE id = $11
	`

	result, err := r.q.ExecContext(ctx, query,
		ride.OriginAddress,
		ride.DestinationAddress,
		nullString(ride.RoutePolyline),
		ride.DepartureTime,
		ride.SeatsTotal,
		ride.SeatsAvailable,
		nullFloat(ride.Price),
		ride.Status,
		nullTime(ride.CancelledAt),
		nullString(ride.CancelReason),
		ride.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// DecrementSeats atomically subtracts count from seats_available. The
// condition makes the decrement a compare-and-swap: two concurrent bookings
// can never drive the counter negative.
func (r *RideRepository) DecrementSeats(ctx context.Context, id string, count int) error {
	query := `
		UPDATE rides
		SET seats_available = seats_available - $2
		WHERE id = $1 AND seats_available >= $2
	`

	result, err := r.q.ExecContext(ctx, query, id, count)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if err := r.exists(ctx, id); err != nil {
			return err
		}
		return repository.ErrInsufficientSeats
	}
	return nil
}

// RestoreSeats atomically adds count back to seats_available, never
// exceeding seats_total.
func (r *RideRepository) RestoreSeats(ctx context.Context, id string, count int) error {
	query := `
		UPDATE rides
		SET seats_available = seats_available + $2
		WHERE id = $1 AND seats_available + $2 <= seats_total
	`

	result, err := r.q.ExecContext(ctx, query, id, count)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if err := r.exists(ctx, id); err != nil {
			return err
		}
		return repository.ErrSeatsExceedTotal
	}
	return nil
}

// exists returns ErrNotFound if the ride does not exist.
func (r *RideRepository) exists(ctx context.Context, id string) error {
	var one int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM rides WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var polyline sql.NullString
	var price sql.NullFloat64
	var cancelledAt sql.NullTime
	var cancelReason sql.NullString

	err := row.Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.Origin.Lat,
		&ride.Origin.Lng,
		&ride.OriginAddress,
		&ride.Destination.Lat,
		&ride.Destination.Lng,
		&ride.DestinationAddress,
		&polyline,
		&ride.DepartureTime,
		&ride.SeatsTotal,
		&ride.SeatsAvailable,
		&price,
		&ride.BookingMode,
		&ride.Status,
		&cancelledAt,
		&cancelReason,
		&ride.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if polyline.Valid {
		ride.RoutePolyline = polyline.String
	}
	if price.Valid {
		v := price.Float64
		ride.Price = &v
	}
	if cancelledAt.Valid {
		ride.CancelledAt = cancelledAt.Time
	}
	if cancelReason.Valid {
		ride.CancelReason = cancelReason.String
	}

	return &ride, nil
}

func collectRides(rows *sql.Rows) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
