package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/observability"
	"carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/repository/postgres"
)

// originDestToleranceM is the minimum distance between a ride's origin and
// destination; anything closer is treated as the same location.
const originDestToleranceM = 100.0

// RideService handles ride posting operations.
type RideService struct {
	db            *sql.DB
	rideRepo      repository.RideRepository
	bookingRepo   repository.BookingRepository
	geoStore      redis.GeoStoreInterface
	cacheStore    *redis.CacheStore
	notifications *NotificationService
}

// NewRideService creates a new RideService. db, geoStore, cacheStore and
// notifications may be nil (tests wire in-memory repositories instead).
func NewRideService(
	db *sql.DB,
	rideRepo repository.RideRepository,
	bookingRepo repository.BookingRepository,
	geoStore redis.GeoStoreInterface,
	cacheStore *redis.CacheStore,
	notifications *NotificationService,
) *RideService {
	return &RideService{
		db:            db,
		rideRepo:      rideRepo,
		bookingRepo:   bookingRepo,
		geoStore:      geoStore,
		cacheStore:    cacheStore,
		notifications: notifications,
	}
}

// CreateRideRequest contains the parameters for posting a ride.
type CreateRideRequest struct {
	DriverID           string
	Origin             domain.GeoPoint
	OriginAddress      string
	Destination        domain.GeoPoint
	DestinationAddress string
	RoutePolyline      string
	DepartureTime      time.Time
	SeatsTotal         int
	Price              *float64 // nil means free
	BookingMode        domain.BookingMode
}

// CreateRide validates and persists a new ride posting, then indexes its
// endpoints for proximity search.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:                 uuid.New().String(),
		DriverID:           req.DriverID,
		Origin:             req.Origin,
		OriginAddress:      req.OriginAddress,
		Destination:        req.Destination,
		DestinationAddress: req.DestinationAddress,
		RoutePolyline:      req.RoutePolyline,
		DepartureTime:      req.DepartureTime,
		SeatsTotal:         req.SeatsTotal,
		SeatsAvailable:     req.SeatsTotal,
		Price:              req.Price,
		BookingMode:        req.BookingMode,
		Status:             domain.RideStatusUpcoming,
		CreatedAt:          time.Now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	if s.geoStore != nil {
		if err := s.geoStore.IndexRide(ctx, ride.ID, ride.Origin, ride.Destination); err != nil {
			return nil, err
		}
	}

	observability.RidesCreatedTotal.Inc()
	return ride, nil
}

func (s *RideService) validateCreateRequest(req CreateRideRequest) error {
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}
	if !geo.ValidPoint(req.Origin) {
		return ErrInvalidOrigin
	}
	if !geo.ValidPoint(req.Destination) {
		return ErrInvalidDestination
	}
	if geo.WithinTolerance(req.Origin, req.Destination, originDestToleranceM) {
		return ErrOriginEqualsDestination
	}
	if req.SeatsTotal < 1 {
		return ErrInvalidSeatCount
	}
	if req.Price != nil && *req.Price < 0 {
		return ErrInvalidPrice
	}
	if !req.DepartureTime.After(time.Now()) {
		return ErrDepartureInPast
	}
	if _, err := ValidateBookingMode(string(req.BookingMode)); err != nil {
		return err
	}
	return nil
}

// ValidateBookingMode validates a booking mode string.
func ValidateBookingMode(mode string) (domain.BookingMode, error) {
	switch domain.BookingMode(mode) {
	case domain.BookingModeInstant, domain.BookingModeRequest:
		return domain.BookingMode(mode), nil
	default:
		return "", ErrInvalidBookingMode
	}
}

// GetRide retrieves a ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// ListRides retrieves recent ride postings, optionally filtered to one driver.
func (s *RideService) ListRides(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	if driverID != "" {
		return s.rideRepo.GetByDriverID(ctx, driverID)
	}
	return s.rideRepo.GetAll(ctx)
}

// RidePatch contains the fields a driver may change on an upcoming ride.
// Origin and destination points are immutable; a different route is a new ride.
type RidePatch struct {
	OriginAddress      *string
	DestinationAddress *string
	RoutePolyline      *string
	DepartureTime      *time.Time
	Price              *float64
	SeatsTotal         *int
}

// UpdateRideRequest contains the parameters for editing a ride.
type UpdateRideRequest struct {
	RideID   string
	DriverID string
	Patch    RidePatch
}

// UpdateRide applies a patch to a ride owned by the driver. Edits are only
// allowed while the ride is upcoming; seats_total additionally requires that
// no active bookings exist, and the edit resets seats_available.
func (s *RideService) UpdateRide(ctx context.Context, req UpdateRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	if ride.DriverID != req.DriverID {
		return nil, ErrNotRideOwner
	}
	if !ride.IsOpen() {
		return nil, ErrRideNotOpen
	}

	patch := req.Patch
	if patch.SeatsTotal != nil {
		if *patch.SeatsTotal < 1 {
			return nil, ErrInvalidSeatCount
		}
		active, err := s.bookingRepo.GetActiveByRideID(ctx, ride.ID)
		if err != nil {
			return nil, err
		}
		if len(active) > 0 {
			return nil, ErrSeatsLockedByBookings
		}
		ride.SeatsTotal = *patch.SeatsTotal
		ride.SeatsAvailable = *patch.SeatsTotal
	}
	if patch.DepartureTime != nil {
		if !patch.DepartureTime.After(time.Now()) {
			return nil, ErrDepartureInPast
		}
		ride.DepartureTime = *patch.DepartureTime
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, ErrInvalidPrice
		}
		ride.Price = patch.Price
	}
	if patch.OriginAddress != nil {
		ride.OriginAddress = *patch.OriginAddress
	}
	if patch.DestinationAddress != nil {
		ride.DestinationAddress = *patch.DestinationAddress
	}
	if patch.RoutePolyline != nil {
		ride.RoutePolyline = *patch.RoutePolyline
	}

	if err := s.rideRepo.Update(ctx, ride); err != nil {
		return nil, err
	}

	s.invalidateRideCache(ctx, ride.ID)
	return ride, nil
}

// CancelRideRequest contains the parameters for cancelling a ride posting.
type CancelRideRequest struct {
	RideID   string
	DriverID string
	Reason   string
}

// CancelRide withdraws a ride posting and cascades cancellation to all active
// bookings. The ride row is kept so booking history survives.
func (s *RideService) CancelRide(ctx context.Context, req CancelRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	if ride.DriverID != req.DriverID {
		return nil, ErrNotRideOwner
	}
	if ride.Status == domain.RideStatusCancelled {
		return nil, ErrRideAlreadyCancelled
	}
	if !ride.IsOpen() {
		return nil, ErrRideNotOpen
	}

	now := time.Now()
	ride.Status = domain.RideStatusCancelled
	ride.CancelledAt = now
	ride.CancelReason = req.Reason

	tx, rideRepo, bookingRepo, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollbackOnError(tx, &err)

	active, err := bookingRepo.GetActiveByRideID(ctx, ride.ID)
	if err != nil {
		return nil, err
	}

	if err = rideRepo.Update(ctx, ride); err != nil {
		return nil, err
	}

	for _, booking := range active {
		booking.Status = domain.BookingStatusCancelled
		booking.CancellationReason = "ride cancelled by driver"
		booking.CancelledAt = now
		if err = bookingRepo.Update(ctx, booking); err != nil {
			return nil, err
		}
	}

	if tx != nil {
		if err = tx.Commit(); err != nil {
			return nil, err
		}
	}

	if s.geoStore != nil {
		_ = s.geoStore.RemoveRide(ctx, ride.ID)
	}
	s.invalidateRideCache(ctx, ride.ID)

	if s.notifications != nil {
		s.notifications.RideCancelled(ctx, ride, req.DriverID)
		for _, booking := range active {
			s.notifications.BookingCancelled(ctx, booking, req.DriverID)
		}
	}

	return ride, nil
}

// begin opens a transaction and returns transaction-scoped repositories.
// Without a database handle it falls back to the service's own repositories.
func (s *RideService) begin(ctx context.Context) (*sql.Tx, repository.RideRepository, repository.BookingRepository, error) {
	if s.db == nil {
		return nil, s.rideRepo, s.bookingRepo, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, postgres.NewRideRepositoryWithTx(tx), postgres.NewBookingRepositoryWithTx(tx), nil
}

func (s *RideService) invalidateRideCache(ctx context.Context, rideID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateRide(ctx, rideID)
}

// rollbackOnError rolls the transaction back if err is set when the caller
// returns. Safe with a nil transaction.
func rollbackOnError(tx *sql.Tx, err *error) {
	if tx != nil && *err != nil {
		_ = tx.Rollback()
	}
}
