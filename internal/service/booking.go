package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/observability"
	"carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/repository/postgres"
)

const (
	// rideLockTTL bounds how long a crashed holder can block a ride.
	rideLockTTL = 10 * time.Second
	// lockWaitTimeout bounds how long a booking waits for a contended ride.
	lockWaitTimeout = 5 * time.Second
)

// BookingService is the booking state machine. Every transition that reads
// and writes seat counts runs under a per-ride lock, and the seat mutation
// itself is a conditional UPDATE inside a transaction, so total confirmed
// seats can never exceed the ride's capacity.
type BookingService struct {
	db            *sql.DB
	rideRepo      repository.RideRepository
	bookingRepo   repository.BookingRepository
	lockStore     redis.LockStoreInterface
	cacheStore    *redis.CacheStore
	notifications *NotificationService
}

// NewBookingService creates a new BookingService. db, lockStore, cacheStore
// and notifications may be nil (tests wire in-memory stores instead).
func NewBookingService(
	db *sql.DB,
	rideRepo repository.RideRepository,
	bookingRepo repository.BookingRepository,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	notifications *NotificationService,
) *BookingService {
	return &BookingService{
		db:            db,
		rideRepo:      rideRepo,
		bookingRepo:   bookingRepo,
		lockStore:     lockStore,
		cacheStore:    cacheStore,
		notifications: notifications,
	}
}

// BookRequest contains the parameters for booking seats on a ride.
type BookRequest struct {
	RideID      string
	PassengerID string
	Seats       int
}

// Book dispatches to the transition matching the ride's booking mode:
// instant rides confirm immediately, request rides create a pending booking.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (*domain.Booking, error) {
	if err := validateBookRequest(req); err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	switch ride.BookingMode {
	case domain.BookingModeInstant:
		return s.BookInstant(ctx, req)
	case domain.BookingModeRequest:
		return s.RequestBooking(ctx, req)
	default:
		return nil, ErrInvalidBookingMode
	}
}

// BookInstant books seats on an instant-mode ride, decrementing availability
// and confirming the booking as one atomic unit.
func (s *BookingService) BookInstant(ctx context.Context, req BookRequest) (booking *domain.Booking, err error) {
	if err := validateBookRequest(req); err != nil {
		return nil, err
	}

	release, err := s.lockRide(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	defer release()

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride.BookingMode != domain.BookingModeInstant {
		return nil, ErrBookingModeMismatch
	}
	if err := s.checkEligibility(ctx, ride, req.PassengerID, req.Seats); err != nil {
		return nil, err
	}

	booking = &domain.Booking{
		ID:          uuid.New().String(),
		RideID:      ride.ID,
		PassengerID: req.PassengerID,
		Seats:       req.Seats,
		Status:      domain.BookingStatusConfirmed,
		CreatedAt:   time.Now(),
	}

	tx, rideRepo, bookingRepo, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollbackOnError(tx, &err)

	if err = rideRepo.DecrementSeats(ctx, ride.ID, req.Seats); err != nil {
		if errors.Is(err, repository.ErrInsufficientSeats) {
			observability.BookingsTotal.WithLabelValues("instant", "insufficient_seats").Inc()
		}
		return nil, err
	}
	if err = bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}
	if tx != nil {
		if err = tx.Commit(); err != nil {
			return nil, err
		}
	}

	s.invalidateRideCache(ctx, ride.ID)
	observability.BookingsTotal.WithLabelValues("instant", "confirmed").Inc()
	if s.notifications != nil {
		s.notifications.BookingConfirmed(ctx, booking, req.PassengerID)
	}
	return booking, nil
}

// RequestBooking creates a pending booking on a request-mode ride. Seats are
// not reserved until the driver accepts.
func (s *BookingService) RequestBooking(ctx context.Context, req BookRequest) (*domain.Booking, error) {
	if err := validateBookRequest(req); err != nil {
		return nil, err
	}

	release, err := s.lockRide(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	defer release()

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride.BookingMode != domain.BookingModeRequest {
		return nil, ErrBookingModeMismatch
	}
	if err := s.checkEligibility(ctx, ride, req.PassengerID, req.Seats); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:          uuid.New().String(),
		RideID:      ride.ID,
		PassengerID: req.PassengerID,
		Seats:       req.Seats,
		Status:      domain.BookingStatusPending,
		CreatedAt:   time.Now(),
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	observability.BookingsTotal.WithLabelValues("request", "pending").Inc()
	if s.notifications != nil {
		s.notifications.BookingPending(ctx, booking, req.PassengerID)
	}
	return booking, nil
}

// RespondRequest contains the parameters for a driver's answer to a pending
// booking request.
type RespondRequest struct {
	BookingID string
	DriverID  string
	Accept    bool
}

// RespondToRequest confirms or declines a pending booking. Acceptance
// re-checks availability: another booking may have consumed the seats since
// the request was made. On insufficient seats the booking stays pending so
// the driver can retry or decline.
func (s *BookingService) RespondToRequest(ctx context.Context, req RespondRequest) (booking *domain.Booking, err error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	// First read is only to learn the ride; state is re-checked under lock.
	booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	release, err := s.lockRide(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	defer release()

	booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, ErrBookingNotPending
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != req.DriverID {
		return nil, ErrNotRideOwner
	}

	if !req.Accept {
		booking.Status = domain.BookingStatusDeclined
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return nil, err
		}
		observability.BookingsTotal.WithLabelValues("request", "declined").Inc()
		if s.notifications != nil {
			s.notifications.BookingDeclined(ctx, booking, req.DriverID)
		}
		return booking, nil
	}

	if !ride.IsOpen() {
		return nil, ErrRideNotOpen
	}

	tx, rideRepo, bookingRepo, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollbackOnError(tx, &err)

	if err = rideRepo.DecrementSeats(ctx, ride.ID, booking.Seats); err != nil {
		if errors.Is(err, repository.ErrInsufficientSeats) {
			observability.BookingsTotal.WithLabelValues("request", "insufficient_seats").Inc()
		}
		return nil, err
	}

	booking.Status = domain.BookingStatusConfirmed
	if err = bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	if tx != nil {
		if err = tx.Commit(); err != nil {
			return nil, err
		}
	}

	s.invalidateRideCache(ctx, ride.ID)
	observability.BookingsTotal.WithLabelValues("request", "confirmed").Inc()
	if s.notifications != nil {
		s.notifications.BookingConfirmed(ctx, booking, req.DriverID)
	}
	return booking, nil
}

// CancelBookingRequest contains the parameters for cancelling a booking.
type CancelBookingRequest struct {
	BookingID string
	ActorID   string // passenger or ride driver
	Reason    string
}

// CancelBooking cancels a pending or confirmed booking. Seats held by a
// confirmed booking are restored. Cancellation is terminal.
func (s *BookingService) CancelBooking(ctx context.Context, req CancelBookingRequest) (booking *domain.Booking, err error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.ActorID == "" {
		return nil, ErrInvalidActorID
	}

	booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	release, err := s.lockRide(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	defer release()

	booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsActive() {
		return nil, ErrBookingNotActive
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	if req.ActorID != booking.PassengerID && req.ActorID != ride.DriverID {
		return nil, ErrNotBookingParticipant
	}

	wasConfirmed := booking.Status == domain.BookingStatusConfirmed
	booking.Status = domain.BookingStatusCancelled
	booking.CancellationReason = req.Reason
	booking.CancelledAt = time.Now()

	tx, rideRepo, bookingRepo, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollbackOnError(tx, &err)

	if wasConfirmed {
		if err = rideRepo.RestoreSeats(ctx, ride.ID, booking.Seats); err != nil {
			return nil, err
		}
	}
	if err = bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	if tx != nil {
		if err = tx.Commit(); err != nil {
			return nil, err
		}
	}

	s.invalidateRideCache(ctx, ride.ID)
	observability.BookingsTotal.WithLabelValues(modeLabel(ride.BookingMode), "cancelled").Inc()
	if s.notifications != nil {
		s.notifications.BookingCancelled(ctx, booking, req.ActorID)
	}
	return booking, nil
}

// GetBooking retrieves a booking for one of its participants.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if actorID == "" {
		return nil, ErrInvalidActorID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	if actorID != booking.PassengerID && actorID != ride.DriverID {
		return nil, ErrNotBookingParticipant
	}
	return booking, nil
}

// ListRideBookings retrieves all bookings on a ride for its driver.
func (s *BookingService) ListRideBookings(ctx context.Context, rideID, driverID string) ([]*domain.Booking, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, ErrNotRideOwner
	}

	return s.bookingRepo.GetByRideID(ctx, rideID)
}

// checkEligibility runs the shared booking guards: ride open, no
// self-booking, no duplicate active booking, sensible seat count.
func (s *BookingService) checkEligibility(ctx context.Context, ride *domain.Ride, passengerID string, seats int) error {
	if !ride.IsOpen() {
		return ErrRideNotOpen
	}
	if ride.DriverID == passengerID {
		return ErrSelfBooking
	}
	if seats > ride.SeatsTotal {
		return ErrInvalidSeatCount
	}

	existing, err := s.bookingRepo.GetActiveByRideAndPassenger(ctx, ride.ID, passengerID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateBooking
	}
	return nil
}

func validateBookRequest(req BookRequest) error {
	if req.RideID == "" {
		return ErrInvalidRideID
	}
	if req.PassengerID == "" {
		return ErrInvalidPassengerID
	}
	if req.Seats < 1 {
		return ErrInvalidSeatCount
	}
	return nil
}

// lockRide serializes booking transitions on one ride. The returned release
// func is always safe to call.
func (s *BookingService) lockRide(ctx context.Context, rideID string) (func(), error) {
	if s.lockStore == nil {
		return func() {}, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, lockWaitTimeout)
	defer cancel()

	locked, err := s.lockStore.AcquireRideLock(waitCtx, rideID, rideLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrRideBusy
	}
	return func() { _ = s.lockStore.ReleaseRideLock(ctx, rideID) }, nil
}

// begin opens a transaction and returns transaction-scoped repositories.
// Without a database handle it falls back to the service's own repositories.
func (s *BookingService) begin(ctx context.Context) (*sql.Tx, repository.RideRepository, repository.BookingRepository, error) {
	if s.db == nil {
		return nil, s.rideRepo, s.bookingRepo, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, postgres.NewRideRepositoryWithTx(tx), postgres.NewBookingRepositoryWithTx(tx), nil
}

func (s *BookingService) invalidateRideCache(ctx context.Context, rideID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateRide(ctx, rideID)
}

func modeLabel(mode domain.BookingMode) string {
	if mode == domain.BookingModeRequest {
		return "request"
	}
	return "instant"
}
