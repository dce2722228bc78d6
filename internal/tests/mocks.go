package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount    int32
	UpdateCallCount    int32
	DecrementCallCount int32
	RestoreCallCount   int32

	// Error injection
	CreateError    error
	UpdateError    error
	DecrementError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, id := range ids {
		if ride, ok := m.rides[id]; ok {
			copy := *ride
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, ride := range m.rides {
		if ride.DriverID == driverID {
			copy := *ride
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, ride := range m.rides {
		copy := *ride
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

// DecrementSeats mirrors the conditional UPDATE: the check and the subtraction
// happen under one lock, so concurrent callers see the same guarantee.
func (m *MockRideRepository) DecrementSeats(ctx context.Context, id string, count int) error {
	atomic.AddInt32(&m.DecrementCallCount, 1)
	if m.DecrementError != nil {
		return m.DecrementError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.SeatsAvailable < count {
		return repository.ErrInsufficientSeats
	}
	ride.SeatsAvailable -= count
	return nil
}

func (m *MockRideRepository) RestoreSeats(ctx context.Context, id string, count int) error {
	atomic.AddInt32(&m.RestoreCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.SeatsAvailable+count > ride.SeatsTotal {
		return repository.ErrSeatsExceedTotal
	}
	ride.SeatsAvailable += count
	return nil
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

// GetBooking returns the stored booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *booking
	m.bookings[booking.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) GetByRideID(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.RideID == rideID {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) GetActiveByRideID(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.RideID == rideID && b.IsActive() {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) GetActiveByRideAndPassenger(ctx context.Context, rideID, passengerID string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.RideID == rideID && b.PassengerID == passengerID && b.IsActive() {
			copy := *b
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *booking
	m.bookings[booking.ID] = &copy
	return nil
}

// ──────────────────────────────────────────────
// MOCK GEO STORE
// ──────────────────────────────────────────────

type geoEntry struct {
	origin      domain.GeoPoint
	destination domain.GeoPoint
}

// MockGeoStore is an in-memory implementation of the geo index that computes
// real haversine distances.
type MockGeoStore struct {
	mu      sync.RWMutex
	entries map[string]geoEntry
}

// NewMockGeoStore creates a new mock geo store.
func NewMockGeoStore() *MockGeoStore {
	return &MockGeoStore{
		entries: make(map[string]geoEntry),
	}
}

// EntryCount returns the number of indexed rides.
func (m *MockGeoStore) EntryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MockGeoStore) IndexRide(ctx context.Context, rideID string, origin, destination domain.GeoPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[rideID] = geoEntry{origin: origin, destination: destination}
	return nil
}

func (m *MockGeoStore) RemoveRide(ctx context.Context, rideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, rideID)
	return nil
}

func (m *MockGeoStore) NearbyOrigins(ctx context.Context, center domain.GeoPoint, radiusM float64) ([]redis.RideDistance, error) {
	return m.nearby(center, radiusM, func(e geoEntry) domain.GeoPoint { return e.origin }), nil
}

func (m *MockGeoStore) NearbyDestinations(ctx context.Context, center domain.GeoPoint, radiusM float64) ([]redis.RideDistance, error) {
	return m.nearby(center, radiusM, func(e geoEntry) domain.GeoPoint { return e.destination }), nil
}

func (m *MockGeoStore) nearby(center domain.GeoPoint, radiusM float64, point func(geoEntry) domain.GeoPoint) []redis.RideDistance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []redis.RideDistance
	for id, e := range m.entries {
		d := geo.DistanceM(center, point(e))
		if d <= radiusM {
			result = append(result, redis.RideDistance{RideID: id, DistanceM: d})
		}
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory per-ride lock with the same polling acquire
// semantics as the Redis implementation.
type MockLockStore struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		held: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	for {
		m.mu.Lock()
		if !m.held[rideID] {
			m.held[rideID] = true
			m.mu.Unlock()
			return true, nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, rideID)
	return nil
}

// ──────────────────────────────────────────────
// RECORDING PUBLISHER
// ──────────────────────────────────────────────

// RecordingPublisher captures published events for assertions.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []service.Event
}

// NewRecordingPublisher creates a new recording publisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, event service.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of the captured events.
func (p *RecordingPublisher) Events() []service.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]service.Event, len(p.events))
	copy(out, p.events)
	return out
}

// EventTypes returns the captured event types in order.
func (p *RecordingPublisher) EventTypes() []service.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]service.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}
