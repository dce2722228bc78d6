package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// TestConcurrentBookingLastSeat races two passengers for the final seat.
// Exactly one booking must confirm; the other must fail with insufficient
// seats, and the counter must end at zero.
func TestConcurrentBookingLastSeat(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	ride := upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant)
	ride.SeatsAvailable = 1
	rideRepo.AddRide(ride)
	svc := newBookingService(rideRepo, bookingRepo, nil)

	passengers := []string{"passenger-1", "passenger-2"}
	results := make([]error, len(passengers))

	var wg sync.WaitGroup
	for i, p := range passengers {
		wg.Add(1)
		go func(i int, passengerID string) {
			defer wg.Done()
			_, err := svc.BookInstant(context.Background(), service.BookRequest{
				RideID:      "ride-1",
				PassengerID: passengerID,
				Seats:       1,
			})
			results[i] = err
		}(i, p)
	}
	wg.Wait()

	var confirmed, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, repository.ErrInsufficientSeats):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if confirmed != 1 {
		t.Errorf("expected exactly one confirmed booking, got %d", confirmed)
	}
	if insufficient != 1 {
		t.Errorf("expected exactly one insufficient-seats failure, got %d", insufficient)
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 0 {
		t.Errorf("expected 0 seats left, got %d", got)
	}

	bookings, err := bookingRepo.GetByRideID(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("GetByRideID failed: %v", err)
	}
	var stored int
	for _, b := range bookings {
		if b.Status == domain.BookingStatusConfirmed {
			stored++
		}
	}
	if stored != 1 {
		t.Errorf("expected exactly one confirmed booking stored, got %d", stored)
	}
}

// TestConcurrentBookingManySeats hammers one ride with more passengers than
// seats. Confirmed seat totals must never exceed capacity.
func TestConcurrentBookingManySeats(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	ride := upcomingRide("ride-1", "driver-1", 5, domain.BookingModeInstant)
	rideRepo.AddRide(ride)
	svc := newBookingService(rideRepo, bookingRepo, nil)

	const passengers = 20
	var wg sync.WaitGroup
	for i := 0; i < passengers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.BookInstant(context.Background(), service.BookRequest{
				RideID:      "ride-1",
				PassengerID: "passenger-" + string(rune('a'+i)),
				Seats:       1,
			})
		}(i)
	}
	wg.Wait()

	bookings, err := bookingRepo.GetByRideID(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("GetByRideID failed: %v", err)
	}
	var seatsHeld int
	for _, b := range bookings {
		if b.Status == domain.BookingStatusConfirmed {
			seatsHeld += b.Seats
		}
	}

	if seatsHeld != 5 {
		t.Errorf("expected all 5 seats confirmed, got %d", seatsHeld)
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 0 {
		t.Errorf("expected 0 seats left, got %d", got)
	}
	if seatsHeld+rideRepo.GetRide("ride-1").SeatsAvailable != ride.SeatsTotal {
		t.Error("confirmed seats plus available seats must equal capacity")
	}
}

// TestConcurrentCancelAndBook races a cancellation against a new booking for
// the seat it frees. Whatever the interleaving, the counter must stay within
// bounds.
func TestConcurrentCancelAndBook(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	ride := upcomingRide("ride-1", "driver-1", 1, domain.BookingModeInstant)
	rideRepo.AddRide(ride)
	svc := newBookingService(rideRepo, bookingRepo, nil)

	first, err := svc.BookInstant(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       1,
	})
	if err != nil {
		t.Fatalf("initial booking failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = svc.CancelBooking(context.Background(), service.CancelBookingRequest{
			BookingID: first.ID,
			ActorID:   "passenger-1",
		})
	}()
	go func() {
		defer wg.Done()
		_, _ = svc.BookInstant(context.Background(), service.BookRequest{
			RideID:      "ride-1",
			PassengerID: "passenger-2",
			Seats:       1,
		})
	}()
	wg.Wait()

	got := rideRepo.GetRide("ride-1")
	if got.SeatsAvailable < 0 || got.SeatsAvailable > got.SeatsTotal {
		t.Errorf("seat counter out of bounds: %d/%d", got.SeatsAvailable, got.SeatsTotal)
	}
}
