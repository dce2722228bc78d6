package tests

import (
	"context"
	"errors"
	"testing"

	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/service"
)

func newBookingService(rideRepo *MockRideRepository, bookingRepo *MockBookingRepository, publisher *RecordingPublisher) *service.BookingService {
	var notifications *service.NotificationService
	if publisher != nil {
		notifications = service.NewNotificationService(publisher)
	}
	return service.NewBookingService(nil, rideRepo, bookingRepo, NewMockLockStore(), nil, notifications)
}

func TestBookInstant(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	publisher := NewRecordingPublisher()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant))
	svc := newBookingService(rideRepo, bookingRepo, publisher)

	booking, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       2,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	if booking.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", booking.Status)
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 2 {
		t.Errorf("expected 2 seats left, got %d", got)
	}
	types := publisher.EventTypes()
	if len(types) != 1 || types[0] != service.EventBookingConfirmed {
		t.Errorf("expected a booking_confirmed event, got %v", types)
	}
}

func TestBookInstantDuplicate(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant))
	svc := newBookingService(rideRepo, bookingRepo, nil)

	req := service.BookRequest{RideID: "ride-1", PassengerID: "passenger-1", Seats: 1}
	if _, err := svc.Book(context.Background(), req); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := svc.Book(context.Background(), req); !errors.Is(err, service.ErrDuplicateBooking) {
		t.Errorf("expected ErrDuplicateBooking, got %v", err)
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 3 {
		t.Errorf("expected seats unchanged by rejected duplicate, got %d", got)
	}
}

func TestBookInstantInsufficientSeats(t *testing.T) {
	rideRepo := NewMockRideRepository()
	ride := upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant)
	ride.SeatsAvailable = 2
	rideRepo.AddRide(ride)
	svc := newBookingService(rideRepo, NewMockBookingRepository(), nil)

	_, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       3,
	})
	if !errors.Is(err, repository.ErrInsufficientSeats) {
		t.Errorf("expected ErrInsufficientSeats, got %v", err)
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 2 {
		t.Errorf("expected seats unchanged on failure, got %d", got)
	}
}

func TestBookSelfBooking(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant))
	svc := newBookingService(rideRepo, NewMockBookingRepository(), nil)

	_, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "driver-1",
		Seats:       1,
	})
	if !errors.Is(err, service.ErrSelfBooking) {
		t.Errorf("expected ErrSelfBooking, got %v", err)
	}
}

func TestBookClosedRide(t *testing.T) {
	rideRepo := NewMockRideRepository()
	ride := upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant)
	ride.Status = domain.RideStatusCancelled
	rideRepo.AddRide(ride)
	svc := newBookingService(rideRepo, NewMockBookingRepository(), nil)

	_, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       1,
	})
	if !errors.Is(err, service.ErrRideNotOpen) {
		t.Errorf("expected ErrRideNotOpen, got %v", err)
	}
}

func TestBookInstantModeMismatch(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeRequest))
	svc := newBookingService(rideRepo, NewMockBookingRepository(), nil)

	_, err := svc.BookInstant(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       1,
	})
	if !errors.Is(err, service.ErrBookingModeMismatch) {
		t.Errorf("expected ErrBookingModeMismatch, got %v", err)
	}
}

func TestRequestBookingStaysPending(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	publisher := NewRecordingPublisher()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeRequest))
	svc := newBookingService(rideRepo, bookingRepo, publisher)

	booking, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       2,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	if booking.Status != domain.BookingStatusPending {
		t.Errorf("expected PENDING, got %s", booking.Status)
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 4 {
		t.Errorf("pending request must not hold seats, got %d available", got)
	}
	types := publisher.EventTypes()
	if len(types) != 1 || types[0] != service.EventBookingPending {
		t.Errorf("expected a booking_pending event, got %v", types)
	}
}

func TestRespondAccept(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeRequest))
	svc := newBookingService(rideRepo, bookingRepo, nil)

	pending, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       2,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	confirmed, err := svc.RespondToRequest(context.Background(), service.RespondRequest{
		BookingID: pending.ID,
		DriverID:  "driver-1",
		Accept:    true,
	})
	if err != nil {
		t.Fatalf("RespondToRequest failed: %v", err)
	}

	if confirmed.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", confirmed.Status)
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 2 {
		t.Errorf("expected 2 seats left after acceptance, got %d", got)
	}
}

func TestRespondAcceptWrongDriver(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeRequest))
	svc := newBookingService(rideRepo, bookingRepo, nil)

	pending, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       1,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	_, err = svc.RespondToRequest(context.Background(), service.RespondRequest{
		BookingID: pending.ID,
		DriverID:  "driver-2",
		Accept:    true,
	})
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
	if b := bookingRepo.GetBooking(pending.ID); b.Status != domain.BookingStatusPending {
		t.Errorf("booking should stay pending, got %s", b.Status)
	}
}

func TestRespondDecline(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	publisher := NewRecordingPublisher()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeRequest))
	svc := newBookingService(rideRepo, bookingRepo, publisher)

	pending, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       2,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	declined, err := svc.RespondToRequest(context.Background(), service.RespondRequest{
		BookingID: pending.ID,
		DriverID:  "driver-1",
		Accept:    false,
	})
	if err != nil {
		t.Fatalf("RespondToRequest failed: %v", err)
	}

	if declined.Status != domain.BookingStatusDeclined {
		t.Errorf("expected DECLINED, got %s", declined.Status)
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 4 {
		t.Errorf("decline must not touch seats, got %d available", got)
	}
	types := publisher.EventTypes()
	if len(types) != 2 || types[1] != service.EventBookingDeclined {
		t.Errorf("expected booking_declined after booking_pending, got %v", types)
	}
}

func TestRespondToNonPending(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeRequest))
	bookingRepo.AddBooking(&domain.Booking{
		ID: "booking-1", RideID: "ride-1", PassengerID: "passenger-1",
		Seats: 1, Status: domain.BookingStatusDeclined,
	})
	svc := newBookingService(rideRepo, bookingRepo, nil)

	_, err := svc.RespondToRequest(context.Background(), service.RespondRequest{
		BookingID: "booking-1",
		DriverID:  "driver-1",
		Accept:    true,
	})
	if !errors.Is(err, service.ErrBookingNotPending) {
		t.Errorf("expected ErrBookingNotPending, got %v", err)
	}
}

func TestRespondAcceptInsufficientSeatsKeepsPending(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeRequest))
	svc := newBookingService(rideRepo, bookingRepo, nil)

	pending, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       3,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	// Another passenger takes most of the seats before the driver answers.
	if err := rideRepo.DecrementSeats(context.Background(), "ride-1", 2); err != nil {
		t.Fatalf("DecrementSeats failed: %v", err)
	}

	_, err = svc.RespondToRequest(context.Background(), service.RespondRequest{
		BookingID: pending.ID,
		DriverID:  "driver-1",
		Accept:    true,
	})
	if !errors.Is(err, repository.ErrInsufficientSeats) {
		t.Errorf("expected ErrInsufficientSeats, got %v", err)
	}
	if b := bookingRepo.GetBooking(pending.ID); b.Status != domain.BookingStatusPending {
		t.Errorf("booking should stay pending after failed acceptance, got %s", b.Status)
	}
}

func TestCancelConfirmedBookingRestoresSeats(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	publisher := NewRecordingPublisher()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant))
	svc := newBookingService(rideRepo, bookingRepo, publisher)

	booking, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       2,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	cancelled, err := svc.CancelBooking(context.Background(), service.CancelBookingRequest{
		BookingID: booking.ID,
		ActorID:   "passenger-1",
		Reason:    "change of plans",
	})
	if err != nil {
		t.Fatalf("CancelBooking failed: %v", err)
	}

	if cancelled.Status != domain.BookingStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.CancellationReason != "change of plans" {
		t.Errorf("expected reason preserved, got %q", cancelled.CancellationReason)
	}
	if cancelled.CancelledAt.IsZero() {
		t.Error("expected cancelled_at set")
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 4 {
		t.Errorf("expected seats restored to 4, got %d", got)
	}
	types := publisher.EventTypes()
	if len(types) != 2 || types[1] != service.EventBookingCancelled {
		t.Errorf("expected booking_cancelled event, got %v", types)
	}
}

func TestCancelPendingBookingLeavesSeats(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeRequest))
	svc := newBookingService(rideRepo, bookingRepo, nil)

	pending, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       2,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	if _, err := svc.CancelBooking(context.Background(), service.CancelBookingRequest{
		BookingID: pending.ID,
		ActorID:   "passenger-1",
	}); err != nil {
		t.Fatalf("CancelBooking failed: %v", err)
	}
	if got := rideRepo.GetRide("ride-1").SeatsAvailable; got != 4 {
		t.Errorf("cancelling a pending booking must not change seats, got %d", got)
	}
}

func TestCancelBookingByDriver(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant))
	svc := newBookingService(rideRepo, bookingRepo, nil)

	booking, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       1,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	if _, err := svc.CancelBooking(context.Background(), service.CancelBookingRequest{
		BookingID: booking.ID,
		ActorID:   "driver-1",
		Reason:    "no show",
	}); err != nil {
		t.Fatalf("driver cancel failed: %v", err)
	}
}

func TestCancelBookingByOutsider(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant))
	svc := newBookingService(rideRepo, bookingRepo, nil)

	booking, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       1,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	_, err = svc.CancelBooking(context.Background(), service.CancelBookingRequest{
		BookingID: booking.ID,
		ActorID:   "someone-else",
	})
	if !errors.Is(err, service.ErrNotBookingParticipant) {
		t.Errorf("expected ErrNotBookingParticipant, got %v", err)
	}
}

func TestCancelBookingTwice(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant))
	svc := newBookingService(rideRepo, bookingRepo, nil)

	booking, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       1,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	req := service.CancelBookingRequest{BookingID: booking.ID, ActorID: "passenger-1"}
	if _, err := svc.CancelBooking(context.Background(), req); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if _, err := svc.CancelBooking(context.Background(), req); !errors.Is(err, service.ErrBookingNotActive) {
		t.Errorf("expected ErrBookingNotActive, got %v", err)
	}
}

func TestGetBookingAuthorization(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant))
	svc := newBookingService(rideRepo, bookingRepo, nil)

	booking, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       1,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	for _, actor := range []string{"passenger-1", "driver-1"} {
		if _, err := svc.GetBooking(context.Background(), booking.ID, actor); err != nil {
			t.Errorf("expected %s to read the booking, got %v", actor, err)
		}
	}
	if _, err := svc.GetBooking(context.Background(), booking.ID, "someone-else"); !errors.Is(err, service.ErrNotBookingParticipant) {
		t.Errorf("expected ErrNotBookingParticipant, got %v", err)
	}
}

func TestListRideBookingsOwnerOnly(t *testing.T) {
	rideRepo := NewMockRideRepository()
	bookingRepo := NewMockBookingRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 4, domain.BookingModeInstant))
	bookingRepo.AddBooking(&domain.Booking{
		ID: "booking-1", RideID: "ride-1", PassengerID: "passenger-1",
		Seats: 1, Status: domain.BookingStatusConfirmed,
	})
	svc := newBookingService(rideRepo, bookingRepo, nil)

	bookings, err := svc.ListRideBookings(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("ListRideBookings failed: %v", err)
	}
	if len(bookings) != 1 {
		t.Errorf("expected 1 booking, got %d", len(bookings))
	}

	if _, err := svc.ListRideBookings(context.Background(), "ride-1", "passenger-1"); !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
}

func TestBookValidation(t *testing.T) {
	svc := newBookingService(NewMockRideRepository(), NewMockBookingRepository(), nil)

	cases := []struct {
		name    string
		req     service.BookRequest
		wantErr error
	}{
		{"missing ride", service.BookRequest{PassengerID: "p", Seats: 1}, service.ErrInvalidRideID},
		{"missing passenger", service.BookRequest{RideID: "r", Seats: 1}, service.ErrInvalidPassengerID},
		{"zero seats", service.BookRequest{RideID: "r", PassengerID: "p"}, service.ErrInvalidSeatCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Book(context.Background(), tc.req); !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBookSeatsAboveTotal(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(upcomingRide("ride-1", "driver-1", 2, domain.BookingModeInstant))
	svc := newBookingService(rideRepo, NewMockBookingRepository(), nil)

	_, err := svc.Book(context.Background(), service.BookRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Seats:       3,
	})
	if !errors.Is(err, service.ErrInvalidSeatCount) {
		t.Errorf("expected ErrInvalidSeatCount, got %v", err)
	}
}
