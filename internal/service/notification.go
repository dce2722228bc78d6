package service

import (
	"context"
	"log"
	"time"

	"carpool/internal/domain"
)

// EventType represents the type of event handed to the notification gateway.
type EventType string

const (
	EventBookingConfirmed EventType = "booking_confirmed"
	EventBookingPending   EventType = "booking_pending"
	EventBookingDeclined  EventType = "booking_declined"
	EventBookingCancelled EventType = "booking_cancelled"
	EventRideCancelled    EventType = "ride_cancelled"
)

// Event is the payload emitted to the notification gateway. Delivery and
// ordering to end users are the gateway's concern, not this service's.
type Event struct {
	Type       EventType `json:"type"`
	RideID     string    `json:"ride_id"`
	BookingID  string    `json:"booking_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher delivers events to an external transport.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NotificationService emits booking lifecycle events. Events are always
// logged; when a publisher is configured they are forwarded to it as well.
type NotificationService struct {
	publisher EventPublisher
}

// NewNotificationService creates a new NotificationService. publisher may be
// nil, in which case events are only logged.
func NewNotificationService(publisher EventPublisher) *NotificationService {
	return &NotificationService{publisher: publisher}
}

// BookingConfirmed reports a booking that now holds seats.
func (s *NotificationService) BookingConfirmed(ctx context.Context, booking *domain.Booking, actorID string) {
	s.emit(ctx, Event{Type: EventBookingConfirmed, RideID: booking.RideID, BookingID: booking.ID, ActorID: actorID})
}

// BookingPending reports a new request awaiting driver approval.
func (s *NotificationService) BookingPending(ctx context.Context, booking *domain.Booking, actorID string) {
	s.emit(ctx, Event{Type: EventBookingPending, RideID: booking.RideID, BookingID: booking.ID, ActorID: actorID})
}

// BookingDeclined reports a request the driver turned down.
func (s *NotificationService) BookingDeclined(ctx context.Context, booking *domain.Booking, actorID string) {
	s.emit(ctx, Event{Type: EventBookingDeclined, RideID: booking.RideID, BookingID: booking.ID, ActorID: actorID})
}

// BookingCancelled reports a cancelled booking.
func (s *NotificationService) BookingCancelled(ctx context.Context, booking *domain.Booking, actorID string) {
	s.emit(ctx, Event{Type: EventBookingCancelled, RideID: booking.RideID, BookingID: booking.ID, ActorID: actorID})
}

// RideCancelled reports a ride the driver withdrew.
func (s *NotificationService) RideCancelled(ctx context.Context, ride *domain.Ride, actorID string) {
	s.emit(ctx, Event{Type: EventRideCancelled, RideID: ride.ID, ActorID: actorID})
}

func (s *NotificationService) emit(ctx context.Context, event Event) {
	event.OccurredAt = time.Now()

	log.Printf("[EVENT] type=%s ride=%s booking=%s actor=%s",
		event.Type, event.RideID, event.BookingID, event.ActorID)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Event delivery is best effort; the state transition already committed.
		log.Printf("[EVENT] publish failed: type=%s ride=%s err=%v", event.Type, event.RideID, err)
	}
}
