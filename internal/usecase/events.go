package usecase

import (
	"context"
	"time"

	"fitness-booking/internal/data/entity"

	"go.uber.org/zap"
)

// Routing keys on the booking events exchange.
const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventProposalSubmitted    = "booking.proposal_submitted"
	EventProposalAnswered     = "booking.proposal_answered"
	EventBookingCompleted     = "booking.completed"
	EventPaymentUpdated       = "payment.updated"
	EventBookingRated         = "booking.rated"
)

// EventPublisher is satisfied by mq.Publisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type noopPublisher struct{}

func (noopPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	return nil
}

type BookingEvent struct {
	Type          string               `json:"type"`
	BookingID     string               `json:"booking_id"`
	Kind          entity.BookingKind   `json:"kind"`
	Status        entity.BookingStatus `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	UserID        string               `json:"user_id"`
	ProviderID    string               `json:"provider_id"`
	ActorID       string               `json:"actor_id,omitempty"`
	Date          string               `json:"date"`
	Time          string               `json:"time"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// publish is best effort: a broker outage never fails a booking operation.
func (s *bookingService) publish(ctx context.Context, key string, b *entity.Booking, actorID string) {
	evt := BookingEvent{
		Type:          key,
		BookingID:     b.ID.String(),
		Kind:          b.Kind,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		UserID:        b.UserID,
		ProviderID:    b.ProviderID(),
		ActorID:       actorID,
		Date:          b.Date,
		Time:          b.Time,
		OccurredAt:    s.now(),
	}
	if err := s.events.PublishJSON(ctx, key, evt); err != nil {
		s.log.Warn("Failed to publish booking event",
			zap.Error(err),
			zap.String("event", key),
			zap.String("booking_id", evt.BookingID))
	}
}
