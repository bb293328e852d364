package usecase

import (
	"context"
	"fmt"

	"fitness-booking/internal/data/entity"
	"fitness-booking/internal/dto/request"
	"fitness-booking/pkg/utils"

	"go.uber.org/zap"
)

func (s *bookingService) UpdateBookingStatus(ctx context.Context, caller entity.Caller, id string, status entity.BookingStatus) (*entity.Booking, error) {
	switch status {
	case entity.BookingStatusCancelled:
		return s.CancelBooking(ctx, caller, id, "")
	case entity.BookingStatusConfirmed, entity.BookingStatusRejected:
	default:
		return nil, fieldError("Status", "Must be one of: confirmed, rejected, cancelled")
	}

	b, role, err := s.mutate(caller, id, func(b *entity.Booking, role entity.Party) error {
		if role != entity.PartyProvider {
			return fmt.Errorf("only the provider can %s a booking: %w", status, ErrForbidden)
		}
		if b.Status != entity.BookingStatusPending {
			return invalidTransition(b, "set "+string(status)+" on")
		}
		b.Status = status
		if status == entity.BookingStatusRejected {
			s.availability.Release(ctx, b.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if status == entity.BookingStatusRejected {
		s.notifications.settle(b.ID)
	}
	s.notifyParty(b, role.Other(), statusTitle(status),
		fmt.Sprintf("%s for %s is now %s.", describeItem(b), describeSchedule(b), status))
	s.publish(ctx, EventBookingStatusChanged, b, caller.ID)

	return s.persist(ctx, b)
}

// CancelBooking changes status only; payment is left for RefundPayment.
func (s *bookingService) CancelBooking(ctx context.Context, caller entity.Caller, id, reason string) (*entity.Booking, error) {
	b, role, err := s.mutate(caller, id, func(b *entity.Booking, role entity.Party) error {
		if b.IsTerminal() {
			return invalidTransition(b, "cancel")
		}
		b.Status = entity.BookingStatusCancelled
		b.CancelReason = reason
		b.Proposal = nil
		s.availability.Release(ctx, b.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.settle(b.ID)

	msg := fmt.Sprintf("%s for %s was cancelled.", describeItem(b), describeSchedule(b))
	if reason != "" {
		msg += " Reason: " + reason
	}
	s.notifyParty(b, role.Other(), "Booking cancelled", msg)
	s.publish(ctx, EventBookingStatusChanged, b, caller.ID)

	s.log.Info("Booking cancelled",
		zap.String("booking_id", b.ID.String()),
		zap.String("by", string(role)))

	return s.persist(ctx, b)
}

func (s *bookingService) SubmitProposal(ctx context.Context, caller entity.Caller, id string, req *request.ProposalRequest) (*entity.Booking, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if !req.HasChanges() {
		return nil, fieldError("Changes", "At least one of date, time, duration, location or gym must change")
	}
	if req.Date != "" {
		d, err := utils.ParseDate(req.Date, s.loc)
		if err != nil || d.Before(s.today()) {
			return nil, fieldError("Date", "Must not be in the past")
		}
	}

	var gym *entity.Gym
	if req.GymID != "" {
		var err error
		if gym, err = s.repo.Catalog.FindGym(ctx, req.GymID); err != nil {
			return nil, fmt.Errorf("lookup gym %s: %w", req.GymID, err)
		}
		if gym == nil {
			return nil, fieldError("GymID", "Unknown gym")
		}
	}

	b, role, err := s.mutate(caller, id, func(b *entity.Booking, role entity.Party) error {
		if b.Status != entity.BookingStatusPending && b.Status != entity.BookingStatusConfirmed {
			return invalidTransition(b, "propose changes to")
		}

		p := &entity.Proposal{
			ID:           utils.GenerateUUID(),
			ProposedBy:   role,
			Date:         firstNonEmpty(req.Date, b.Date),
			Time:         firstNonEmpty(req.Time, b.Time),
			Duration:     b.Duration,
			LocationType: b.LocationType,
			GymID:        b.GymID,
			GymName:      b.GymName,
			Message:      req.Message,
			Status:       entity.ProposalStatusPending,
			PriorStatus:  b.Status,
			CreatedAt:    s.now(),
		}
		if req.Duration > 0 {
			p.Duration = req.Duration
		}
		if req.LocationType != "" {
			p.LocationType = entity.LocationType(req.LocationType)
		}
		if gym != nil {
			if b.Kind != entity.BookingKindPrivateSession && gym.ID != b.GymID {
				return fieldError("GymID", "Classes stay at the gym that runs them")
			}
			p.GymID, p.GymName = gym.ID, gym.Name
		}

		if b.Kind == entity.BookingKindPrivateSession {
			if _, err := s.availability.blockFor(b.ID, b.CoachID, p.Date, p.Time, p.Duration); err != nil {
				return err
			}
		} else if _, err := utils.EndClock(p.Time, p.Duration); err != nil {
			return scheduleError(err)
		}

		b.Proposal = p
		b.Status = entity.BookingStatusModified
		return nil
	})
	if err != nil {
		return nil, err
	}

	p := b.Proposal
	s.notifyParty(b, role.Other(), "Change proposed",
		fmt.Sprintf("%s proposed moving %s to %s at %s: %s",
			caller.Name, describeItem(b), utils.HumanDate(p.Date), utils.HumanTime(p.Time), p.Message))
	s.publish(ctx, EventProposalSubmitted, b, caller.ID)

	return s.persist(ctx, b)
}

// RespondToProposal answers the booking's active proposal. Only the party
// that did not propose may answer.
func (s *bookingService) RespondToProposal(ctx context.Context, caller entity.Caller, id, proposalID string, accept bool, message string) (*entity.Booking, error) {
	var proposer entity.Party

	b, _, err := s.mutate(caller, id, func(b *entity.Booking, role entity.Party) error {
		p := b.Proposal
		if b.Status != entity.BookingStatusModified || p == nil {
			return invalidTransition(b, "answer a proposal on")
		}
		if p.ID.String() != proposalID {
			return notFound("proposal", proposalID)
		}
		if p.ProposedBy == role {
			return fmt.Errorf("cannot answer your own proposal: %w", ErrForbidden)
		}
		proposer = p.ProposedBy

		if !accept {
			b.Status = p.PriorStatus
			b.Proposal = nil
			return nil
		}

		end, err := utils.EndClock(p.Time, p.Duration)
		if err != nil {
			return scheduleError(err)
		}
		if b.Kind == entity.BookingKindPrivateSession {
			if err := s.availability.Move(ctx, b.ID, b.CoachID, p.Date, p.Time, p.Duration); err != nil {
				return err
			}
		}

		b.Date, b.Time, b.Duration, b.EndTime = p.Date, p.Time, p.Duration, end
		b.LocationType = p.LocationType
		b.GymID, b.GymName = p.GymID, p.GymName
		b.Status = entity.BookingStatusConfirmed
		b.Proposal = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	title, verb := "Proposal declined", "declined"
	if accept {
		title, verb = "Proposal accepted", "accepted"
	}
	msg := fmt.Sprintf("%s %s your proposed change. %s is on %s.", caller.Name, verb, describeItem(b), describeSchedule(b))
	if message != "" {
		msg += " " + message
	}
	s.notifyParty(b, proposer, title, msg)
	s.publish(ctx, EventProposalAnswered, b, caller.ID)

	return s.persist(ctx, b)
}

func (s *bookingService) MarkSessionAsCompleted(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error) {
	b, _, err := s.mutate(caller, id, func(b *entity.Booking, role entity.Party) error {
		if role != entity.PartyProvider {
			return fmt.Errorf("only the provider can complete a session: %w", ErrForbidden)
		}
		if b.Status != entity.BookingStatusConfirmed {
			return invalidTransition(b, "complete")
		}
		b.Status = entity.BookingStatusCompleted
		b.PaymentStatus = entity.PaymentStatusHeld
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.settle(b.ID)
	s.notifyBoth(b, statusTitle(entity.BookingStatusCompleted),
		fmt.Sprintf("%s on %s is complete. Payment is held until released.", describeItem(b), describeSchedule(b)))
	s.publish(ctx, EventBookingCompleted, b, caller.ID)

	return s.persist(ctx, b)
}

// ConfirmPayment records the requester's upfront payment. A private session
// that was only waiting on payment becomes confirmed.
func (s *bookingService) ConfirmPayment(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error) {
	b, _, err := s.mutate(caller, id, func(b *entity.Booking, role entity.Party) error {
		if role != entity.PartyRequester {
			return fmt.Errorf("only the requester can pay: %w", ErrForbidden)
		}
		if b.IsTerminal() || b.PaymentStatus != entity.PaymentStatusPending {
			return fmt.Errorf("payment is %s on booking in status %s: %w", b.PaymentStatus, b.Status, ErrInvalidTransition)
		}
		b.PaymentStatus = entity.PaymentStatusCompleted
		if b.Status == entity.BookingStatusPending && b.Kind == entity.BookingKindPrivateSession && b.AutoConfirm {
			b.Status = entity.BookingStatusConfirmed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.settle(b.ID)
	s.notifyParty(b, entity.PartyProvider, "Payment received",
		fmt.Sprintf("%s paid %.2f for %s.", b.UserName, b.Price, describeItem(b)))
	if b.Status == entity.BookingStatusConfirmed {
		s.notifyParty(b, entity.PartyRequester, "Payment received",
			fmt.Sprintf("Thanks, %s on %s is confirmed.", describeItem(b), describeSchedule(b)))
	}
	s.publish(ctx, EventPaymentUpdated, b, caller.ID)

	return s.persist(ctx, b)
}

// releaseHeld moves a held payment to released. The booking must be completed.
func releaseHeld(b *entity.Booking) error {
	if b.Status != entity.BookingStatusCompleted {
		return invalidTransition(b, "release payment for")
	}
	if b.PaymentStatus != entity.PaymentStatusHeld {
		return fmt.Errorf("payment is %s, not held: %w", b.PaymentStatus, ErrInvalidTransition)
	}
	b.PaymentStatus = entity.PaymentStatusReleased
	return nil
}

func (s *bookingService) ReleasePayment(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error) {
	b, _, err := s.mutate(caller, id, func(b *entity.Booking, role entity.Party) error {
		if role != entity.PartyRequester {
			return fmt.Errorf("only the requester can release payment: %w", ErrForbidden)
		}
		return releaseHeld(b)
	})
	if err != nil {
		return nil, err
	}

	s.announceRelease(b)
	s.publish(ctx, EventPaymentUpdated, b, caller.ID)

	return s.persist(ctx, b)
}

func (s *bookingService) announceRelease(b *entity.Booking) {
	s.notifyBoth(b, "Payment released",
		fmt.Sprintf("Payment of %.2f for %s has been released to %s.", b.Price, describeItem(b), b.ProviderName()))
}

func (s *bookingService) RefundPayment(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error) {
	b, _, err := s.mutate(caller, id, func(b *entity.Booking, role entity.Party) error {
		if role != entity.PartyProvider {
			return fmt.Errorf("only the provider can refund: %w", ErrForbidden)
		}
		if b.Status != entity.BookingStatusCancelled && b.Status != entity.BookingStatusRejected {
			return invalidTransition(b, "refund")
		}
		if b.PaymentStatus != entity.PaymentStatusCompleted && b.PaymentStatus != entity.PaymentStatusHeld {
			return fmt.Errorf("payment is %s, nothing to refund: %w", b.PaymentStatus, ErrInvalidTransition)
		}
		b.PaymentStatus = entity.PaymentStatusRefunded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyParty(b, entity.PartyRequester, "Payment refunded",
		fmt.Sprintf("Your payment of %.2f for %s was refunded.", b.Price, describeItem(b)))
	s.publish(ctx, EventPaymentUpdated, b, caller.ID)

	return s.persist(ctx, b)
}

// SubmitRating records the caller's rating once. When the requester rates
// after the provider, the held payment is released.
func (s *bookingService) SubmitRating(ctx context.Context, caller entity.Caller, id string, req *request.RatingRequest) (*entity.Booking, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	released := false
	b, role, err := s.mutate(caller, id, func(b *entity.Booking, role entity.Party) error {
		if b.Status != entity.BookingStatusCompleted {
			return invalidTransition(b, "rate")
		}

		rating := req.Rating
		if role == entity.PartyRequester {
			if b.UserRating != nil {
				return fmt.Errorf("requester already rated booking %s: %w", b.ID, ErrInvalidTransition)
			}
			b.UserRating, b.UserFeedback = &rating, req.Feedback
			if b.CoachRating != nil && b.PaymentStatus == entity.PaymentStatusHeld {
				released = releaseHeld(b) == nil
			}
		} else {
			if b.CoachRating != nil {
				return fmt.Errorf("provider already rated booking %s: %w", b.ID, ErrInvalidTransition)
			}
			b.CoachRating, b.CoachFeedback = &rating, req.Feedback
		}

		b.RatingGiven = b.UserRating != nil && b.CoachRating != nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyParty(b, role.Other(), "New rating",
		fmt.Sprintf("%s rated %s %d/5.", caller.Name, describeItem(b), req.Rating))
	if b.RatingGiven {
		s.notifyBoth(b, "Feedback complete", fmt.Sprintf("Both sides have rated %s.", describeItem(b)))
	}
	s.publish(ctx, EventBookingRated, b, caller.ID)
	if released {
		s.announceRelease(b)
		s.publish(ctx, EventPaymentUpdated, b, caller.ID)
	}

	return s.persist(ctx, b)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
