package usecase

import (
	"fmt"

	"fitness-booking/internal/data/entity"
	"fitness-booking/internal/dto/request"
	"fitness-booking/pkg/utils"
)

func notificationTypeFor(b *entity.Booking) entity.NotificationType {
	switch b.Kind {
	case entity.BookingKindClass:
		return entity.NotificationClass
	case entity.BookingKindProgram:
		return entity.NotificationProgram
	}
	return entity.NotificationBooking
}

// describeSchedule renders "Saturday, June 1, 2024 at 2:00 PM".
func describeSchedule(b *entity.Booking) string {
	return fmt.Sprintf("%s at %s", utils.HumanDate(b.Date), utils.HumanTime(b.Time))
}

func describeItem(b *entity.Booking) string {
	if b.Kind == entity.BookingKindPrivateSession {
		return "a private session with " + b.CoachName
	}
	return b.ClassName
}

func bookingAction(b *entity.Booking) *entity.ActionData {
	meta := map[string]string{"booking_id": b.ID.String()}
	if b.CoachID != "" {
		meta["coach_id"] = b.CoachID
	}
	if b.ClassID != "" {
		meta["class_id"] = b.ClassID
	}
	return &entity.ActionData{
		Route:    "/bookings/" + b.ID.String(),
		Metadata: meta,
	}
}

// notifyParty pushes a booking notification into one party's feed.
func (s *bookingService) notifyParty(b *entity.Booking, to entity.Party, title, message string) {
	s.notifications.push(partyID(b, to), &entity.Notification{
		Title:      title,
		Message:    message,
		Type:       notificationTypeFor(b),
		ActionType: entity.ActionNavigate,
		ActionData: bookingAction(b),
	})
}

func (s *bookingService) notifyBoth(b *entity.Booking, title, message string) {
	s.notifyParty(b, entity.PartyRequester, title, message)
	s.notifyParty(b, entity.PartyProvider, title, message)
}

func (s *bookingService) announceCreated(b *entity.Booking) {
	when := describeSchedule(b)

	if b.Status == entity.BookingStatusConfirmed {
		s.notifyParty(b, entity.PartyProvider, "New booking",
			fmt.Sprintf("%s booked %s for %s.", b.UserName, describeItem(b), when))
		s.notifyParty(b, entity.PartyRequester, "Booking confirmed",
			fmt.Sprintf("Your booking for %s on %s is confirmed.", describeItem(b), when))
	} else {
		s.notifyParty(b, entity.PartyProvider, "New booking request",
			fmt.Sprintf("%s requested %s for %s.", b.UserName, describeItem(b), when))
		s.notifyParty(b, entity.PartyRequester, "Booking request sent",
			fmt.Sprintf("Your request for %s on %s was sent.", describeItem(b), when))
	}

	if b.PaymentDeadline != nil {
		action := bookingAction(b)
		s.notifications.pushPayment(b.UserID, &request.PaymentNotificationRequest{
			Amount:   b.Price,
			ItemName: describeItem(b),
			ItemType: string(b.Kind),
			GymName:  b.GymName,
			Deadline: b.PaymentDeadline,
			Route:    action.Route,
			Metadata: action.Metadata,
		})
	}
}

func statusTitle(status entity.BookingStatus) string {
	switch status {
	case entity.BookingStatusConfirmed:
		return "Booking confirmed"
	case entity.BookingStatusRejected:
		return "Booking declined"
	case entity.BookingStatusCancelled:
		return "Booking cancelled"
	case entity.BookingStatusCompleted:
		return "Session completed"
	}
	return "Booking updated"
}
