package usecase

import (
	"context"
	"fmt"

	"fitness-booking/internal/data/entity"
	"fitness-booking/internal/dto/request"
	"fitness-booking/pkg/utils"

	"go.uber.org/zap"
)

type ChatService interface {
	SendMessage(ctx context.Context, caller entity.Caller, bookingID string, req *request.SendMessageRequest) (*entity.BookingMessage, error)
	ToggleMessaging(ctx context.Context, caller entity.Caller, bookingID string, enabled bool) (*entity.Booking, error)
	MarkMessagesAsRead(ctx context.Context, caller entity.Caller, bookingID string) (int, error)
	GetMessages(ctx context.Context, caller entity.Caller, bookingID string) ([]*entity.BookingMessage, error)
}

type chatService struct {
	state    *state
	bookings *bookingService
	now      Clock
	log      *zap.Logger
}

func newChatService(st *state, bookings *bookingService, now Clock, log *zap.Logger) *chatService {
	return &chatService{
		state:    st,
		bookings: bookings,
		now:      now,
		log:      log.With(zap.String("service", "chat")),
	}
}

// thread resolves the booking and the caller's side of it.
func (s *chatService) thread(caller entity.Caller, bookingID string) (*entity.Booking, entity.Party, error) {
	if caller.IsAnonymous() {
		return nil, "", ErrUnauthenticated
	}
	id, err := utils.ParseUUID(bookingID)
	if err != nil {
		return nil, "", notFound("booking", bookingID)
	}
	b, ok := s.state.booking(id)
	if !ok {
		return nil, "", notFound("booking", bookingID)
	}
	role, err := roleOf(caller.ID, b)
	if err != nil {
		return nil, "", err
	}
	return b, role, nil
}

func (s *chatService) SendMessage(ctx context.Context, caller entity.Caller, bookingID string, req *request.SendMessageRequest) (*entity.BookingMessage, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	b, role, err := s.thread(caller, bookingID)
	if err != nil {
		return nil, err
	}

	// hold the booking lock so a concurrent toggle cannot slip in between
	unlock := s.bookings.locks.Lock(b.ID.String())
	b, _ = s.state.booking(b.ID)
	if !b.MessagingEnabled {
		unlock()
		return nil, ErrMessagingDisabled
	}

	msg := &entity.BookingMessage{
		BaseSimple:   entity.BaseSimple{ID: utils.GenerateUUID(), CreatedAt: s.now()},
		BookingID:    b.ID,
		SenderID:     caller.ID,
		SenderName:   caller.Name,
		SenderAvatar: caller.Avatar,
		Content:      req.Content,
	}
	s.state.mu.Lock()
	s.state.messages[b.ID] = append(s.state.messages[b.ID], msg)
	s.state.mu.Unlock()
	unlock()

	s.bookings.notifications.push(partyID(b, role.Other()), &entity.Notification{
		Title:      "New message from " + caller.Name,
		Message:    truncate(req.Content, 120),
		Type:       entity.NotificationMessage,
		ActionType: entity.ActionNavigate,
		ActionData: &entity.ActionData{
			Route:    "/bookings/" + b.ID.String() + "/messages",
			Metadata: map[string]string{"booking_id": b.ID.String()},
		},
	})

	out := *msg
	if err := s.state.persist(ctx, b.UserID, b.ProviderID()); err != nil {
		return &out, err
	}
	return &out, nil
}

func (s *chatService) ToggleMessaging(ctx context.Context, caller entity.Caller, bookingID string, enabled bool) (*entity.Booking, error) {
	b, role, err := s.bookings.mutate(caller, bookingID, func(b *entity.Booking, role entity.Party) error {
		b.MessagingEnabled = enabled
		return nil
	})
	if err != nil {
		return nil, err
	}

	label := "disabled"
	if enabled {
		label = "enabled"
	}
	s.bookings.notifyParty(b, role.Other(), "Messaging "+label,
		fmt.Sprintf("%s %s messaging for %s.", caller.Name, label, describeItem(b)))

	s.log.Info("Messaging toggled",
		zap.String("booking_id", b.ID.String()),
		zap.Bool("enabled", enabled))

	return s.bookings.persist(ctx, b)
}

// MarkMessagesAsRead marks every message the other party sent as read and
// returns how many changed.
func (s *chatService) MarkMessagesAsRead(ctx context.Context, caller entity.Caller, bookingID string) (int, error) {
	b, _, err := s.thread(caller, bookingID)
	if err != nil {
		return 0, err
	}

	s.state.mu.Lock()
	changed := 0
	for _, m := range s.state.messages[b.ID] {
		if m.SenderID != caller.ID && !m.IsRead {
			m.IsRead = true
			changed++
		}
	}
	s.state.mu.Unlock()

	if changed == 0 {
		return 0, nil
	}
	return changed, s.state.persist(ctx, b.UserID, b.ProviderID())
}

// GetMessages returns the thread oldest first.
func (s *chatService) GetMessages(ctx context.Context, caller entity.Caller, bookingID string) ([]*entity.BookingMessage, error) {
	b, _, err := s.thread(caller, bookingID)
	if err != nil {
		return nil, err
	}

	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	thread := s.state.messages[b.ID]
	out := make([]*entity.BookingMessage, 0, len(thread))
	for _, m := range thread {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
