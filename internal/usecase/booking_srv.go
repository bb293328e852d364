package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"fitness-booking/internal/data/entity"
	"fitness-booking/internal/data/repository"
	"fitness-booking/internal/dto/request"
	"fitness-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, caller entity.Caller, req *request.CreateBookingRequest) (*entity.Booking, error)
	UpdateBookingStatus(ctx context.Context, caller entity.Caller, id string, status entity.BookingStatus) (*entity.Booking, error)
	CancelBooking(ctx context.Context, caller entity.Caller, id, reason string) (*entity.Booking, error)

	SubmitProposal(ctx context.Context, caller entity.Caller, id string, req *request.ProposalRequest) (*entity.Booking, error)
	RespondToProposal(ctx context.Context, caller entity.Caller, id, proposalID string, accept bool, message string) (*entity.Booking, error)

	MarkSessionAsCompleted(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error)
	ConfirmPayment(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error)
	ReleasePayment(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error)
	RefundPayment(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error)
	SubmitRating(ctx context.Context, caller entity.Caller, id string, req *request.RatingRequest) (*entity.Booking, error)

	GetBookingByID(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error)
	GetBookingsByStatus(ctx context.Context, caller entity.Caller, status entity.BookingStatus) ([]*entity.Booking, error)
	ListBookings(ctx context.Context, caller entity.Caller) ([]*entity.Booking, error)
	ClassParticipants(ctx context.Context, classID string) (current, max int, err error)

	// ExpireOverdue cancels unpaid card bookings whose payment deadline has
	// passed. Returns how many were cancelled.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
	// Hydrate merges the stored snapshot of ownerID into memory.
	Hydrate(ctx context.Context, ownerID string) error
}

type bookingService struct {
	state         *state
	repo          *repository.Repository
	availability  *availabilityService
	notifications *notificationService
	events        EventPublisher
	locks         *keyedMutex
	loc           *time.Location
	now           Clock
	log           *zap.Logger
}

func newBookingService(st *state, repo *repository.Repository, availability *availabilityService, notifications *notificationService, events EventPublisher, loc *time.Location, now Clock, log *zap.Logger) *bookingService {
	return &bookingService{
		state:         st,
		repo:          repo,
		availability:  availability,
		notifications: notifications,
		events:        events,
		locks:         newKeyedMutex(),
		loc:           loc,
		now:           now,
		log:           log.With(zap.String("service", "booking")),
	}
}

// roleOf places the caller on one side of the booking.
func roleOf(callerID string, b *entity.Booking) (entity.Party, error) {
	switch callerID {
	case b.UserID:
		return entity.PartyRequester, nil
	case b.ProviderID():
		return entity.PartyProvider, nil
	}
	return "", fmt.Errorf("caller %s is not a party to booking %s: %w", callerID, b.ID, ErrForbidden)
}

func partyID(b *entity.Booking, p entity.Party) string {
	if p == entity.PartyRequester {
		return b.UserID
	}
	return b.ProviderID()
}

// mutate runs fn against a clone of the booking while holding the booking's
// lock, and commits the clone only when fn succeeds.
func (s *bookingService) mutate(caller entity.Caller, id string, fn func(b *entity.Booking, role entity.Party) error) (*entity.Booking, entity.Party, error) {
	if caller.IsAnonymous() {
		return nil, "", ErrUnauthenticated
	}
	bookingID, err := utils.ParseUUID(id)
	if err != nil {
		return nil, "", notFound("booking", id)
	}

	unlock := s.locks.Lock(bookingID.String())
	defer unlock()

	cur, ok := s.state.booking(bookingID)
	if !ok {
		return nil, "", notFound("booking", id)
	}
	role, err := roleOf(caller.ID, cur)
	if err != nil {
		return nil, "", err
	}

	b := cur.Clone()
	if err := fn(b, role); err != nil {
		return nil, "", err
	}
	b.UpdatedAt = s.now()
	s.state.commitBooking(b)

	return b, role, nil
}

// persist saves both parties and hands back a copy of the committed booking.
func (s *bookingService) persist(ctx context.Context, b *entity.Booking) (*entity.Booking, error) {
	if err := s.state.persist(ctx, b.UserID, b.ProviderID()); err != nil {
		s.log.Warn("Booking change is not durable", zap.Error(err), zap.String("booking_id", b.ID.String()))
		return b.Clone(), err
	}
	return b.Clone(), nil
}

func invalidTransition(b *entity.Booking, op string) error {
	return fmt.Errorf("cannot %s booking %s in status %s: %w", op, b.ID, b.Status, ErrInvalidTransition)
}

func (s *bookingService) today() time.Time {
	return utils.StartOfDay(s.now().In(s.loc))
}

func (s *bookingService) CreateBooking(ctx context.Context, caller entity.Caller, req *request.CreateBookingRequest) (*entity.Booking, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		s.log.Warn("Create booking validation failed", zap.Error(err))
		return nil, err
	}

	kind := entity.BookingKind(req.Kind)
	if kind != entity.BookingKindPrivateSession && req.ClassID == "" {
		return nil, fieldError("ClassID", "This field is required")
	}

	date, err := utils.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, fieldError("Date", "Must match layout "+utils.DateLayout)
	}
	if date.Before(s.today()) {
		return nil, fieldError("Date", "Must not be in the past")
	}
	endTime, err := utils.EndClock(req.Time, req.Duration)
	if err != nil {
		return nil, scheduleError(err)
	}

	gym, err := s.repo.Catalog.FindGym(ctx, req.GymID)
	if err != nil {
		return nil, fmt.Errorf("lookup gym %s: %w", req.GymID, err)
	}
	if gym == nil {
		return nil, fieldError("GymID", "Unknown gym")
	}

	now := s.now()
	autoConfirm := req.AutoConfirm == nil || *req.AutoConfirm
	locationType := entity.LocationType(req.LocationType)
	if locationType == "" {
		locationType = entity.LocationInPerson
	}

	b := &entity.Booking{
		Base:             entity.Base{ID: utils.GenerateUUID(), CreatedAt: now, UpdatedAt: now},
		Kind:             kind,
		UserID:           caller.ID,
		UserName:         caller.Name,
		UserAvatar:       caller.Avatar,
		GymID:            gym.ID,
		GymName:          gym.Name,
		LocationType:     locationType,
		Date:             req.Date,
		Time:             req.Time,
		Duration:         req.Duration,
		EndTime:          endTime,
		PaymentMethod:    entity.PaymentMethod(req.PaymentMethod),
		PaymentStatus:    entity.PaymentStatusPending,
		Status:           entity.BookingStatusPending,
		MessagingEnabled: true,
		AutoConfirm:      autoConfirm,
	}

	if kind == entity.BookingKindPrivateSession {
		err = s.createSession(ctx, b, req.CoachID)
	} else {
		err = s.createClassSeat(ctx, b, req.ClassID)
	}
	if err != nil {
		return nil, err
	}

	s.announceCreated(b)
	s.publish(ctx, EventBookingCreated, b, caller.ID)

	s.log.Info("Booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("kind", string(b.Kind)),
		zap.String("user_id", b.UserID),
		zap.String("provider_id", b.ProviderID()),
		zap.String("status", string(b.Status)))

	return s.persist(ctx, b)
}

// sessionPrice prorates the coach's hourly rate, rounded to cents.
func sessionPrice(hourlyRate float64, durationMinutes int) float64 {
	return math.Round(hourlyRate*float64(durationMinutes)/60*100) / 100
}

// requiresUpfrontPayment is true for card bookings that cost something.
func requiresUpfrontPayment(b *entity.Booking) bool {
	return b.Price > 0 && b.PaymentMethod == entity.PaymentMethodCard
}

func (s *bookingService) paymentDeadline(b *entity.Booking) *time.Time {
	if !requiresUpfrontPayment(b) {
		return nil
	}
	hours := s.notifications.deadlineHours(string(b.Kind))
	d := b.CreatedAt.Add(time.Duration(hours) * time.Hour)
	return &d
}

func (s *bookingService) createSession(ctx context.Context, b *entity.Booking, coachID string) error {
	coach, err := s.repo.Catalog.FindCoach(ctx, coachID)
	if err != nil {
		return fmt.Errorf("lookup coach %s: %w", coachID, err)
	}
	if coach == nil {
		return fieldError("CoachID", "Unknown coach")
	}
	b.CoachID = coach.ID
	b.CoachName = coach.Name
	b.Price = sessionPrice(coach.HourlyRate, b.Duration)

	if b.AutoConfirm && !requiresUpfrontPayment(b) {
		b.Status = entity.BookingStatusConfirmed
	}
	b.PaymentDeadline = s.paymentDeadline(b)

	// reserve and commit under the booking lock so nobody sees a half-created booking
	unlock := s.locks.Lock(b.ID.String())
	defer unlock()

	if err := s.availability.Reserve(ctx, b.ID, b.CoachID, b.Date, b.Time, b.Duration); err != nil {
		return err
	}
	s.state.commitBooking(b)
	return nil
}

func (s *bookingService) createClassSeat(ctx context.Context, b *entity.Booking, classID string) error {
	class, err := s.repo.Catalog.FindClass(ctx, classID)
	if err != nil {
		return fmt.Errorf("lookup class %s: %w", classID, err)
	}
	if class == nil {
		return fieldError("ClassID", "Unknown class")
	}
	if class.Kind != "" && class.Kind != b.Kind {
		return fieldError("Kind", fmt.Sprintf("Class %s is a %s", class.ID, class.Kind))
	}

	b.ClassID = class.ID
	b.ClassName = class.Name
	b.Price = class.Price
	if class.GymID != "" && class.GymID != b.GymID {
		return fieldError("GymID", "Class is not held at this gym")
	}

	// capacity check and commit are one step per class
	unlock := s.locks.Lock("class:" + class.ID)
	defer unlock()

	current := class.CurrentParticipants + s.seatsTaken(class.ID)
	if b.AutoConfirm && current < class.MaxParticipants {
		b.Status = entity.BookingStatusConfirmed
	}
	b.PaymentDeadline = s.paymentDeadline(b)

	s.state.commitBooking(b)
	return nil
}

func holdsSeat(b *entity.Booking) bool {
	switch b.Status {
	case entity.BookingStatusConfirmed, entity.BookingStatusModified, entity.BookingStatusCompleted:
		return true
	}
	return false
}

// seatsTaken counts bookings made here that occupy a seat in the class.
func (s *bookingService) seatsTaken(classID string) int {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	n := 0
	for _, b := range s.state.bookings {
		if b.ClassID == classID && holdsSeat(b) {
			n++
		}
	}
	return n
}

func (s *bookingService) ClassParticipants(ctx context.Context, classID string) (int, int, error) {
	class, err := s.repo.Catalog.FindClass(ctx, classID)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup class %s: %w", classID, err)
	}
	if class == nil {
		return 0, 0, notFound("class", classID)
	}
	return class.CurrentParticipants + s.seatsTaken(classID), class.MaxParticipants, nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	bookingID, err := utils.ParseUUID(id)
	if err != nil {
		return nil, notFound("booking", id)
	}

	b, ok := s.state.booking(bookingID)
	if !ok {
		return nil, notFound("booking", id)
	}
	if _, err := roleOf(caller.ID, b); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

func (s *bookingService) ListBookings(ctx context.Context, caller entity.Caller) ([]*entity.Booking, error) {
	return s.GetBookingsByStatus(ctx, caller, "")
}

// GetBookingsByStatus lists the caller's bookings, newest first. An empty
// status matches every booking.
func (s *bookingService) GetBookingsByStatus(ctx context.Context, caller entity.Caller, status entity.BookingStatus) ([]*entity.Booking, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	switch status {
	case "", entity.BookingStatusPending, entity.BookingStatusConfirmed, entity.BookingStatusModified,
		entity.BookingStatusCompleted, entity.BookingStatusCancelled, entity.BookingStatusRejected:
	default:
		return nil, fieldError("status", "Must be one of: pending, confirmed, modified, completed, cancelled, rejected")
	}

	var out []*entity.Booking
	for _, b := range s.state.allBookings() {
		if b.UserID != caller.ID && b.ProviderID() != caller.ID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, b.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *bookingService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue := func(b *entity.Booking) bool {
		return !b.IsTerminal() &&
			b.PaymentStatus == entity.PaymentStatusPending &&
			b.PaymentDeadline != nil &&
			!now.Before(*b.PaymentDeadline)
	}

	var candidates []uuid.UUID
	for _, b := range s.state.allBookings() {
		if overdue(b) {
			candidates = append(candidates, b.ID)
		}
	}

	expired := 0
	var errs []error
	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		b, ok := s.expire(ctx, id, overdue)
		if !ok {
			continue
		}
		expired++

		s.notifications.settle(b.ID)
		s.notifyParty(b, entity.PartyRequester, "Booking cancelled",
			fmt.Sprintf("Your booking for %s was cancelled because payment was not received by the deadline.", describeSchedule(b)))
		s.notifyParty(b, entity.PartyProvider, "Booking cancelled",
			fmt.Sprintf("%s's booking for %s was cancelled: payment deadline passed.", b.UserName, describeSchedule(b)))
		s.publish(ctx, EventBookingStatusChanged, b, "")
		s.publish(ctx, EventPaymentUpdated, b, "")

		if _, err := s.persist(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}

	if expired > 0 {
		s.log.Info("Expired unpaid bookings", zap.Int("count", expired))
	}
	return expired, errors.Join(errs...)
}

func (s *bookingService) expire(ctx context.Context, id uuid.UUID, overdue func(*entity.Booking) bool) (*entity.Booking, bool) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	cur, ok := s.state.booking(id)
	if !ok || !overdue(cur) {
		return nil, false
	}

	b := cur.Clone()
	b.Status = entity.BookingStatusCancelled
	b.PaymentStatus = entity.PaymentStatusFailed
	b.CancelReason = "Payment deadline passed"
	b.Proposal = nil
	b.UpdatedAt = s.now()
	s.availability.Release(ctx, b.ID)
	s.state.commitBooking(b)
	return b, true
}

func (s *bookingService) Hydrate(ctx context.Context, ownerID string) error {
	snap, err := s.repo.Snapshot.Load(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("hydrate %s: %w", ownerID, err)
	}

	added := s.state.merge(snap)
	s.availability.Rebuild(ctx, s.state.allBookings())

	for _, n := range added {
		if n.Payment != nil {
			s.notifications.arm(n.ID)
		}
	}

	s.log.Info("Hydrated snapshot",
		zap.String("owner_id", ownerID),
		zap.Int("bookings", len(snap.Bookings)),
		zap.Int("messages", len(snap.Messages)),
		zap.Int("notifications", len(snap.Notifications)))
	return nil
}
