package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fitness-booking/internal/data/entity"
	"fitness-booking/internal/data/repository"
	"fitness-booking/internal/dto/request"
)

func TestCreateBookingRequiresCaller(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Booking.CreateBooking(context.Background(), entity.Caller{}, sessionRequest("2024-06-01", "10:00"))
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := sessionRequest("", "10:00")
	req.GymID = ""
	_, err := env.svc.Booking.CreateBooking(ctx, client, req)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["Date"]; !ok {
		t.Fatalf("expected Date error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["GymID"]; !ok {
		t.Fatalf("expected GymID error, got %v", verr.Fields)
	}

	if _, err := env.svc.Booking.CreateBooking(ctx, client, sessionRequest("2024-05-01", "10:00")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected past date to fail validation, got %v", err)
	}

	noClass := classRequest("")
	if _, err := env.svc.Booking.CreateBooking(ctx, client, noClass); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected missing class id to fail validation, got %v", err)
	}

	unknownCoach := sessionRequest("2024-06-01", "10:00")
	unknownCoach.CoachID = "coach-404"
	if _, err := env.svc.Booking.CreateBooking(ctx, client, unknownCoach); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unknown coach to fail validation, got %v", err)
	}

	list, _ := env.svc.Booking.ListBookings(ctx, client)
	if len(list) != 0 {
		t.Fatalf("failed creates must not store bookings, got %d", len(list))
	}
}

func TestCreatePrivateSessionNotifiesBothParties(t *testing.T) {
	env := newTestEnv(t)

	b := mustCreate(t, env, client, sessionRequest("2024-06-01", "14:00"))

	if b.Status != entity.BookingStatusConfirmed {
		t.Fatalf("free pay-at-gym session should auto-confirm, got %s", b.Status)
	}
	if b.PaymentStatus != entity.PaymentStatusPending || !b.MessagingEnabled || b.RatingGiven {
		t.Fatalf("unexpected initial flags: %+v", b)
	}
	if b.EndTime != "15:00" || b.CoachName != "Maya Chen" || b.GymName != "Iron Temple" {
		t.Fatalf("unexpected derived fields: end=%s coach=%s gym=%s", b.EndTime, b.CoachName, b.GymName)
	}
	if !b.CreatedAt.Equal(b.UpdatedAt) {
		t.Fatalf("createdAt and updatedAt must match at creation")
	}

	coachFeed, _ := env.svc.Notification.List(context.Background(), coach)
	if len(coachFeed) != 1 || coachFeed[0].Title != "New booking" {
		t.Fatalf("unexpected coach feed %+v", coachFeed)
	}
	want := "Ana booked a private session with Maya Chen for Saturday, June 1, 2024 at 2:00 PM."
	if coachFeed[0].Message != want {
		t.Fatalf("unexpected message %q", coachFeed[0].Message)
	}
	if coachFeed[0].ActionData == nil || coachFeed[0].ActionData.Metadata["booking_id"] != b.ID.String() {
		t.Fatalf("notification must reference the booking")
	}

	if titles := feedTitles(t, env, client); !contains(titles, "Booking confirmed") {
		t.Fatalf("requester feed %v", titles)
	}
	if !env.events.Has(EventBookingCreated) {
		t.Fatalf("booking.created was not published")
	}
}

// Scenario: coach has no bookings, one is made at 10:00, a second attempt fails.
func TestSlotLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	slots, _ := env.svc.Availability.AvailableSlots(ctx, "coach-1", "2024-06-01")
	if len(slots) != 9 {
		t.Fatalf("expected full grid of 9 slots, got %v", slots)
	}

	mustCreate(t, env, client, sessionRequest("2024-06-01", "10:00"))

	slots, _ = env.svc.Availability.AvailableSlots(ctx, "coach-1", "2024-06-01")
	if contains(slots, "10:00") || len(slots) != 8 {
		t.Fatalf("10:00 should be gone, got %v", slots)
	}
	if env.svc.Availability.IsSlotAvailable(ctx, "coach-1", "2024-06-01", "10:00", 60) {
		t.Fatalf("10:00 must not be available")
	}

	_, err := env.svc.Booking.CreateBooking(ctx, client2, sessionRequest("2024-06-01", "10:00"))
	var conflict *SlotConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SlotConflictError, got %v", err)
	}
	if len(conflict.Available) != 8 {
		t.Fatalf("conflict should carry refreshed slots, got %v", conflict.Available)
	}

	list, _ := env.svc.Booking.ListBookings(ctx, client2)
	if len(list) != 0 {
		t.Fatalf("rejected booking must not be stored")
	}
}

func TestConcurrentCreateNeverDoubleBooks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, conflicts := 0, 0
	for i := 0; i < 12; i++ {
		caller := entity.Caller{ID: "racer-" + string(rune('a'+i)), Name: "racer"}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Booking.CreateBooking(ctx, caller, sessionRequest("2024-06-01", "11:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != 11 {
		t.Fatalf("expected 1 booking and 11 conflicts, got %d and %d", created, conflicts)
	}

	held, _ := env.svc.Booking.GetBookingsByStatus(ctx, coach, entity.BookingStatusConfirmed)
	if len(held) != 1 {
		t.Fatalf("coach should see exactly one booking, got %d", len(held))
	}
}

func TestClassAutoConfirmFollowsCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := mustCreate(t, env, client, classRequest("class-1"))
	if first.Status != entity.BookingStatusConfirmed {
		t.Fatalf("seat available, expected confirmed, got %s", first.Status)
	}
	if first.ProviderID() != "gym-1" || first.ClassName != "Morning HIIT" {
		t.Fatalf("class booking provider should be the gym, got %s", first.ProviderID())
	}

	current, capacity, err := env.svc.Booking.ClassParticipants(ctx, "class-1")
	if err != nil || current != 3 || capacity != 3 {
		t.Fatalf("expected 3/3, got %d/%d (%v)", current, capacity, err)
	}

	second := mustCreate(t, env, client2, classRequest("class-1"))
	if second.Status != entity.BookingStatusPending {
		t.Fatalf("class is full, expected pending, got %s", second.Status)
	}
	if current, _, _ := env.svc.Booking.ClassParticipants(ctx, "class-1"); current != 3 {
		t.Fatalf("pending booking must not take a seat, got %d", current)
	}

	if titles := feedTitles(t, env, gymOwner); !contains(titles, "New booking request") {
		t.Fatalf("gym should receive the request, got %v", titles)
	}
}

func TestAutoConfirmCanBeDisabled(t *testing.T) {
	env := newTestEnv(t)

	req := sessionRequest("2024-06-01", "09:00")
	req.AutoConfirm = boolPtr(false)
	b := mustCreate(t, env, client, req)
	if b.Status != entity.BookingStatusPending {
		t.Fatalf("expected pending, got %s", b.Status)
	}

	confirmed, err := env.svc.Booking.UpdateBookingStatus(context.Background(), coach, b.ID.String(), entity.BookingStatusConfirmed)
	if err != nil || confirmed.Status != entity.BookingStatusConfirmed {
		t.Fatalf("coach confirm: %v", err)
	}
	if titles := feedTitles(t, env, client); !contains(titles, "Booking confirmed") {
		t.Fatalf("requester should hear about the confirmation, got %v", titles)
	}
}

func TestCardSessionWaitsForPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := mustCreate(t, env, client, cardSessionRequest("2024-06-01", "16:00"))
	if b.Status != entity.BookingStatusPending {
		t.Fatalf("card session should wait for payment, got %s", b.Status)
	}
	if b.PaymentDeadline == nil || !b.PaymentDeadline.Equal(testStart.Add(48*time.Hour)) {
		t.Fatalf("expected 48h deadline, got %v", b.PaymentDeadline)
	}

	feed, _ := env.svc.Notification.List(ctx, client)
	var payment *entity.Notification
	for _, n := range feed {
		if n.Type == entity.NotificationPayment {
			payment = n
		}
	}
	if payment == nil || len(payment.Payment.Reminders) != 2 {
		t.Fatalf("expected payment notification with two reminders, got %+v", payment)
	}
	if env.scheduler.Active() != 2 {
		t.Fatalf("expected two armed reminders, got %d", env.scheduler.Active())
	}

	if _, err := env.svc.Booking.ConfirmPayment(ctx, coach, b.ID.String()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("provider cannot pay, got %v", err)
	}

	paid, err := env.svc.Booking.ConfirmPayment(ctx, client, b.ID.String())
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if paid.Status != entity.BookingStatusConfirmed || paid.PaymentStatus != entity.PaymentStatusCompleted {
		t.Fatalf("expected confirmed/completed, got %s/%s", paid.Status, paid.PaymentStatus)
	}
	if env.scheduler.Active() != 0 {
		t.Fatalf("settled payment must disarm reminders, %d still armed", env.scheduler.Active())
	}

	if _, err := env.svc.Booking.ConfirmPayment(ctx, client, b.ID.String()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("paying twice must fail, got %v", err)
	}
}

func TestSessionPriceComesFromCoachRate(t *testing.T) {
	env := newTestEnv(t)

	req := cardSessionRequest("2024-06-01", "10:00")
	req.Duration = 90
	b := mustCreate(t, env, client, req)
	if b.Price != 90 {
		t.Fatalf("expected 1.5h at 60/h, got %v", b.Price)
	}
	if b.Status != entity.BookingStatusPending || b.PaymentDeadline == nil {
		t.Fatalf("card session must wait for payment, got %s deadline=%v", b.Status, b.PaymentDeadline)
	}

	if got := sessionPrice(45, 50); got != 37.5 {
		t.Fatalf("expected 37.5, got %v", got)
	}
}

func TestClassPaymentDeadlineIs24Hours(t *testing.T) {
	env := newTestEnv(t)

	b := mustCreate(t, env, client, classRequest("class-paid"))
	if b.Price != 15 {
		t.Fatalf("class price comes from the catalog, got %v", b.Price)
	}
	if b.PaymentDeadline == nil || !b.PaymentDeadline.Equal(testStart.Add(24*time.Hour)) {
		t.Fatalf("expected 24h deadline, got %v", b.PaymentDeadline)
	}
}

// Scenario: confirmed at 10:00, coach proposes 15:00, user accepts.
func TestProposalRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := mustCreate(t, env, client, sessionRequest("2024-06-01", "10:00"))

	modified, err := env.svc.Booking.SubmitProposal(ctx, coach, b.ID.String(), &request.ProposalRequest{
		Time:    "15:00",
		Message: "running late",
	})
	if err != nil {
		t.Fatalf("submit proposal: %v", err)
	}
	if modified.Status != entity.BookingStatusModified || modified.Proposal == nil {
		t.Fatalf("expected modified with proposal, got %s", modified.Status)
	}
	if modified.Proposal.ProposedBy != entity.PartyProvider || modified.Proposal.PriorStatus != entity.BookingStatusConfirmed {
		t.Fatalf("unexpected proposal %+v", modified.Proposal)
	}
	if titles := feedTitles(t, env, client); !contains(titles, "Change proposed") {
		t.Fatalf("requester must be told about the proposal, got %v", titles)
	}

	// a second proposal while one is open is rejected
	if _, err := env.svc.Booking.SubmitProposal(ctx, client, b.ID.String(), &request.ProposalRequest{Time: "16:00", Message: "or later"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	accepted, err := env.svc.Booking.RespondToProposal(ctx, client, b.ID.String(), modified.Proposal.ID.String(), true, "")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Time != "15:00" || accepted.EndTime != "16:00" || accepted.Status != entity.BookingStatusConfirmed || accepted.Proposal != nil {
		t.Fatalf("unexpected booking after accept: %+v", accepted)
	}

	slots, _ := env.svc.Availability.AvailableSlots(ctx, "coach-1", "2024-06-01")
	if !contains(slots, "10:00") || contains(slots, "15:00") {
		t.Fatalf("slot should have moved to 15:00, got %v", slots)
	}
	if titles := feedTitles(t, env, coach); !contains(titles, "Proposal accepted") {
		t.Fatalf("proposer must hear the answer, got %v", titles)
	}
}

func TestProposalRejectRevertsPriorStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := sessionRequest("2024-06-01", "10:00")
	req.AutoConfirm = boolPtr(false)
	b := mustCreate(t, env, client, req)

	modified, err := env.svc.Booking.SubmitProposal(ctx, client, b.ID.String(), &request.ProposalRequest{
		Date:    "2024-06-02",
		Message: "can we do Sunday?",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	proposalID := modified.Proposal.ID.String()

	if _, err := env.svc.Booking.RespondToProposal(ctx, client, b.ID.String(), proposalID, true, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("proposer cannot answer own proposal, got %v", err)
	}
	if _, err := env.svc.Booking.RespondToProposal(ctx, coach, b.ID.String(), "not-the-proposal", true, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown proposal, got %v", err)
	}

	rejected, err := env.svc.Booking.RespondToProposal(ctx, coach, b.ID.String(), proposalID, false, "fully booked")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != entity.BookingStatusPending || rejected.Proposal != nil || rejected.Date != "2024-06-01" {
		t.Fatalf("expected revert to pending on the original date, got %+v", rejected)
	}
}

func TestClassProposalCannotMoveGym(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := mustCreate(t, env, client, classRequest("class-1"))
	_, err := env.svc.Booking.SubmitProposal(ctx, client, b.ID.String(), &request.ProposalRequest{
		GymID:   "gym-2",
		Message: "closer to home",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["GymID"] == "" {
		t.Fatalf("expected GymID validation error, got %v", err)
	}

	got, err := env.svc.Booking.GetBookingByID(ctx, gymOwner, b.ID.String())
	if err != nil {
		t.Fatalf("original gym must keep access: %v", err)
	}
	if got.GymID != "gym-1" || got.Proposal != nil || got.Status != b.Status {
		t.Fatalf("booking must be untouched, got gym=%s status=%s proposal=%v", got.GymID, got.Status, got.Proposal)
	}
}

func TestClassTimeMustEndByMidnight(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := classRequest("class-paid")
	req.Time = "23:30"
	req.Duration = 120
	_, err := env.svc.Booking.CreateBooking(ctx, client, req)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["Duration"] == "" {
		t.Fatalf("expected Duration validation error, got %v", err)
	}

	b := mustCreate(t, env, client, classRequest("class-paid"))
	_, err = env.svc.Booking.SubmitProposal(ctx, client, b.ID.String(), &request.ProposalRequest{
		Time:     "23:00",
		Duration: 90,
		Message:  "late one",
	})
	if !errors.As(err, &verr) || verr.Fields["Duration"] == "" {
		t.Fatalf("proposal past midnight must be rejected, got %v", err)
	}
}

func TestAcceptConflictingProposalLeavesBookingIntact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := mustCreate(t, env, client, sessionRequest("2024-06-01", "10:00"))
	mustCreate(t, env, client2, sessionRequest("2024-06-01", "12:00"))

	modified, err := env.svc.Booking.SubmitProposal(ctx, coach, a.ID.String(), &request.ProposalRequest{Time: "12:00", Message: "swap?"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = env.svc.Booking.RespondToProposal(ctx, client, a.ID.String(), modified.Proposal.ID.String(), true, "")
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected slot conflict, got %v", err)
	}

	got, _ := env.svc.Booking.GetBookingByID(ctx, client, a.ID.String())
	if got.Status != entity.BookingStatusModified || got.Proposal == nil || got.Time != "10:00" {
		t.Fatalf("failed accept must leave the booking untouched, got %+v", got)
	}
	if env.svc.Availability.IsSlotAvailable(ctx, "coach-1", "2024-06-01", "10:00", 60) {
		t.Fatalf("original slot must still be held")
	}
}

// Scenario: completion holds payment, the user's rating after the coach's releases it.
func TestCompletionAndAutoRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := mustCreate(t, env, client, sessionRequest("2024-06-01", "10:00"))
	id := b.ID.String()

	if _, err := env.svc.Booking.ReleasePayment(ctx, client, id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("release before completion must fail, got %v", err)
	}
	if _, err := env.svc.Booking.SubmitRating(ctx, client, id, &request.RatingRequest{Rating: 5}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("rating before completion must fail, got %v", err)
	}
	if _, err := env.svc.Booking.MarkSessionAsCompleted(ctx, client, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("requester cannot complete, got %v", err)
	}

	done, err := env.svc.Booking.MarkSessionAsCompleted(ctx, coach, id)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != entity.BookingStatusCompleted || done.PaymentStatus != entity.PaymentStatusHeld {
		t.Fatalf("expected completed/held, got %s/%s", done.Status, done.PaymentStatus)
	}

	rated, err := env.svc.Booking.SubmitRating(ctx, coach, id, &request.RatingRequest{Rating: 4, Feedback: "great effort"})
	if err != nil {
		t.Fatalf("coach rating: %v", err)
	}
	if rated.RatingGiven || rated.PaymentStatus != entity.PaymentStatusHeld {
		t.Fatalf("one rating must not complete feedback or release payment")
	}

	if _, err := env.svc.Booking.SubmitRating(ctx, coach, id, &request.RatingRequest{Rating: 5}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second coach rating must fail, got %v", err)
	}

	final, err := env.svc.Booking.SubmitRating(ctx, client, id, &request.RatingRequest{Rating: 5, Feedback: "thanks"})
	if err != nil {
		t.Fatalf("user rating: %v", err)
	}
	if !final.RatingGiven || final.PaymentStatus != entity.PaymentStatusReleased {
		t.Fatalf("expected ratingGiven and released, got %v/%s", final.RatingGiven, final.PaymentStatus)
	}
	if *final.UserRating != 5 || *final.CoachRating != 4 {
		t.Fatalf("ratings stored under the wrong side")
	}
	if titles := feedTitles(t, env, coach); !contains(titles, "Payment released") || !contains(titles, "Feedback complete") {
		t.Fatalf("coach feed %v", titles)
	}
}

func TestUserRatingFirstDoesNotRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := mustCreate(t, env, client, sessionRequest("2024-06-01", "10:00"))
	id := b.ID.String()
	_, _ = env.svc.Booking.MarkSessionAsCompleted(ctx, coach, id)

	_, _ = env.svc.Booking.SubmitRating(ctx, client, id, &request.RatingRequest{Rating: 5})
	final, err := env.svc.Booking.SubmitRating(ctx, coach, id, &request.RatingRequest{Rating: 5})
	if err != nil {
		t.Fatalf("coach rating: %v", err)
	}
	if !final.RatingGiven || final.PaymentStatus != entity.PaymentStatusHeld {
		t.Fatalf("expected ratingGiven with payment still held, got %v/%s", final.RatingGiven, final.PaymentStatus)
	}

	released, err := env.svc.Booking.ReleasePayment(ctx, client, id)
	if err != nil || released.PaymentStatus != entity.PaymentStatusReleased {
		t.Fatalf("explicit release: %v", err)
	}
}

func TestAuthorizationAndTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := sessionRequest("2024-06-01", "10:00")
	req.AutoConfirm = boolPtr(false)
	b := mustCreate(t, env, client, req)
	id := b.ID.String()

	if _, err := env.svc.Booking.GetBookingByID(ctx, stranger, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger read, got %v", err)
	}
	if _, err := env.svc.Booking.CancelBooking(ctx, stranger, id, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger cancel, got %v", err)
	}
	if _, err := env.svc.Booking.UpdateBookingStatus(ctx, client, id, entity.BookingStatusConfirmed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("requester cannot confirm, got %v", err)
	}
	if _, err := env.svc.Booking.MarkSessionAsCompleted(ctx, coach, id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completing a pending booking, got %v", err)
	}
	if _, err := env.svc.Booking.UpdateBookingStatus(ctx, coach, id, entity.BookingStatusCompleted); !errors.Is(err, ErrValidation) {
		t.Fatalf("completed is not a direct status target, got %v", err)
	}
	if _, err := env.svc.Booking.GetBookingByID(ctx, client, "6f1c1a3e-0000-4000-8000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id, got %v", err)
	}
	if _, err := env.svc.Booking.CancelBooking(ctx, entity.Caller{}, id, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous cancel, got %v", err)
	}

	rejected, err := env.svc.Booking.UpdateBookingStatus(ctx, coach, id, entity.BookingStatusRejected)
	if err != nil || rejected.Status != entity.BookingStatusRejected {
		t.Fatalf("reject: %v", err)
	}
	if !env.svc.Availability.IsSlotAvailable(ctx, "coach-1", "2024-06-01", "10:00", 60) {
		t.Fatalf("rejection must free the slot")
	}
	if _, err := env.svc.Booking.CancelBooking(ctx, client, id, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelling a rejected booking, got %v", err)
	}
}

func TestCancelIsStatusOnlyAndRefundIsSeparate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := mustCreate(t, env, client, cardSessionRequest("2024-06-01", "10:00"))
	id := b.ID.String()
	if _, err := env.svc.Booking.ConfirmPayment(ctx, client, id); err != nil {
		t.Fatalf("pay: %v", err)
	}

	cancelled, err := env.svc.Booking.CancelBooking(ctx, client, id, "injured")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != entity.BookingStatusCancelled || cancelled.PaymentStatus != entity.PaymentStatusCompleted {
		t.Fatalf("cancel must not touch payment, got %s/%s", cancelled.Status, cancelled.PaymentStatus)
	}
	if cancelled.CancelReason != "injured" {
		t.Fatalf("reason not kept")
	}
	if !env.svc.Availability.IsSlotAvailable(ctx, "coach-1", "2024-06-01", "10:00", 60) {
		t.Fatalf("cancel must free the slot")
	}
	if titles := feedTitles(t, env, coach); !contains(titles, "Booking cancelled") {
		t.Fatalf("coach should be told, got %v", titles)
	}

	if _, err := env.svc.Booking.RefundPayment(ctx, client, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("requester cannot refund, got %v", err)
	}
	refunded, err := env.svc.Booking.RefundPayment(ctx, coach, id)
	if err != nil || refunded.PaymentStatus != entity.PaymentStatusRefunded {
		t.Fatalf("refund: %v", err)
	}
}

func TestExpireOverdueCancelsUnpaidBookings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unpaid := mustCreate(t, env, client, cardSessionRequest("2024-06-03", "10:00"))
	paid := mustCreate(t, env, client2, cardSessionRequest("2024-06-03", "12:00"))
	if _, err := env.svc.Booking.ConfirmPayment(ctx, client2, paid.ID.String()); err != nil {
		t.Fatalf("pay: %v", err)
	}

	if n, _ := env.svc.Booking.ExpireOverdue(ctx, env.clock.Now().Add(47*time.Hour)); n != 0 {
		t.Fatalf("nothing is overdue yet, expired %d", n)
	}

	env.clock.Advance(49 * time.Hour)
	n, err := env.svc.Booking.ExpireOverdue(ctx, env.clock.Now())
	if err != nil || n != 1 {
		t.Fatalf("expected one expiry, got %d (%v)", n, err)
	}

	got, _ := env.svc.Booking.GetBookingByID(ctx, client, unpaid.ID.String())
	if got.Status != entity.BookingStatusCancelled || got.PaymentStatus != entity.PaymentStatusFailed {
		t.Fatalf("expected cancelled/failed, got %s/%s", got.Status, got.PaymentStatus)
	}
	if !env.svc.Availability.IsSlotAvailable(ctx, "coach-1", "2024-06-03", "10:00", 60) {
		t.Fatalf("expired booking must free its slot")
	}

	if n, _ := env.svc.Booking.ExpireOverdue(ctx, env.clock.Now()); n != 0 {
		t.Fatalf("expiry must run once, got %d", n)
	}
}

func TestPersistenceFailureKeepsMemoryAndWarns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.snapshots.SetFailing(true)
	b, err := env.svc.Booking.CreateBooking(ctx, client, sessionRequest("2024-06-01", "10:00"))
	if !errors.Is(err, ErrNotDurable) {
		t.Fatalf("expected ErrNotDurable, got %v", err)
	}
	if b == nil || b.Status != entity.BookingStatusConfirmed {
		t.Fatalf("booking should still be returned")
	}

	got, err := env.svc.Booking.GetBookingByID(ctx, client, b.ID.String())
	if err != nil || got.ID != b.ID {
		t.Fatalf("in-memory booking lost: %v", err)
	}

	env.snapshots.SetFailing(false)
	if _, err := env.svc.Booking.CancelBooking(ctx, client, b.ID.String(), ""); err != nil {
		t.Fatalf("cancel after recovery: %v", err)
	}
}

func TestHydrateRestoresStateFromSnapshot(t *testing.T) {
	first := newTestEnv(t)
	ctx := context.Background()

	b := mustCreate(t, first, client, cardSessionRequest("2024-06-01", "10:00"))
	if _, err := first.svc.Chat.SendMessage(ctx, client, b.ID.String(), &request.SendMessageRequest{Content: "hello"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	// a fresh process over the same store
	repo := &repository.Repository{Snapshot: first.snapshots, Catalog: testCatalog()}
	second := newTestEnvWithRepo(t, repo, first.snapshots)

	if _, err := second.svc.Booking.GetBookingByID(ctx, client, b.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("nothing should be loaded before hydrate")
	}
	if err := second.svc.Booking.Hydrate(ctx, client.ID); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	got, err := second.svc.Booking.GetBookingByID(ctx, coach, b.ID.String())
	if err != nil {
		t.Fatalf("get after hydrate: %v", err)
	}
	if got.Date != "2024-06-01" || got.Time != "10:00" || got.Duration != 60 || !got.PaymentDeadline.Equal(*b.PaymentDeadline) {
		t.Fatalf("schedule drifted: %+v", got)
	}
	if second.svc.Availability.IsSlotAvailable(ctx, "coach-1", "2024-06-01", "10:00", 60) {
		t.Fatalf("hydrated booking must block its slot")
	}

	msgs, _ := second.svc.Chat.GetMessages(ctx, coach, b.ID.String())
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Fatalf("messages not restored: %+v", msgs)
	}
	if second.scheduler.Active() != 2 {
		t.Fatalf("payment reminders should be re-armed, got %d", second.scheduler.Active())
	}

	// hydrating the other party is idempotent
	if err := second.svc.Booking.Hydrate(ctx, coach.ID); err != nil {
		t.Fatalf("hydrate coach: %v", err)
	}
	list, _ := second.svc.Booking.ListBookings(ctx, client)
	if len(list) != 1 {
		t.Fatalf("duplicate bookings after second hydrate: %d", len(list))
	}
}
