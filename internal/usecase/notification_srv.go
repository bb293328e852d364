package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fitness-booking/internal/data/entity"
	"fitness-booking/internal/dto/request"
	"fitness-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CancelFunc disarms every reminder timer of one payment notification.
type CancelFunc func()

type NotificationService interface {
	AddNotification(ctx context.Context, userID string, req *request.NotificationRequest) (*entity.Notification, error)
	AddPaymentNotification(ctx context.Context, userID string, req *request.PaymentNotificationRequest) (*entity.Notification, CancelFunc, error)

	List(ctx context.Context, caller entity.Caller) ([]*entity.Notification, error)
	UnreadCount(ctx context.Context, caller entity.Caller) (int, error)
	MarkAsRead(ctx context.Context, caller entity.Caller, id string) error
	MarkAllAsRead(ctx context.Context, caller entity.Caller) error
	DeleteNotification(ctx context.Context, caller entity.Caller, id string) error
	ClearAll(ctx context.Context, caller entity.Caller) error
	SetSystemPermission(ctx context.Context, caller entity.Caller, granted bool) error

	// ScheduleReminders arms the future reminders of a payment notification.
	// A second call for the same notification is a no-op.
	ScheduleReminders(ctx context.Context, notificationID string) error
	// SweepReminders fires reminders that came due while no timer was armed,
	// e.g. across a restart. Returns how many fired.
	SweepReminders(ctx context.Context, now time.Time) (int, error)
	Close()
}

type notificationService struct {
	state *state
	cfg   utils.NotificationConfig

	mu          sync.Mutex
	armed       map[uuid.UUID][]Timer
	permissions map[string]bool
	closed      bool

	scheduler Scheduler
	system    SystemNotifier
	now       Clock
	log       *zap.Logger
}

func newNotificationService(st *state, cfg utils.NotificationConfig, scheduler Scheduler, system SystemNotifier, now Clock, log *zap.Logger) *notificationService {
	return &notificationService{
		state:       st,
		cfg:         cfg,
		armed:       make(map[uuid.UUID][]Timer),
		permissions: make(map[string]bool),
		scheduler:   scheduler,
		system:      system,
		now:         now,
		log:         log.With(zap.String("service", "notification")),
	}
}

// push stores n at the head of the user's feed without persisting.
func (s *notificationService) push(userID string, n *entity.Notification) *entity.Notification {
	n.ID = utils.GenerateUUID()
	n.UserID = userID
	n.CreatedAt = s.now()
	if n.ActionType == "" {
		n.ActionType = entity.ActionNone
	}

	s.state.mu.Lock()
	s.state.feeds[userID] = append([]*entity.Notification{n}, s.state.feeds[userID]...)
	s.state.notifications[n.ID] = userID
	s.state.mu.Unlock()

	s.log.Debug("Notification added",
		zap.String("user_id", userID),
		zap.String("type", string(n.Type)),
		zap.String("title", n.Title))
	return n.Clone()
}

func (s *notificationService) AddNotification(ctx context.Context, userID string, req *request.NotificationRequest) (*entity.Notification, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		s.log.Warn("Add notification validation failed", zap.Error(err))
		return nil, err
	}

	n := &entity.Notification{
		Title:      req.Title,
		Message:    req.Message,
		Type:       entity.NotificationType(req.Type),
		ActionType: entity.ActionType(req.ActionType),
	}
	if req.Route != "" || req.Modal != "" || len(req.Metadata) > 0 {
		n.ActionData = &entity.ActionData{Route: req.Route, Modal: req.Modal, Metadata: copyMetadata(req.Metadata)}
	}

	created := s.push(userID, n)
	if err := s.state.persist(ctx, userID); err != nil {
		return created, err
	}
	return created, nil
}

func (s *notificationService) AddPaymentNotification(ctx context.Context, userID string, req *request.PaymentNotificationRequest) (*entity.Notification, CancelFunc, error) {
	if userID == "" {
		return nil, func() {}, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, func() {}, err
	}

	created, cancel := s.pushPayment(userID, req)
	if err := s.state.persist(ctx, userID); err != nil {
		return created, cancel, err
	}
	return created, cancel, nil
}

// pushPayment builds the payment notification with its reminders and arms
// them. Not persisted.
func (s *notificationService) pushPayment(userID string, req *request.PaymentNotificationRequest) (*entity.Notification, CancelFunc) {
	now := s.now()

	deadline := now.Add(time.Duration(s.deadlineHours(req.ItemType)) * time.Hour)
	if req.Deadline != nil {
		deadline = *req.Deadline
	}

	reminders := make([]entity.Reminder, 0, len(s.cfg.ReminderHours))
	for _, h := range s.cfg.ReminderHours {
		reminders = append(reminders, entity.Reminder{
			HoursBefore: h,
			Message:     fmt.Sprintf("Payment for %s is due in %d hours", req.ItemName, h),
		})
	}

	route := req.Route
	if route == "" {
		route = "/payments/pending"
	}

	n := s.push(userID, &entity.Notification{
		Title:      "Payment pending",
		Message:    fmt.Sprintf("Complete your payment of %.2f for %s by %s", req.Amount, req.ItemName, deadline.Format("Jan 2, 3:04 PM")),
		Type:       entity.NotificationPayment,
		ActionType: entity.ActionNavigate,
		ActionData: &entity.ActionData{Route: route, Metadata: copyMetadata(req.Metadata)},
		Payment: &entity.PaymentDetails{
			Amount:    req.Amount,
			ItemName:  req.ItemName,
			ItemType:  req.ItemType,
			GymName:   req.GymName,
			Deadline:  deadline,
			Reminders: reminders,
		},
	})

	s.arm(n.ID)
	return n, func() { s.disarm(n.ID) }
}

func (s *notificationService) deadlineHours(itemType string) int {
	if itemType == string(entity.BookingKindClass) {
		return s.cfg.ClassDeadlineHours
	}
	return s.cfg.DefaultDeadlineHours
}

func (s *notificationService) ScheduleReminders(ctx context.Context, notificationID string) error {
	id, err := utils.ParseUUID(notificationID)
	if err != nil {
		return notFound("notification", notificationID)
	}

	s.state.mu.RLock()
	_, ok := s.state.notifications[id]
	s.state.mu.RUnlock()
	if !ok {
		return notFound("notification", notificationID)
	}

	s.arm(id)
	return nil
}

// arm sets one timer per reminder still ahead of now. Reminders already due
// are left alone: there is no catch-up firing from here.
func (s *notificationService) arm(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if _, ok := s.armed[id]; ok {
		return
	}

	s.state.mu.RLock()
	n := s.findLocked(id)
	var payment *entity.PaymentDetails
	if n != nil && n.Payment != nil {
		payment = n.Clone().Payment
	}
	s.state.mu.RUnlock()

	if payment == nil || payment.Settled {
		return
	}

	now := s.now()
	timers := make([]Timer, 0, len(payment.Reminders))
	for i, r := range payment.Reminders {
		fireAt := r.FireAt(payment.Deadline)
		if r.IsSent || !fireAt.After(now) {
			continue
		}
		idx := i
		timers = append(timers, s.scheduler.AfterFunc(fireAt.Sub(now), func() {
			s.fire(context.Background(), id, idx)
		}))
	}
	s.armed[id] = timers

	s.log.Debug("Reminders armed", zap.String("notification_id", id.String()), zap.Int("timers", len(timers)))
}

func (s *notificationService) disarm(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.armed[id] {
		t.Stop()
	}
	delete(s.armed, id)
}

// findLocked needs state.mu held.
func (s *notificationService) findLocked(id uuid.UUID) *entity.Notification {
	userID, ok := s.state.notifications[id]
	if !ok {
		return nil
	}
	for _, n := range s.state.feeds[userID] {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// fire marks one reminder sent and appends the reminder notification. It is
// safe to call more than once; only the first call for a reminder acts.
func (s *notificationService) fire(ctx context.Context, id uuid.UUID, idx int) bool {
	now := s.now()

	s.state.mu.Lock()
	n := s.findLocked(id)
	if n == nil || n.Payment == nil || n.Payment.Settled || idx >= len(n.Payment.Reminders) {
		s.state.mu.Unlock()
		return false
	}
	r := &n.Payment.Reminders[idx]
	if r.IsSent || !now.Before(n.Payment.Deadline) {
		s.state.mu.Unlock()
		return false
	}
	r.IsSent = true
	sentAt := now
	r.SentAt = &sentAt

	userID := n.UserID
	message := r.Message
	reminder := &entity.Notification{
		BaseSimple: entity.BaseSimple{ID: utils.GenerateUUID(), CreatedAt: now},
		UserID:     userID,
		Title:      "Payment reminder",
		Message:    message,
		Type:       entity.NotificationReminder,
		ActionType: n.ActionType,
	}
	if n.ActionData != nil {
		reminder.ActionData = n.Clone().ActionData
	}
	s.state.feeds[userID] = append([]*entity.Notification{reminder}, s.state.feeds[userID]...)
	s.state.notifications[reminder.ID] = userID
	s.state.mu.Unlock()

	s.log.Info("Payment reminder fired",
		zap.String("user_id", userID),
		zap.String("notification_id", id.String()),
		zap.Int("reminder", idx))

	s.mu.Lock()
	granted := s.permissions[userID]
	s.mu.Unlock()
	if granted {
		if err := s.system.Notify(userID, "Payment reminder", message); err != nil {
			s.log.Warn("System notification failed", zap.Error(err), zap.String("user_id", userID))
		}
	}

	if err := s.state.persist(ctx, userID); err != nil {
		s.log.Warn("Reminder state not persisted", zap.Error(err), zap.String("user_id", userID))
	}
	return true
}

func (s *notificationService) SweepReminders(ctx context.Context, now time.Time) (int, error) {
	type due struct {
		id  uuid.UUID
		idx int
	}

	s.state.mu.RLock()
	var pending []due
	for _, feed := range s.state.feeds {
		for _, n := range feed {
			p := n.Payment
			if p == nil || p.Settled || !now.Before(p.Deadline) {
				continue
			}
			for i, r := range p.Reminders {
				fireAt := r.FireAt(p.Deadline)
				if r.IsSent || fireAt.After(now) || !fireAt.After(n.CreatedAt) {
					continue
				}
				pending = append(pending, due{id: n.ID, idx: i})
			}
		}
	}
	s.state.mu.RUnlock()

	fired := 0
	for _, d := range pending {
		if err := ctx.Err(); err != nil {
			return fired, err
		}
		if s.fire(ctx, d.id, d.idx) {
			fired++
		}
	}
	if fired > 0 {
		s.log.Info("Reminder sweep fired overdue reminders", zap.Int("fired", fired))
	}
	return fired, nil
}

// settle marks the payment notifications of a booking as resolved and drops
// their timers. Not persisted; returns whether anything changed.
func (s *notificationService) settle(bookingID uuid.UUID) bool {
	key := bookingID.String()

	s.state.mu.Lock()
	var ids []uuid.UUID
	for _, feed := range s.state.feeds {
		for _, n := range feed {
			if n.Payment == nil || n.Payment.Settled || n.ActionData == nil {
				continue
			}
			if n.ActionData.Metadata["booking_id"] == key {
				n.Payment.Settled = true
				ids = append(ids, n.ID)
			}
		}
	}
	s.state.mu.Unlock()

	for _, id := range ids {
		s.disarm(id)
	}
	return len(ids) > 0
}

func (s *notificationService) List(ctx context.Context, caller entity.Caller) ([]*entity.Notification, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	feed := s.state.feeds[caller.ID]
	out := make([]*entity.Notification, 0, len(feed))
	for _, n := range feed {
		out = append(out, n.Clone())
	}
	return out, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, caller entity.Caller) (int, error) {
	if caller.IsAnonymous() {
		return 0, ErrUnauthenticated
	}

	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	count := 0
	for _, n := range s.state.feeds[caller.ID] {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, caller entity.Caller, id string) error {
	if caller.IsAnonymous() {
		return ErrUnauthenticated
	}
	notifID, err := utils.ParseUUID(id)
	if err != nil {
		return notFound("notification", id)
	}

	s.state.mu.Lock()
	var target *entity.Notification
	for _, n := range s.state.feeds[caller.ID] {
		if n.ID == notifID {
			target = n
			break
		}
	}
	if target == nil {
		s.state.mu.Unlock()
		return notFound("notification", id)
	}
	changed := !target.IsRead
	target.IsRead = true
	s.state.mu.Unlock()

	if !changed {
		return nil
	}
	return s.state.persist(ctx, caller.ID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, caller entity.Caller) error {
	if caller.IsAnonymous() {
		return ErrUnauthenticated
	}

	s.state.mu.Lock()
	for _, n := range s.state.feeds[caller.ID] {
		n.IsRead = true
	}
	s.state.mu.Unlock()

	return s.state.persist(ctx, caller.ID)
}

func (s *notificationService) DeleteNotification(ctx context.Context, caller entity.Caller, id string) error {
	if caller.IsAnonymous() {
		return ErrUnauthenticated
	}
	notifID, err := utils.ParseUUID(id)
	if err != nil {
		return notFound("notification", id)
	}

	s.state.mu.Lock()
	feed := s.state.feeds[caller.ID]
	idx := -1
	for i, n := range feed {
		if n.ID == notifID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.state.mu.Unlock()
		return notFound("notification", id)
	}
	s.state.feeds[caller.ID] = append(feed[:idx:idx], feed[idx+1:]...)
	delete(s.state.notifications, notifID)
	s.state.mu.Unlock()

	s.disarm(notifID)
	return s.state.persist(ctx, caller.ID)
}

func (s *notificationService) ClearAll(ctx context.Context, caller entity.Caller) error {
	if caller.IsAnonymous() {
		return ErrUnauthenticated
	}

	s.state.mu.Lock()
	feed := s.state.feeds[caller.ID]
	delete(s.state.feeds, caller.ID)
	for _, n := range feed {
		delete(s.state.notifications, n.ID)
	}
	s.state.mu.Unlock()

	for _, n := range feed {
		s.disarm(n.ID)
	}
	return s.state.persist(ctx, caller.ID)
}

func (s *notificationService) SetSystemPermission(ctx context.Context, caller entity.Caller, granted bool) error {
	if caller.IsAnonymous() {
		return ErrUnauthenticated
	}

	s.mu.Lock()
	s.permissions[caller.ID] = granted
	s.mu.Unlock()
	return nil
}

func (s *notificationService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timers := range s.armed {
		for _, t := range timers {
			t.Stop()
		}
		delete(s.armed, id)
	}
	s.closed = true
}

func copyMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
