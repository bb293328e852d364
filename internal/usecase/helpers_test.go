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
	"fitness-booking/pkg/cache"
	"fitness-booking/pkg/utils"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var (
	client   = entity.Caller{ID: "user-1", Name: "Ana", Role: entity.RoleClient}
	client2  = entity.Caller{ID: "user-2", Name: "Ben", Role: entity.RoleClient}
	coach    = entity.Caller{ID: "coach-1", Name: "Maya Chen", Role: entity.RoleCoach}
	gymOwner = entity.Caller{ID: "gym-1", Name: "Iron Temple", Role: entity.RoleGym}
	stranger = entity.Caller{ID: "someone-else", Name: "Eve"}
)

// 2024-05-30 is a Thursday.
var testStart = time.Date(2024, 5, 30, 8, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// fakeScheduler records timers; FireDue runs the ones the clock has reached.
type fakeScheduler struct {
	mu     sync.Mutex
	clock  *fakeClock
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.clock.Now().Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) FireDue() int {
	now := s.clock.Now()

	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && !t.at.After(now) {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

func (s *fakeScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	mu    sync.Mutex
	users []string
}

func (n *recordingNotifier) Notify(userID, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	return nil
}

func (n *recordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.users)
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range p.keys {
		if k == key {
			return true
		}
	}
	return false
}

// flakySnapshotRepo fails every Save while failing is set.
type flakySnapshotRepo struct {
	repository.SnapshotRepository
	mu      sync.Mutex
	failing bool
}

func (r *flakySnapshotRepo) SetFailing(v bool) {
	r.mu.Lock()
	r.failing = v
	r.mu.Unlock()
}

func (r *flakySnapshotRepo) Save(ctx context.Context, ownerID string, snapshot *entity.Snapshot) error {
	r.mu.Lock()
	failing := r.failing
	r.mu.Unlock()
	if failing {
		return errors.New("storage unavailable")
	}
	return r.SnapshotRepository.Save(ctx, ownerID, snapshot)
}

func testConfig() *utils.Config {
	return &utils.Config{
		Availability: utils.AvailabilityConfig{
			OpenHour:    9,
			CloseHour:   18,
			SlotMinutes: 60,
			HorizonDays: 60,
			Timezone:    "UTC",
		},
		Notification: utils.NotificationConfig{
			ClassDeadlineHours:   24,
			DefaultDeadlineHours: 48,
			ReminderHours:        []int{12, 6},
			SweepIntervalSeconds: 60,
		},
		Redis: utils.RedisConfig{CacheTTLSeconds: 60},
	}
}

func testCatalog() repository.CatalogRepository {
	return repository.NewMemoryCatalogRepository(
		[]entity.Gym{
			{ID: "gym-1", Name: "Iron Temple"},
			{ID: "gym-2", Name: "Flow Studio"},
		},
		[]entity.Coach{
			{ID: "coach-1", Name: "Maya Chen", GymID: "gym-1", HourlyRate: 60},
			{ID: "coach-2", Name: "Leo Brandt", GymID: "gym-2", HourlyRate: 45},
		},
		[]entity.Class{
			{ID: "class-1", GymID: "gym-1", Name: "Morning HIIT", Kind: entity.BookingKindClass, Price: 0, MaxParticipants: 3, CurrentParticipants: 2},
			{ID: "class-paid", GymID: "gym-1", Name: "Spin", Kind: entity.BookingKindClass, Price: 15, MaxParticipants: 10},
		},
	)
}

type testEnv struct {
	svc       *Service
	clock     *fakeClock
	scheduler *fakeScheduler
	system    *recordingNotifier
	events    *recordingPublisher
	snapshots *flakySnapshotRepo
	repo      *repository.Repository
	log       *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)
	snapshots := &flakySnapshotRepo{SnapshotRepository: repository.NewMemorySnapshotRepository(log)}
	repo := &repository.Repository{Snapshot: snapshots, Catalog: testCatalog()}
	return newTestEnvWithRepo(t, repo, snapshots)
}

func newTestEnvWithRepo(t *testing.T, repo *repository.Repository, snapshots *flakySnapshotRepo) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)
	clock := &fakeClock{now: testStart}
	env := &testEnv{
		clock:     clock,
		scheduler: &fakeScheduler{clock: clock},
		system:    &recordingNotifier{},
		events:    &recordingPublisher{},
		snapshots: snapshots,
		repo:      repo,
		log:       log,
	}
	env.svc = NewService(repo, testConfig(), log,
		WithClock(clock.Now),
		WithScheduler(env.scheduler),
		WithSystemNotifier(env.system),
		WithCache(cache.NewMemory()),
		WithEventPublisher(env.events),
	)
	t.Cleanup(env.svc.Notification.Close)
	return env
}

func boolPtr(v bool) *bool { return &v }

// sessionRequest is a free pay-at-gym private session, which auto-confirms.
func sessionRequest(date, clock string) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		Kind:          string(entity.BookingKindPrivateSession),
		CoachID:       "coach-1",
		GymID:         "gym-1",
		Date:          date,
		Time:          clock,
		Duration:      60,
		PaymentMethod: string(entity.PaymentMethodPayAtGym),
	}
}

// cardSessionRequest is paid upfront at coach-1's hourly rate.
func cardSessionRequest(date, clock string) *request.CreateBookingRequest {
	req := sessionRequest(date, clock)
	req.PaymentMethod = string(entity.PaymentMethodCard)
	return req
}

func classRequest(classID string) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		Kind:          string(entity.BookingKindClass),
		ClassID:       classID,
		GymID:         "gym-1",
		Date:          "2024-06-01",
		Time:          "07:00",
		Duration:      45,
		PaymentMethod: string(entity.PaymentMethodCard),
	}
}

func mustCreate(t *testing.T, env *testEnv, caller entity.Caller, req *request.CreateBookingRequest) *entity.Booking {
	t.Helper()
	b, err := env.svc.Booking.CreateBooking(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func feedTitles(t *testing.T, env *testEnv, caller entity.Caller) []string {
	t.Helper()
	list, err := env.svc.Notification.List(context.Background(), caller)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	titles := make([]string, 0, len(list))
	for _, n := range list {
		titles = append(titles, n.Title)
	}
	return titles
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
