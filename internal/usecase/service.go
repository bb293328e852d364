package usecase

import (
	"time"

	"fitness-booking/internal/data/repository"
	"fitness-booking/pkg/cache"
	"fitness-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Availability AvailabilityService
	Booking      BookingService
	Notification NotificationService
	Chat         ChatService
}

type options struct {
	clock     Clock
	scheduler Scheduler
	system    SystemNotifier
	cache     cache.Cache
	events    EventPublisher
}

type Option func(*options)

func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

func WithSystemNotifier(n SystemNotifier) Option {
	return func(o *options) { o.system = n }
}

func WithCache(c cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

func NewService(repo *repository.Repository, config *utils.Config, log *zap.Logger, opts ...Option) *Service {
	o := options{
		clock:     time.Now,
		scheduler: wallScheduler{},
		system:    newLogNotifier(log),
		cache:     cache.NewNoop(),
		events:    noopPublisher{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := time.LoadLocation(config.Availability.Timezone)
	if err != nil {
		log.Warn("Unknown availability timezone, using UTC", zap.String("timezone", config.Availability.Timezone))
		loc = time.UTC
	}

	st := newState(repo.Snapshot, log)
	ttl := time.Duration(config.Redis.CacheTTLSeconds) * time.Second

	availability := newAvailabilityService(config.Availability, loc, o.cache, ttl, o.clock, log)
	notifications := newNotificationService(st, config.Notification, o.scheduler, o.system, o.clock, log)
	bookings := newBookingService(st, repo, availability, notifications, o.events, loc, o.clock, log)

	return &Service{
		Availability: availability,
		Booking:      bookings,
		Notification: notifications,
		Chat:         newChatService(st, bookings, o.clock, log),
	}
}
