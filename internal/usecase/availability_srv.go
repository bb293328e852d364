package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fitness-booking/internal/data/entity"
	"fitness-booking/pkg/cache"
	"fitness-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityService interface {
	AvailableSlots(ctx context.Context, coachID, date string) ([]string, error)
	IsDateAvailable(ctx context.Context, coachID, date string) bool
	NextAvailableDate(ctx context.Context, coachID string) (string, error)
	IsSlotAvailable(ctx context.Context, coachID, date, start string, durationMinutes int) bool

	// Reserve claims the range for bookingID or fails with ErrSlotConflict.
	Reserve(ctx context.Context, bookingID uuid.UUID, coachID, date, start string, durationMinutes int) error
	Release(ctx context.Context, bookingID uuid.UUID)
	// Move swaps the booking's block for a new range in one step; on conflict
	// the old block stays in place.
	Move(ctx context.Context, bookingID uuid.UUID, coachID, date, start string, durationMinutes int) error
	Rebuild(ctx context.Context, bookings []*entity.Booking)
}

// slotBlock is a half-open [start, end) minute range on one coach's day.
type slotBlock struct {
	bookingID uuid.UUID
	coachID   string
	date      string
	start     int
	end       int
}

func (b slotBlock) overlaps(start, end int) bool {
	return b.start < end && start < b.end
}

type availabilityService struct {
	mu        sync.RWMutex
	days      map[string][]slotBlock
	byBooking map[uuid.UUID]slotBlock

	cfg   utils.AvailabilityConfig
	loc   *time.Location
	cache cache.Cache
	ttl   time.Duration
	now   Clock
	log   *zap.Logger
}

func newAvailabilityService(cfg utils.AvailabilityConfig, loc *time.Location, c cache.Cache, ttl time.Duration, now Clock, log *zap.Logger) *availabilityService {
	return &availabilityService{
		days:      make(map[string][]slotBlock),
		byBooking: make(map[uuid.UUID]slotBlock),
		cfg:       cfg,
		loc:       loc,
		cache:     c,
		ttl:       ttl,
		now:       now,
		log:       log.With(zap.String("service", "availability")),
	}
}

func dayKey(coachID, date string) string {
	return coachID + "|" + date
}

const slotsCachePrefix = "slots:"

func slotsCacheKey(coachID, date string) string {
	return slotsCachePrefix + coachID + ":" + date
}

func (s *availabilityService) AvailableSlots(ctx context.Context, coachID, date string) ([]string, error) {
	if _, err := utils.ParseDate(date, s.loc); err != nil {
		return nil, fieldError("date", "Must match layout "+utils.DateLayout)
	}

	key := slotsCacheKey(coachID, date)
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("Slot cache read failed", zap.Error(err), zap.String("key", key))
	} else if ok {
		var slots []string
		if err := json.Unmarshal(raw, &slots); err == nil {
			return slots, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots := s.freeSlotsLocked(coachID, date)
	if raw, err := json.Marshal(slots); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.log.Warn("Slot cache write failed", zap.Error(err), zap.String("key", key))
		}
	}
	return slots, nil
}

// freeSlotsLocked is the working-hours grid minus every overlapping block.
// Slots that would run past closing are never offered.
func (s *availabilityService) freeSlotsLocked(coachID, date string) []string {
	slots := []string{}
	if s.isClosed(date) {
		return slots
	}

	step := s.cfg.SlotMinutes
	open, closing := s.cfg.OpenHour*60, s.cfg.CloseHour*60
	blocks := s.days[dayKey(coachID, date)]

	for start := open; start+step <= closing; start += step {
		free := true
		for _, b := range blocks {
			if b.overlaps(start, start+step) {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, utils.MinutesToClock(start))
		}
	}
	return slots
}

func (s *availabilityService) isClosed(date string) bool {
	d, err := utils.ParseDate(date, s.loc)
	if err != nil {
		return true
	}
	for _, wd := range s.cfg.ClosedWeekdays {
		if int(d.Weekday()) == wd {
			return true
		}
	}
	return false
}

func (s *availabilityService) today() time.Time {
	return utils.StartOfDay(s.now().In(s.loc))
}

func (s *availabilityService) IsDateAvailable(ctx context.Context, coachID, date string) bool {
	d, err := utils.ParseDate(date, s.loc)
	if err != nil {
		return false
	}

	today := s.today()
	if d.Before(today) || d.After(today.AddDate(0, 0, s.cfg.HorizonDays)) {
		return false
	}

	slots, err := s.AvailableSlots(ctx, coachID, date)
	return err == nil && len(slots) > 0
}

func (s *availabilityService) NextAvailableDate(ctx context.Context, coachID string) (string, error) {
	today := s.today()
	for i := 0; i <= s.cfg.HorizonDays; i++ {
		date := today.AddDate(0, 0, i).Format(utils.DateLayout)
		if s.IsDateAvailable(ctx, coachID, date) {
			return date, nil
		}
	}
	return "", fmt.Errorf("no available date for coach %s within %d days: %w", coachID, s.cfg.HorizonDays, ErrNotFound)
}

func (s *availabilityService) IsSlotAvailable(ctx context.Context, coachID, date, start string, durationMinutes int) bool {
	block, err := s.blockFor(uuid.Nil, coachID, date, start, durationMinutes)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.conflictsLocked(block)
}

// blockFor validates the range against the working window.
func (s *availabilityService) blockFor(bookingID uuid.UUID, coachID, date, start string, durationMinutes int) (slotBlock, error) {
	if _, err := utils.ParseDate(date, s.loc); err != nil {
		return slotBlock{}, fieldError("date", "Must match layout "+utils.DateLayout)
	}
	startMin, err := utils.ClockToMinutes(start)
	if err != nil {
		return slotBlock{}, fieldError("time", "Must match layout "+utils.ClockLayout)
	}
	if durationMinutes <= 0 {
		return slotBlock{}, fieldError("duration", "Must be positive")
	}

	block := slotBlock{
		bookingID: bookingID,
		coachID:   coachID,
		date:      date,
		start:     startMin,
		end:       startMin + durationMinutes,
	}

	if s.isClosed(date) {
		return slotBlock{}, fieldError("date", "Coach is not working on this day")
	}
	if block.start < s.cfg.OpenHour*60 || block.end > s.cfg.CloseHour*60 {
		return slotBlock{}, fieldError("time", fmt.Sprintf("Must fall within %02d:00-%02d:00", s.cfg.OpenHour, s.cfg.CloseHour))
	}
	return block, nil
}

func (s *availabilityService) conflictsLocked(block slotBlock) bool {
	for _, b := range s.days[dayKey(block.coachID, block.date)] {
		if b.bookingID == block.bookingID && block.bookingID != uuid.Nil {
			continue
		}
		if b.overlaps(block.start, block.end) {
			return true
		}
	}
	return false
}

func (s *availabilityService) conflictError(block slotBlock) error {
	return &SlotConflictError{
		CoachID:   block.coachID,
		Date:      block.date,
		Time:      utils.MinutesToClock(block.start),
		Available: s.freeSlotsLocked(block.coachID, block.date),
	}
}

func (s *availabilityService) Reserve(ctx context.Context, bookingID uuid.UUID, coachID, date, start string, durationMinutes int) error {
	block, err := s.blockFor(bookingID, coachID, date, start, durationMinutes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.byBooking[bookingID]; held {
		return fmt.Errorf("booking %s already holds a slot: %w", bookingID, ErrInvalidTransition)
	}
	if s.conflictsLocked(block) {
		s.log.Info("Slot conflict",
			zap.String("coach_id", coachID),
			zap.String("date", date),
			zap.String("time", start),
			zap.Int("duration", durationMinutes))
		return s.conflictError(block)
	}

	s.addLocked(block)
	s.invalidateLocked(ctx, coachID, date)
	return nil
}

func (s *availabilityService) Release(ctx context.Context, bookingID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block, ok := s.byBooking[bookingID]
	if !ok {
		return
	}
	s.removeLocked(block)
	s.invalidateLocked(ctx, block.coachID, block.date)
}

func (s *availabilityService) Move(ctx context.Context, bookingID uuid.UUID, coachID, date, start string, durationMinutes int) error {
	block, err := s.blockFor(bookingID, coachID, date, start, durationMinutes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the booking's own block is skipped by conflictsLocked
	if s.conflictsLocked(block) {
		return s.conflictError(block)
	}

	if old, ok := s.byBooking[bookingID]; ok {
		s.removeLocked(old)
		s.invalidateLocked(ctx, old.coachID, old.date)
	}
	s.addLocked(block)
	s.invalidateLocked(ctx, coachID, date)
	return nil
}

// Rebuild replaces the index with the blocks of every slot-holding private
// session in bookings.
func (s *availabilityService) Rebuild(ctx context.Context, bookings []*entity.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.days = make(map[string][]slotBlock)
	s.byBooking = make(map[uuid.UUID]slotBlock)

	for _, b := range bookings {
		if b.Kind != entity.BookingKindPrivateSession || !b.HoldsSlot() || b.CoachID == "" {
			continue
		}
		startMin, err := utils.ClockToMinutes(b.Time)
		if err != nil {
			s.log.Warn("Skipping booking with malformed time", zap.String("booking_id", b.ID.String()))
			continue
		}
		s.addLocked(slotBlock{
			bookingID: b.ID,
			coachID:   b.CoachID,
			date:      b.Date,
			start:     startMin,
			end:       startMin + b.Duration,
		})
	}

	// lists cached before a restart may predate the rebuilt index
	if err := s.cache.DeletePrefix(ctx, slotsCachePrefix); err != nil {
		s.log.Warn("Slot cache purge failed", zap.Error(err))
	}

	s.log.Info("Availability index rebuilt", zap.Int("blocks", len(s.byBooking)))
}

func (s *availabilityService) addLocked(block slotBlock) {
	key := dayKey(block.coachID, block.date)
	s.days[key] = append(s.days[key], block)
	s.byBooking[block.bookingID] = block
}

func (s *availabilityService) removeLocked(block slotBlock) {
	key := dayKey(block.coachID, block.date)
	blocks := s.days[key]
	for i, b := range blocks {
		if b.bookingID == block.bookingID {
			blocks = append(blocks[:i], blocks[i+1:]...)
			break
		}
	}
	if len(blocks) == 0 {
		delete(s.days, key)
	} else {
		s.days[key] = blocks
	}
	delete(s.byBooking, block.bookingID)
}

func (s *availabilityService) invalidateLocked(ctx context.Context, coachID, date string) {
	key := slotsCacheKey(coachID, date)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("Slot cache delete failed", zap.Error(err), zap.String("key", key))
	}
}
