package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"fitness-booking/internal/data/entity"
	"fitness-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// state is the working set shared by the services. Bookings are replaced
// wholesale on commit, never mutated in place, so readers holding a pointer
// taken under the read lock always see a consistent record.
type state struct {
	mu            sync.RWMutex
	bookings      map[uuid.UUID]*entity.Booking
	messages      map[uuid.UUID][]*entity.BookingMessage
	feeds         map[string][]*entity.Notification
	notifications map[uuid.UUID]string

	repo   repository.SnapshotRepository
	saving *keyedMutex
	log    *zap.Logger
}

func newState(repo repository.SnapshotRepository, log *zap.Logger) *state {
	return &state{
		bookings:      make(map[uuid.UUID]*entity.Booking),
		messages:      make(map[uuid.UUID][]*entity.BookingMessage),
		feeds:         make(map[string][]*entity.Notification),
		notifications: make(map[uuid.UUID]string),
		repo:          repo,
		saving:        newKeyedMutex(),
		log:           log.With(zap.String("component", "state")),
	}
}

func (s *state) booking(id uuid.UUID) (*entity.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *state) commitBooking(b *entity.Booking) {
	s.mu.Lock()
	s.bookings[b.ID] = b
	s.mu.Unlock()
}

func (s *state) allBookings() []*entity.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	return out
}

// snapshotFor copies everything ownerID is a party to.
func (s *state) snapshotFor(ownerID string) *entity.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &entity.Snapshot{
		OwnerID:       ownerID,
		Bookings:      []*entity.Booking{},
		Messages:      []*entity.BookingMessage{},
		Notifications: []*entity.Notification{},
	}

	for _, b := range s.bookings {
		if b.UserID != ownerID && b.ProviderID() != ownerID {
			continue
		}
		snap.Bookings = append(snap.Bookings, b.Clone())
		for _, m := range s.messages[b.ID] {
			c := *m
			snap.Messages = append(snap.Messages, &c)
		}
	}
	sort.Slice(snap.Bookings, func(i, j int) bool {
		return snap.Bookings[i].CreatedAt.Before(snap.Bookings[j].CreatedAt)
	})

	for _, n := range s.feeds[ownerID] {
		snap.Notifications = append(snap.Notifications, n.Clone())
	}
	return snap
}

// persist saves the snapshot of every listed owner. Saves for one owner are
// serialized and the snapshot is taken inside that lock, so the last write
// always carries the latest state.
func (s *state) persist(ctx context.Context, owners ...string) error {
	seen := make(map[string]bool, len(owners))
	var errs []error

	for _, owner := range owners {
		if owner == "" || seen[owner] {
			continue
		}
		seen[owner] = true

		unlock := s.saving.Lock(owner)
		err := s.repo.Save(ctx, owner, s.snapshotFor(owner))
		unlock()

		if err != nil {
			s.log.Error("Failed to persist snapshot", zap.Error(err), zap.String("owner_id", owner))
			errs = append(errs, fmt.Errorf("persist %s: %w", owner, err))
		}
	}

	if len(errs) > 0 {
		return notDurable(errors.Join(errs...))
	}
	return nil
}

// merge folds a loaded snapshot into memory. Records already in memory win
// unless the loaded booking is newer. Returns the notifications that were new.
func (s *state) merge(snap *entity.Snapshot) []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range snap.Bookings {
		if cur, ok := s.bookings[b.ID]; ok && !b.UpdatedAt.After(cur.UpdatedAt) {
			continue
		}
		s.bookings[b.ID] = b
	}

	known := make(map[uuid.UUID]bool)
	for _, thread := range s.messages {
		for _, m := range thread {
			known[m.ID] = true
		}
	}
	touched := make(map[uuid.UUID]bool)
	for _, m := range snap.Messages {
		if known[m.ID] {
			continue
		}
		known[m.ID] = true
		s.messages[m.BookingID] = append(s.messages[m.BookingID], m)
		touched[m.BookingID] = true
	}
	for id := range touched {
		thread := s.messages[id]
		sort.SliceStable(thread, func(i, j int) bool {
			return thread[i].CreatedAt.Before(thread[j].CreatedAt)
		})
	}

	var added []*entity.Notification
	feedsTouched := make(map[string]bool)
	for _, n := range snap.Notifications {
		if _, ok := s.notifications[n.ID]; ok {
			continue
		}
		s.notifications[n.ID] = n.UserID
		s.feeds[n.UserID] = append(s.feeds[n.UserID], n)
		feedsTouched[n.UserID] = true
		added = append(added, n)
	}
	for user := range feedsTouched {
		feed := s.feeds[user]
		sort.SliceStable(feed, func(i, j int) bool {
			return feed[i].CreatedAt.After(feed[j].CreatedAt)
		})
	}

	return added
}
