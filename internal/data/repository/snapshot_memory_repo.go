package repository

import (
	"context"
	"sort"
	"sync"

	"fitness-booking/internal/data/entity"

	"go.uber.org/zap"
)

type storedSnapshot struct {
	bookings, messages, notifications []byte
}

// memorySnapshotRepository keeps encoded snapshots so that loads never share
// pointers with the caller, the same as a real store.
type memorySnapshotRepository struct {
	mu   sync.RWMutex
	rows map[string]storedSnapshot
	log  *zap.Logger
}

func NewMemorySnapshotRepository(log *zap.Logger) SnapshotRepository {
	return &memorySnapshotRepository{
		rows: make(map[string]storedSnapshot),
		log:  log.With(zap.String("repository", "snapshot_memory")),
	}
}

func (r *memorySnapshotRepository) Load(ctx context.Context, ownerID string) (*entity.Snapshot, error) {
	r.mu.RLock()
	row, ok := r.rows[ownerID]
	r.mu.RUnlock()

	if !ok {
		return emptySnapshot(ownerID), nil
	}
	return decodeSnapshot(ownerID, row.bookings, row.messages, row.notifications)
}

func (r *memorySnapshotRepository) Save(ctx context.Context, ownerID string, snapshot *entity.Snapshot) error {
	bookings, messages, notifications, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.rows[ownerID] = storedSnapshot{bookings: bookings, messages: messages, notifications: notifications}
	r.mu.Unlock()

	r.log.Debug("Snapshot saved", zap.String("owner_id", ownerID))
	return nil
}

func (r *memorySnapshotRepository) Owners(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owners := make([]string, 0, len(r.rows))
	for owner := range r.rows {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}
