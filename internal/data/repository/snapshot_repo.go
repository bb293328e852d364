package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitness-booking/internal/data/entity"
	"fitness-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SnapshotRepository persists, per owner, every booking the owner is a party
// to together with their chat threads and notification feed. Load of an
// unknown owner returns an empty snapshot.
type SnapshotRepository interface {
	Load(ctx context.Context, ownerID string) (*entity.Snapshot, error)
	Save(ctx context.Context, ownerID string, snapshot *entity.Snapshot) error
	Owners(ctx context.Context) ([]string, error)
}

const snapshotSchema = `
	CREATE TABLE IF NOT EXISTS booking_snapshots (
		owner_id      TEXT PRIMARY KEY,
		bookings      JSONB NOT NULL DEFAULT '[]',
		messages      JSONB NOT NULL DEFAULT '[]',
		notifications JSONB NOT NULL DEFAULT '[]',
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

type snapshotRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSnapshotRepository(db database.PgxIface, log *zap.Logger) SnapshotRepository {
	return &snapshotRepository{
		db:  db,
		log: log.With(zap.String("repository", "snapshot")),
	}
}

// EnsureSnapshotSchema creates the snapshot table when missing.
func EnsureSnapshotSchema(ctx context.Context, db database.PgxIface) error {
	if _, err := db.Exec(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("create booking_snapshots: %w", err)
	}
	return nil
}

func (r *snapshotRepository) Load(ctx context.Context, ownerID string) (*entity.Snapshot, error) {
	query := `
		SELECT bookings, messages, notifications
		FROM booking_snapshots
		WHERE owner_id = $1
	`

	var bookings, messages, notifications []byte
	err := r.db.QueryRow(ctx, query, ownerID).Scan(&bookings, &messages, &notifications)
	if errors.Is(err, pgx.ErrNoRows) {
		return emptySnapshot(ownerID), nil
	}
	if err != nil {
		r.log.Error("Failed to load snapshot",
			zap.Error(err),
			zap.String("owner_id", ownerID),
		)
		return nil, fmt.Errorf("load snapshot %s: %w", ownerID, err)
	}

	snapshot, err := decodeSnapshot(ownerID, bookings, messages, notifications)
	if err != nil {
		r.log.Error("Failed to decode snapshot", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, err
	}
	return snapshot, nil
}

func (r *snapshotRepository) Save(ctx context.Context, ownerID string, snapshot *entity.Snapshot) error {
	bookings, messages, notifications, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO booking_snapshots (owner_id, bookings, messages, notifications, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id) DO UPDATE
		SET bookings = EXCLUDED.bookings,
		    messages = EXCLUDED.messages,
		    notifications = EXCLUDED.notifications,
		    updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(ctx, query, ownerID, bookings, messages, notifications, time.Now().UTC())
	if err != nil {
		r.log.Error("Failed to save snapshot",
			zap.Error(err),
			zap.String("owner_id", ownerID),
			zap.Int("bookings", len(snapshot.Bookings)),
		)
		return fmt.Errorf("save snapshot %s: %w", ownerID, err)
	}

	return nil
}

func (r *snapshotRepository) Owners(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT owner_id FROM booking_snapshots ORDER BY owner_id`)
	if err != nil {
		r.log.Error("Failed to list snapshot owners", zap.Error(err))
		return nil, fmt.Errorf("list snapshot owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan snapshot owner: %w", err)
		}
		owners = append(owners, owner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot owners: %w", err)
	}
	return owners, nil
}

func emptySnapshot(ownerID string) *entity.Snapshot {
	return &entity.Snapshot{
		OwnerID:       ownerID,
		Bookings:      []*entity.Booking{},
		Messages:      []*entity.BookingMessage{},
		Notifications: []*entity.Notification{},
	}
}

func encodeSnapshot(snapshot *entity.Snapshot) (bookings, messages, notifications []byte, err error) {
	if snapshot == nil {
		snapshot = &entity.Snapshot{}
	}
	if bookings, err = marshalList(snapshot.Bookings); err != nil {
		return nil, nil, nil, fmt.Errorf("encode bookings: %w", err)
	}
	if messages, err = marshalList(snapshot.Messages); err != nil {
		return nil, nil, nil, fmt.Errorf("encode messages: %w", err)
	}
	if notifications, err = marshalList(snapshot.Notifications); err != nil {
		return nil, nil, nil, fmt.Errorf("encode notifications: %w", err)
	}
	return bookings, messages, notifications, nil
}

// marshalList writes nil slices as [] so columns never hold null.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func decodeSnapshot(ownerID string, bookings, messages, notifications []byte) (*entity.Snapshot, error) {
	snapshot := emptySnapshot(ownerID)
	if len(bookings) > 0 {
		if err := json.Unmarshal(bookings, &snapshot.Bookings); err != nil {
			return nil, fmt.Errorf("decode bookings for %s: %w", ownerID, err)
		}
	}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &snapshot.Messages); err != nil {
			return nil, fmt.Errorf("decode messages for %s: %w", ownerID, err)
		}
	}
	if len(notifications) > 0 {
		if err := json.Unmarshal(notifications, &snapshot.Notifications); err != nil {
			return nil, fmt.Errorf("decode notifications for %s: %w", ownerID, err)
		}
	}
	return snapshot, nil
}
