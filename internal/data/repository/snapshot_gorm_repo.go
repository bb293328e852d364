package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitness-booking/internal/data/entity"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRecord is the gorm row behind the snapshot store.
type SnapshotRecord struct {
	OwnerID       string         `gorm:"primaryKey;type:varchar(128)"`
	Bookings      datatypes.JSON `gorm:"not null"`
	Messages      datatypes.JSON `gorm:"not null"`
	Notifications datatypes.JSON `gorm:"not null"`
	UpdatedAt     time.Time
}

func (SnapshotRecord) TableName() string {
	return "booking_snapshots"
}

type gormSnapshotRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewGormSnapshotRepository(db *gorm.DB, log *zap.Logger) SnapshotRepository {
	return &gormSnapshotRepository{
		db:  db,
		log: log.With(zap.String("repository", "snapshot_gorm")),
	}
}

func (r *gormSnapshotRepository) Load(ctx context.Context, ownerID string) (*entity.Snapshot, error) {
	var rec SnapshotRecord
	err := r.db.WithContext(ctx).First(&rec, "owner_id = ?", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptySnapshot(ownerID), nil
	}
	if err != nil {
		r.log.Error("Failed to load snapshot", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, fmt.Errorf("load snapshot %s: %w", ownerID, err)
	}

	return decodeSnapshot(ownerID, rec.Bookings, rec.Messages, rec.Notifications)
}

func (r *gormSnapshotRepository) Save(ctx context.Context, ownerID string, snapshot *entity.Snapshot) error {
	bookings, messages, notifications, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	rec := SnapshotRecord{
		OwnerID:       ownerID,
		Bookings:      datatypes.JSON(bookings),
		Messages:      datatypes.JSON(messages),
		Notifications: datatypes.JSON(notifications),
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"bookings", "messages", "notifications", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		r.log.Error("Failed to save snapshot", zap.Error(err), zap.String("owner_id", ownerID))
		return fmt.Errorf("save snapshot %s: %w", ownerID, err)
	}

	return nil
}

func (r *gormSnapshotRepository) Owners(ctx context.Context) ([]string, error) {
	var owners []string
	err := r.db.WithContext(ctx).Model(&SnapshotRecord{}).Order("owner_id").Pluck("owner_id", &owners).Error
	if err != nil {
		r.log.Error("Failed to list snapshot owners", zap.Error(err))
		return nil, fmt.Errorf("list snapshot owners: %w", err)
	}
	return owners, nil
}
