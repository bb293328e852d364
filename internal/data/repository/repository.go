package repository

import (
	"context"
	"fmt"

	"fitness-booking/internal/data/entity"
	"fitness-booking/pkg/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Repository struct {
	Snapshot SnapshotRepository
	Catalog  CatalogRepository
}

// NewRepository wires the pgx backed store.
func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Snapshot: NewSnapshotRepository(db, log),
		Catalog:  NewCatalogRepository(db, log),
	}
}

// NewGormRepository migrates and wires the gorm backed store (sqlite or postgres).
func NewGormRepository(ctx context.Context, db *gorm.DB, log *zap.Logger) (*Repository, error) {
	if err := db.WithContext(ctx).AutoMigrate(&SnapshotRecord{}, &entity.Gym{}, &entity.Coach{}, &entity.Class{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	gyms, coaches, classes := DemoCatalog()
	if err := SeedCatalog(ctx, db, gyms, coaches, classes); err != nil {
		return nil, err
	}

	return &Repository{
		Snapshot: NewGormSnapshotRepository(db, log),
		Catalog:  NewGormCatalogRepository(db, log),
	}, nil
}

// NewMemoryRepository wires the in-process store with the demo catalog.
func NewMemoryRepository(log *zap.Logger) *Repository {
	gyms, coaches, classes := DemoCatalog()
	return &Repository{
		Snapshot: NewMemorySnapshotRepository(log),
		Catalog:  NewMemoryCatalogRepository(gyms, coaches, classes),
	}
}
