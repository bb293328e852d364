package repository

import (
	"context"
	"errors"
	"fmt"

	"fitness-booking/internal/data/entity"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type gormCatalogRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewGormCatalogRepository(db *gorm.DB, log *zap.Logger) CatalogRepository {
	return &gormCatalogRepository{
		db:  db,
		log: log.With(zap.String("repository", "catalog_gorm")),
	}
}

func (r *gormCatalogRepository) FindGym(ctx context.Context, id string) (*entity.Gym, error) {
	var gym entity.Gym
	if err := r.first(ctx, &gym, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find gym by ID %s: %w", id, err)
	}
	return &gym, nil
}

func (r *gormCatalogRepository) FindCoach(ctx context.Context, id string) (*entity.Coach, error) {
	var coach entity.Coach
	if err := r.first(ctx, &coach, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find coach by ID %s: %w", id, err)
	}
	return &coach, nil
}

func (r *gormCatalogRepository) FindClass(ctx context.Context, id string) (*entity.Class, error) {
	var class entity.Class
	if err := r.first(ctx, &class, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find class by ID %s: %w", id, err)
	}
	return &class, nil
}

func (r *gormCatalogRepository) first(ctx context.Context, dest any, id string) error {
	err := r.db.WithContext(ctx).First(dest, "id = ?", id).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Error("Failed to query catalog", zap.Error(err), zap.String("id", id))
	}
	return err
}

// SeedCatalog inserts the given catalog rows when the gyms table is empty.
func SeedCatalog(ctx context.Context, db *gorm.DB, gyms []entity.Gym, coaches []entity.Coach, classes []entity.Class) error {
	var count int64
	if err := db.WithContext(ctx).Model(&entity.Gym{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count gyms: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(gyms) > 0 {
			if err := tx.Create(&gyms).Error; err != nil {
				return fmt.Errorf("seed gyms: %w", err)
			}
		}
		if len(coaches) > 0 {
			if err := tx.Create(&coaches).Error; err != nil {
				return fmt.Errorf("seed coaches: %w", err)
			}
		}
		if len(classes) > 0 {
			if err := tx.Create(&classes).Error; err != nil {
				return fmt.Errorf("seed classes: %w", err)
			}
		}
		return nil
	})
}
