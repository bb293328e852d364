package repository

import (
	"context"
	"errors"
	"fmt"

	"fitness-booking/internal/data/entity"
	"fitness-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CatalogRepository resolves the names and capacity a booking snapshots at
// creation time. Unknown ids return nil without error.
type CatalogRepository interface {
	FindGym(ctx context.Context, id string) (*entity.Gym, error)
	FindCoach(ctx context.Context, id string) (*entity.Coach, error)
	FindClass(ctx context.Context, id string) (*entity.Class, error)
}

type catalogRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCatalogRepository(db database.PgxIface, log *zap.Logger) CatalogRepository {
	return &catalogRepository{
		db:  db,
		log: log.With(zap.String("repository", "catalog")),
	}
}

func (r *catalogRepository) FindGym(ctx context.Context, id string) (*entity.Gym, error) {
	query := `
		SELECT id, name, address
		FROM gyms
		WHERE id = $1
	`

	var gym entity.Gym
	err := r.db.QueryRow(ctx, query, id).Scan(&gym.ID, &gym.Name, &gym.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find gym by ID", zap.Error(err), zap.String("gym_id", id))
		return nil, fmt.Errorf("find gym by ID %s: %w", id, err)
	}

	return &gym, nil
}

func (r *catalogRepository) FindCoach(ctx context.Context, id string) (*entity.Coach, error) {
	query := `
		SELECT id, name, avatar, gym_id, hourly_rate
		FROM coaches
		WHERE id = $1
	`

	var coach entity.Coach
	err := r.db.QueryRow(ctx, query, id).Scan(
		&coach.ID,
		&coach.Name,
		&coach.Avatar,
		&coach.GymID,
		&coach.HourlyRate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find coach by ID", zap.Error(err), zap.String("coach_id", id))
		return nil, fmt.Errorf("find coach by ID %s: %w", id, err)
	}

	return &coach, nil
}

func (r *catalogRepository) FindClass(ctx context.Context, id string) (*entity.Class, error) {
	query := `
		SELECT id, gym_id, name, kind, price, max_participants, current_participants
		FROM classes
		WHERE id = $1
	`

	var class entity.Class
	err := r.db.QueryRow(ctx, query, id).Scan(
		&class.ID,
		&class.GymID,
		&class.Name,
		&class.Kind,
		&class.Price,
		&class.MaxParticipants,
		&class.CurrentParticipants,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find class by ID", zap.Error(err), zap.String("class_id", id))
		return nil, fmt.Errorf("find class by ID %s: %w", id, err)
	}

	return &class, nil
}
