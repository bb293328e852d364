package repository

import (
	"context"
	"sync"

	"fitness-booking/internal/data/entity"
)

type memoryCatalogRepository struct {
	mu      sync.RWMutex
	gyms    map[string]entity.Gym
	coaches map[string]entity.Coach
	classes map[string]entity.Class
}

func NewMemoryCatalogRepository(gyms []entity.Gym, coaches []entity.Coach, classes []entity.Class) CatalogRepository {
	r := &memoryCatalogRepository{
		gyms:    make(map[string]entity.Gym, len(gyms)),
		coaches: make(map[string]entity.Coach, len(coaches)),
		classes: make(map[string]entity.Class, len(classes)),
	}
	for _, g := range gyms {
		r.gyms[g.ID] = g
	}
	for _, c := range coaches {
		r.coaches[c.ID] = c
	}
	for _, c := range classes {
		r.classes[c.ID] = c
	}
	return r
}

func (r *memoryCatalogRepository) FindGym(ctx context.Context, id string) (*entity.Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.gyms[id]; ok {
		return &g, nil
	}
	return nil, nil
}

func (r *memoryCatalogRepository) FindCoach(ctx context.Context, id string) (*entity.Coach, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.coaches[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *memoryCatalogRepository) FindClass(ctx context.Context, id string) (*entity.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.classes[id]; ok {
		return &c, nil
	}
	return nil, nil
}

// DemoCatalog is the seed used by the memory and sqlite backends.
func DemoCatalog() ([]entity.Gym, []entity.Coach, []entity.Class) {
	gyms := []entity.Gym{
		{ID: "gym-1", Name: "Iron Temple", Address: "12 Harbour Road"},
		{ID: "gym-2", Name: "Flow Studio", Address: "4 Canal Street"},
	}
	coaches := []entity.Coach{
		{ID: "coach-1", Name: "Maya Chen", GymID: "gym-1", HourlyRate: 60},
		{ID: "coach-2", Name: "Leo Brandt", GymID: "gym-2", HourlyRate: 45},
	}
	classes := []entity.Class{
		{ID: "class-1", GymID: "gym-1", Name: "Morning HIIT", Kind: entity.BookingKindClass, Price: 15, MaxParticipants: 12},
		{ID: "class-2", GymID: "gym-2", Name: "Vinyasa Flow", Kind: entity.BookingKindClass, Price: 0, MaxParticipants: 2},
		{ID: "program-1", GymID: "gym-1", Name: "8 Week Strength", Kind: entity.BookingKindProgram, Price: 120, MaxParticipants: 20},
	}
	return gyms, coaches, classes
}
