package memory

import (
	"context"
	"sync"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/internal/repository"
)

type preferenceRepository struct {
	mu    sync.RWMutex
	prefs map[string]*model.Preferences
}

func NewPreferenceRepository() repository.PreferenceRepository {
	return &preferenceRepository{
		prefs: make(map[string]*model.Preferences),
	}
}

func (r *preferenceRepository) Get(_ context.Context, userID string) (*model.Preferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.prefs[userID]; ok {
		clone := *p
		return &clone, nil
	}
	return model.DefaultPreferences(userID), nil
}

func (r *preferenceRepository) Upsert(_ context.Context, prefs *model.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *prefs
	r.prefs[prefs.UserID] = &clone
	return nil
}
