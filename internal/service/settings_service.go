package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
)

// SettingsService serves per-user preference documents. A user with no stored
// document gets the defaults; the document is only materialized on first write.
type SettingsService struct {
	settings repository.SettingsRepository
	logger   *zap.Logger
}

// NewSettingsService constructs the service.
func NewSettingsService(settings repository.SettingsRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{settings: settings, logger: logger}
}

// Get returns the user's settings, falling back to defaults.
func (s *SettingsService) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	stored, err := s.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultSettings(userID), nil
		}
		return nil, err
	}
	return stored, nil
}

// SettingsPatch carries the sections a user may replace. Nil sections keep
// their current values.
type SettingsPatch struct {
	Notifications map[string]bool
	Privacy       map[string]any
	Security      map[string]any
}

// Update merges the patch over the current (or default) settings and stores
// the result.
func (s *SettingsService) Update(ctx context.Context, userID string, patch SettingsPatch) (*domain.UserSettings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Notifications != nil {
		for key, value := range patch.Notifications {
			current.Notifications[key] = value
		}
	}
	if patch.Privacy != nil {
		for key, value := range patch.Privacy {
			current.Privacy[key] = value
		}
	}
	if patch.Security != nil {
		for key, value := range patch.Security {
			current.Security[key] = value
		}
	}

	if err := s.settings.Upsert(ctx, current); err != nil {
		return nil, err
	}
	s.logger.Info("settings updated", zap.String("user_id", userID))
	return current, nil
}
