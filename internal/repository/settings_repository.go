package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// SettingsRepository stores per-user preference documents.
type SettingsRepository interface {
	Get(ctx context.Context, userID string) (*domain.UserSettings, error)
	Upsert(ctx context.Context, settings *domain.UserSettings) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a Postgres-backed implementation.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	const query = `
        SELECT user_id, notifications, privacy, security, updated_at
        FROM user_settings WHERE user_id=$1`

	var settings domain.UserSettings
	var notifications, privacy, security []byte
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&settings.UserID,
		&notifications,
		&privacy,
		&security,
		&settings.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(notifications, &settings.Notifications); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(privacy, &settings.Privacy); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(security, &settings.Security); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *domain.UserSettings) error {
	notifications, err := json.Marshal(settings.Notifications)
	if err != nil {
		return err
	}
	privacy, err := json.Marshal(settings.Privacy)
	if err != nil {
		return err
	}
	security, err := json.Marshal(settings.Security)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO user_settings (user_id, notifications, privacy, security)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id) DO UPDATE
        SET notifications=EXCLUDED.notifications, privacy=EXCLUDED.privacy,
            security=EXCLUDED.security, updated_at=NOW()
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query, settings.UserID, notifications, privacy, security).
		Scan(&settings.UpdatedAt)
}
