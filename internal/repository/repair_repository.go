package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// RepairRepository defines persistence access for repair bookings.
type RepairRepository interface {
	Create(ctx context.Context, repair *domain.Repair) error
	GetByID(ctx context.Context, id string) (*domain.Repair, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Repair, error)
}

type repairRepository struct {
	pool *pgxpool.Pool
}

// NewRepairRepository returns a Postgres-backed implementation.
func NewRepairRepository(pool *pgxpool.Pool) RepairRepository {
	return &repairRepository{pool: pool}
}

func (r *repairRepository) Create(ctx context.Context, repair *domain.Repair) error {
	const query = `
        INSERT INTO repairs (id, item_id, owner_id, issue, status, preferred_date)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		repair.ID,
		repair.ItemID,
		repair.OwnerID,
		repair.Issue,
		repair.Status,
		repair.PreferredDate,
	).Scan(&repair.CreatedAt, &repair.UpdatedAt)
}

func (r *repairRepository) GetByID(ctx context.Context, id string) (*domain.Repair, error) {
	const query = `
        SELECT id, item_id, owner_id, issue, status, preferred_date, estimated_completion, created_at, updated_at
        FROM repairs WHERE id=$1`

	var repair domain.Repair
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&repair.ID,
		&repair.ItemID,
		&repair.OwnerID,
		&repair.Issue,
		&repair.Status,
		&repair.PreferredDate,
		&repair.EstimatedCompletion,
		&repair.CreatedAt,
		&repair.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &repair, nil
}

func (r *repairRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Repair, error) {
	const query = `
        SELECT id, item_id, owner_id, issue, status, preferred_date, estimated_completion, created_at, updated_at
        FROM repairs WHERE owner_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repairs []domain.Repair
	for rows.Next() {
		var repair domain.Repair
		if err := rows.Scan(
			&repair.ID,
			&repair.ItemID,
			&repair.OwnerID,
			&repair.Issue,
			&repair.Status,
			&repair.PreferredDate,
			&repair.EstimatedCompletion,
			&repair.CreatedAt,
			&repair.UpdatedAt,
		); err != nil {
			return nil, err
		}
		repairs = append(repairs, repair)
	}
	return repairs, rows.Err()
}
