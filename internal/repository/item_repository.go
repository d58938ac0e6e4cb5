package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// ItemRepository defines persistence access for customer devices.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id, ownerID string) error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	ListByOwner(ctx context.Context, ownerID string, category *string) ([]domain.Item, error)
}

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns a Postgres-backed implementation.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	const query = `
        INSERT INTO items (id, owner_id, name, category, brand, model, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		item.ID,
		item.OwnerID,
		item.Name,
		item.Category,
		item.Brand,
		item.Model,
		item.Status,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	const query = `
        UPDATE items SET name=$1, category=$2, brand=$3, model=$4, status=$5, updated_at=NOW()
        WHERE id=$6 AND owner_id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		item.Name,
		item.Category,
		item.Brand,
		item.Model,
		item.Status,
		item.ID,
		item.OwnerID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id, ownerID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	const query = `
        SELECT id, owner_id, name, category, brand, model, status, created_at, updated_at
        FROM items WHERE id=$1`

	var item domain.Item
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.Category,
		&item.Brand,
		&item.Model,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ListByOwner(ctx context.Context, ownerID string, category *string) ([]domain.Item, error) {
	query := `
        SELECT id, owner_id, name, category, brand, model, status, created_at, updated_at
        FROM items WHERE owner_id=$1`
	args := []any{ownerID}
	if category != nil {
		query += ` AND category=$2`
		args = append(args, *category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID,
			&item.OwnerID,
			&item.Name,
			&item.Category,
			&item.Brand,
			&item.Model,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
