package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// PermissionRepository is the policy store: one permission document per role.
type PermissionRepository interface {
	Get(ctx context.Context, role domain.Role) (*domain.PermissionDocument, error)
	List(ctx context.Context) ([]domain.PermissionDocument, error)
	Upsert(ctx context.Context, doc *domain.PermissionDocument) error
}

type permissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository returns a Postgres-backed implementation.
func NewPermissionRepository(pool *pgxpool.Pool) PermissionRepository {
	return &permissionRepository{pool: pool}
}

func (r *permissionRepository) Get(ctx context.Context, role domain.Role) (*domain.PermissionDocument, error) {
	const query = `
        SELECT role, description, resources, created_at, updated_at
        FROM role_permissions WHERE role=$1`

	var doc domain.PermissionDocument
	var resources []byte
	if err := r.pool.QueryRow(ctx, query, role).Scan(
		&doc.Role,
		&doc.Description,
		&resources,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resources, &doc.Resources); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *permissionRepository) List(ctx context.Context) ([]domain.PermissionDocument, error) {
	const query = `
        SELECT role, description, resources, created_at, updated_at
        FROM role_permissions ORDER BY role`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.PermissionDocument
	for rows.Next() {
		var doc domain.PermissionDocument
		var resources []byte
		if err := rows.Scan(&doc.Role, &doc.Description, &resources, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(resources, &doc.Resources); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Upsert writes the document with server-assigned timestamps; created_at is
// preserved on update.
func (r *permissionRepository) Upsert(ctx context.Context, doc *domain.PermissionDocument) error {
	resources, err := json.Marshal(doc.Resources)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO role_permissions (role, description, resources)
        VALUES ($1,$2,$3)
        ON CONFLICT (role) DO UPDATE
        SET description=EXCLUDED.description, resources=EXCLUDED.resources, updated_at=NOW()
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query, doc.Role, doc.Description, resources).
		Scan(&doc.CreatedAt, &doc.UpdatedAt)
}
