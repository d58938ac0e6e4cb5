package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// AuditRepository stores the append-only audit trail. Records are inserted
// once and never updated or deleted.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	GetByID(ctx context.Context, id string) (*domain.AuditEvent, error)
	List(ctx context.Context, filter domain.AuditFilter, limit, offset int) ([]domain.AuditEvent, error)
	Count(ctx context.Context, filter domain.AuditFilter) (int, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository returns a Postgres-backed implementation.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	var changes, metadata []byte
	var err error
	if event.Changes != nil {
		if changes, err = json.Marshal(event.Changes); err != nil {
			return err
		}
	}
	if event.Metadata != nil {
		if metadata, err = json.Marshal(event.Metadata); err != nil {
			return err
		}
	}

	const query = `
        INSERT INTO audit_logs (id, event_type, actor_id, actor_email, target_id, target_email, changes, reason, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING ts`

	return r.pool.QueryRow(ctx, query,
		event.ID,
		event.EventType,
		event.ActorID,
		event.ActorEmail,
		event.TargetID,
		event.TargetEmail,
		changes,
		event.Reason,
		metadata,
	).Scan(&event.Timestamp)
}

const auditColumns = `id, event_type, actor_id, actor_email, target_id, target_email, changes, reason, metadata, ts`

func (r *auditRepository) GetByID(ctx context.Context, id string) (*domain.AuditEvent, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id=$1`

	var event domain.AuditEvent
	var changes, metadata []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.EventType,
		&event.ActorID,
		&event.ActorEmail,
		&event.TargetID,
		&event.TargetEmail,
		&changes,
		&event.Reason,
		&metadata,
		&event.Timestamp,
	); err != nil {
		return nil, err
	}
	if err := unmarshalAuditJSON(&event, changes, metadata); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *auditRepository) List(ctx context.Context, filter domain.AuditFilter, limit, offset int) ([]domain.AuditEvent, error) {
	where, args := buildAuditWhere(filter)

	args = append(args, limit)
	limitArg := len(args)
	args = append(args, offset)
	offsetArg := len(args)

	query := fmt.Sprintf(`SELECT %s FROM audit_logs WHERE %s ORDER BY ts DESC LIMIT $%d OFFSET $%d`,
		auditColumns, where, limitArg, offsetArg)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var changes, metadata []byte
		if err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.ActorID,
			&event.ActorEmail,
			&event.TargetID,
			&event.TargetEmail,
			&changes,
			&event.Reason,
			&metadata,
			&event.Timestamp,
		); err != nil {
			return nil, err
		}
		if err := unmarshalAuditJSON(&event, changes, metadata); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *auditRepository) Count(ctx context.Context, filter domain.AuditFilter) (int, error) {
	where, args := buildAuditWhere(filter)
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs WHERE "+where, args...).Scan(&count)
	return count, err
}

func buildAuditWhere(filter domain.AuditFilter) (string, []any) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.EventType != nil {
		where = append(where, "event_type="+arg(*filter.EventType))
	}
	if filter.ActorID != nil {
		where = append(where, "actor_id="+arg(*filter.ActorID))
	}
	if filter.TargetID != nil {
		where = append(where, "target_id="+arg(*filter.TargetID))
	}
	if filter.From != nil {
		where = append(where, "ts>="+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "ts<="+arg(*filter.To))
	}
	return strings.Join(where, " AND "), args
}

func unmarshalAuditJSON(event *domain.AuditEvent, changes, metadata []byte) error {
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &event.Changes); err != nil {
			return err
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
			return err
		}
	}
	return nil
}
