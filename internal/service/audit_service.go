package service

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/observability"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

const maxAuditPageSize = 100

// AuditRecorder is the write side of the audit trail, split out so lifecycle
// services can be tested against a fake.
type AuditRecorder interface {
	LogEvent(ctx context.Context, input AuditInput) (string, error)
}

// AuditInput describes one event to append. Optional fields left nil are
// omitted from the stored record.
type AuditInput struct {
	EventType   domain.AuditEventType
	ActorID     string
	ActorEmail  string
	TargetID    *string
	TargetEmail *string
	Changes     map[string]domain.FieldChange
	Reason      *string
	Metadata    map[string]any
}

// AuditService appends and queries the immutable audit trail.
type AuditService struct {
	audits  repository.AuditRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAuditService constructs the service.
func NewAuditService(repo repository.AuditRepository, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{audits: repo, logger: logger, metrics: metrics}
}

// LogEvent appends an audit record and returns its id. Audit writes are not
// best-effort: a failure here is a hard error the caller must act on.
func (s *AuditService) LogEvent(ctx context.Context, input AuditInput) (string, error) {
	event := &domain.AuditEvent{
		ID:          ulid.Make().String(),
		EventType:   input.EventType,
		ActorID:     input.ActorID,
		ActorEmail:  input.ActorEmail,
		TargetID:    input.TargetID,
		TargetEmail: input.TargetEmail,
		Changes:     input.Changes,
		Reason:      input.Reason,
		Metadata:    input.Metadata,
	}

	if err := s.audits.Insert(ctx, event); err != nil {
		return "", err
	}

	s.metrics.RecordAuditEvent(string(event.EventType))
	s.logger.Info("audit event recorded",
		zap.String("event_type", string(event.EventType)),
		zap.String("actor_email", event.ActorEmail),
		zap.String("audit_id", event.ID))
	return event.ID, nil
}

// GetAuditLogByID returns one record or a not-found error. Actor/target
// fields are exposed so callers can apply actor-only visibility rules.
func (s *AuditService) GetAuditLogByID(ctx context.Context, id string) (*domain.AuditEvent, error) {
	event, err := s.audits.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("audit log", map[string]any{"id": id})
		}
		return nil, err
	}
	return event, nil
}

// GetAuditLogs returns a page of records ordered by timestamp descending.
// Filters are conjunctive. The limit is clamped to 100.
func (s *AuditService) GetAuditLogs(ctx context.Context, filter domain.AuditFilter, limit, offset int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.audits.List(ctx, filter, limit, offset)
}

// GetUserAuditHistory merges actor-matching and target-matching records.
// It runs two independent queries: the store indexes actor and target
// separately, and an OR across both cannot use either index.
func (s *AuditService) GetUserAuditHistory(ctx context.Context, userID string, limit int, includeAsActor, includeAsTarget bool) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	var merged []domain.AuditEvent

	if includeAsActor {
		events, err := s.audits.List(ctx, domain.AuditFilter{ActorID: &userID}, limit, 0)
		if err != nil {
			return nil, err
		}
		merged = append(merged, events...)
	}
	if includeAsTarget {
		events, err := s.audits.List(ctx, domain.AuditFilter{TargetID: &userID}, limit, 0)
		if err != nil {
			return nil, err
		}
		merged = append(merged, events...)
	}

	seen := make(map[string]struct{}, len(merged))
	unique := merged[:0]
	for _, event := range merged {
		if _, dup := seen[event.ID]; dup {
			continue
		}
		seen[event.ID] = struct{}{}
		unique = append(unique, event)
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Timestamp.After(unique[j].Timestamp)
	})

	if len(unique) > limit {
		unique = unique[:limit]
	}
	return unique, nil
}

// CountAuditLogs counts matching records server-side.
func (s *AuditService) CountAuditLogs(ctx context.Context, filter domain.AuditFilter) (int, error) {
	return s.audits.Count(ctx, filter)
}

// AuditStatistics aggregates dashboard counts per major event type.
type AuditStatistics struct {
	RoleChanges       int `json:"roleChanges"`
	Deactivations     int `json:"deactivations"`
	Reactivations     int `json:"reactivations"`
	PermissionDenials int `json:"permissionDenials"`
	Total             int `json:"total"`
}

// Statistics returns dashboard aggregates.
func (s *AuditService) Statistics(ctx context.Context) (*AuditStatistics, error) {
	stats := &AuditStatistics{}
	counts := []struct {
		eventType domain.AuditEventType
		dest      *int
	}{
		{domain.EventUserRoleChanged, &stats.RoleChanges},
		{domain.EventUserDeactivated, &stats.Deactivations},
		{domain.EventUserReactivated, &stats.Reactivations},
		{domain.EventPermissionDenied, &stats.PermissionDenials},
	}
	for _, c := range counts {
		et := c.eventType
		n, err := s.audits.Count(ctx, domain.AuditFilter{EventType: &et})
		if err != nil {
			return nil, err
		}
		*c.dest = n
	}
	total, err := s.audits.Count(ctx, domain.AuditFilter{})
	if err != nil {
		return nil, err
	}
	stats.Total = total
	return stats, nil
}
