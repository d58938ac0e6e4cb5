package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/events"
	"github.com/spec-kit/gadgetcloud-admin/internal/observability"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
	"github.com/spec-kit/gadgetcloud-admin/internal/validation"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

// Actor identifies the administrator performing a lifecycle operation.
// Identity is supplied by the authentication layer and not re-verified here.
type Actor struct {
	ID    string
	Email string
}

// AuditTrail is the slice of the audit service the lifecycle manager needs.
type AuditTrail interface {
	LogEvent(ctx context.Context, input AuditInput) (string, error)
	GetUserAuditHistory(ctx context.Context, userID string, limit int, includeAsActor, includeAsTarget bool) ([]domain.AuditEvent, error)
}

// AdminUserService enforces guarded transitions on a user's role and status.
// Every accepted mutation is persisted first and then audited; the pair is
// one logical unit even though the store offers no cross-write transaction.
type AdminUserService struct {
	users      repository.UserRepository
	audit      AuditTrail
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AdminUserDependencies bundles requirements for the service.
type AdminUserDependencies struct {
	UserRepo   repository.UserRepository
	Audit      AuditTrail
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAdminUserService constructs the service.
func NewAdminUserService(deps AdminUserDependencies) *AdminUserService {
	return &AdminUserService{
		users:      deps.UserRepo,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// ChangeRole moves a user to a new role. Guards: role must be valid, the
// reason must carry at least 10 trimmed characters, admins cannot change
// their own role, and assigning the current role is rejected as a no-op.
func (s *AdminUserService) ChangeRole(ctx context.Context, userID string, newRole domain.Role, actor Actor, reason string) (*domain.User, error) {
	if !domain.IsValidRole(newRole) {
		return nil, errInvalidRole(newRole)
	}
	if err := validateReason(reason); err != nil {
		return nil, err
	}
	if userID == actor.ID {
		return nil, apperrors.NewValidationError("cannot change your own role", nil)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldRole := user.Role
	if oldRole == newRole {
		return nil, apperrors.NewValidationError(fmt.Sprintf("user already has role: %s", newRole), nil)
	}

	cs := newChangeSet()
	cs.setRole(oldRole, newRole, actor.ID)

	if err := s.users.ApplyUpdate(ctx, userID, cs.update); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(reason)
	if err := s.recordAudit(ctx, domain.EventUserRoleChanged, actor, user, cs.changes, &trimmed); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRoleChanged, userID, actor, events.RoleChangedPayload{
		OldRole: oldRole,
		NewRole: newRole,
		Reason:  trimmed,
	})

	s.logger.Info("role changed",
		zap.String("target_email", user.Email),
		zap.String("old_role", string(oldRole)),
		zap.String("new_role", string(newRole)),
		zap.String("actor_email", actor.Email))

	return s.getUser(ctx, userID)
}

// Deactivate sets status to inactive. Guards: the target must exist, another
// admin cannot be deactivated, self-deactivation is forbidden, and an already
// inactive user is rejected as a no-op.
func (s *AdminUserService) Deactivate(ctx context.Context, userID string, actor Actor, reason *string) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Role == domain.RoleAdmin && userID != actor.ID {
		return nil, apperrors.NewValidationError("cannot deactivate another admin user", nil)
	}
	if userID == actor.ID {
		return nil, apperrors.NewValidationError("cannot deactivate your own account", nil)
	}

	oldStatus := user.Status
	if oldStatus == domain.UserStatusInactive {
		return nil, apperrors.NewValidationError("user is already inactive", nil)
	}

	cs := newChangeSet()
	cs.setStatus(oldStatus, domain.UserStatusInactive, actor.ID)

	if err := s.users.ApplyUpdate(ctx, userID, cs.update); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, domain.EventUserDeactivated, actor, user, cs.changes, reason); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserDeactivated, userID, actor, events.StatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: domain.UserStatusInactive,
		Reason:    derefOrEmpty(reason),
	})

	s.logger.Info("user deactivated",
		zap.String("target_email", user.Email),
		zap.String("actor_email", actor.Email))

	return s.getUser(ctx, userID)
}

// Reactivate sets status back to active. An already active user is rejected
// as a no-op so repeated calls cannot produce duplicate audit events.
func (s *AdminUserService) Reactivate(ctx context.Context, userID string, actor Actor, reason *string) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldStatus := user.Status
	if oldStatus == domain.UserStatusActive {
		return nil, apperrors.NewValidationError("user is already active", nil)
	}

	cs := newChangeSet()
	cs.setStatus(oldStatus, domain.UserStatusActive, actor.ID)

	if err := s.users.ApplyUpdate(ctx, userID, cs.update); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, domain.EventUserReactivated, actor, user, cs.changes, reason); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserReactivated, userID, actor, events.StatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: domain.UserStatusActive,
		Reason:    derefOrEmpty(reason),
	})

	s.logger.Info("user reactivated",
		zap.String("target_email", user.Email),
		zap.String("actor_email", actor.Email))

	return s.getUser(ctx, userID)
}

// UpdateUserInput carries the optional fields of a combined admin update.
type UpdateUserInput struct {
	Name   *string
	Mobile *string
	Role   *domain.Role
	Status *domain.UserStatus
	Reason *string
}

// UpdateUser applies a combined profile/role/status update. Only fields that
// actually differ from current values are written; role and status changes go
// through the same guards as the dedicated operations, and all changed fields
// land in a single audit record.
func (s *AdminUserService) UpdateUser(ctx context.Context, userID string, actor Actor, input UpdateUserInput) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	roleChanging := input.Role != nil && *input.Role != user.Role
	statusChanging := input.Status != nil && *input.Status != user.Status

	if roleChanging || statusChanging {
		if input.Reason == nil {
			return nil, apperrors.NewValidationError("reason is required (minimum 10 characters) when changing role or status", nil)
		}
		if err := validateReason(*input.Reason); err != nil {
			return nil, err
		}
	}

	cs := newChangeSet()

	if input.Name != nil {
		firstName, lastName, err := splitName(*input.Name)
		if err != nil {
			return nil, err
		}
		if firstName != user.FirstName || lastName != user.LastName {
			cs.setName(user.Name, strings.TrimSpace(*input.Name), firstName, lastName)
		}
	}

	if input.Mobile != nil {
		normalized, err := validation.NormalizeMobile(*input.Mobile)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		if normalized != user.Mobile {
			cs.setMobile(user.Mobile, normalized)
		}
	}

	if roleChanging {
		if !domain.IsValidRole(*input.Role) {
			return nil, errInvalidRole(*input.Role)
		}
		if userID == actor.ID {
			return nil, apperrors.NewValidationError("cannot change your own role", nil)
		}
		cs.setRole(user.Role, *input.Role, actor.ID)
	}

	if statusChanging {
		if !domain.IsValidStatus(*input.Status) {
			return nil, errInvalidStatus(*input.Status)
		}
		if *input.Status == domain.UserStatusInactive {
			if user.Role == domain.RoleAdmin && userID != actor.ID {
				return nil, apperrors.NewValidationError("cannot deactivate another admin user", nil)
			}
			if userID == actor.ID {
				return nil, apperrors.NewValidationError("cannot deactivate your own account", nil)
			}
		}
		cs.setStatus(user.Status, *input.Status, actor.ID)
	}

	// Nothing changed: read-only no-op, no write and no audit record.
	if cs.empty() {
		return user, nil
	}

	if err := s.users.ApplyUpdate(ctx, userID, cs.update); err != nil {
		return nil, err
	}

	reason := auditReasonFor(cs, input.Reason)
	if err := s.recordAudit(ctx, cs.eventType(), actor, user, cs.changes, &reason); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserUpdated, userID, actor, events.UserUpdatedPayload{
		ChangedFields: cs.changedFields(),
	})

	s.logger.Info("user updated",
		zap.String("target_email", user.Email),
		zap.String("actor_email", actor.Email),
		zap.Strings("changed_fields", cs.changedFields()))

	return s.getUser(ctx, userID)
}

// ListUsersResult pages the admin user listing.
type ListUsersResult struct {
	Users   []domain.User
	Total   int
	Limit   int
	Offset  int
	HasMore bool
}

// ListUsers returns a filtered, searchable, server-side paginated listing.
func (s *AdminUserService) ListUsers(ctx context.Context, filter repository.UserListFilter) (*ListUsersResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListUsersResult{
		Users:   users,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		HasMore: filter.Offset+filter.Limit < total,
	}, nil
}

// GetUser returns a user together with their recent audit history.
func (s *AdminUserService) GetUser(ctx context.Context, userID string) (*domain.User, []domain.AuditEvent, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.audit.GetUserAuditHistory(ctx, userID, 20, true, true)
	if err != nil {
		return nil, nil, err
	}
	return user, history, nil
}

// Statistics returns dashboard aggregates.
func (s *AdminUserService) Statistics(ctx context.Context) (*repository.UserStats, error) {
	return s.users.Stats(ctx)
}

func (s *AdminUserService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, err
	}
	return user, nil
}

// recordAudit appends the audit record paired with an already persisted
// mutation. A failure here leaves the state change unaudited, which operators
// must be able to see: log at error severity, bump the failure counter and
// surface a distinct error instead of a clean success.
func (s *AdminUserService) recordAudit(ctx context.Context, eventType domain.AuditEventType, actor Actor, target *domain.User, changes map[string]domain.FieldChange, reason *string) error {
	_, err := s.audit.LogEvent(ctx, AuditInput{
		EventType:   eventType,
		ActorID:     actor.ID,
		ActorEmail:  actor.Email,
		TargetID:    &target.ID,
		TargetEmail: &target.Email,
		Changes:     changes,
		Reason:      reason,
	})
	if err != nil {
		s.metrics.RecordAuditWriteFailure()
		s.logger.Error("mutation persisted but audit write failed",
			zap.String("event_type", string(eventType)),
			zap.String("target_id", target.ID),
			zap.String("actor_id", actor.ID),
			zap.Error(err))
		return apperrors.NewAuditWriteFailure(err)
	}
	return nil
}

func (s *AdminUserService) publish(ctx context.Context, eventType events.EventType, userID string, actor Actor, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Actor:     events.Actor{ID: actor.ID, Email: actor.Email},
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// auditReasonFor prefixes the caller-supplied reason with what kind of change
// the combined update performed.
func auditReasonFor(cs *changeSet, reason *string) string {
	base := "User details updated by admin"
	if reason != nil && strings.TrimSpace(*reason) != "" {
		base = strings.TrimSpace(*reason)
	}
	switch {
	case cs.roleChanged && cs.statusChanged:
		return "Role and status changed: " + base
	case cs.roleChanged:
		return "Role changed: " + base
	case cs.statusChanged:
		if cs.newStatus == domain.UserStatusInactive {
			return "User deactivated: " + base
		}
		return "User reactivated: " + base
	default:
		return base
	}
}

func splitName(name string) (string, string, error) {
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) == 0 {
		return "", "", apperrors.NewValidationError("first name is required", nil)
	}
	first := parts[0]
	last := strings.Join(parts[1:], " ")
	return first, last, nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
