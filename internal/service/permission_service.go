package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/cache"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/observability"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
)

// PermissionService owns the policy store read/write paths and the
// authorization decision. Reads go through the injected PolicyCache; writes
// invalidate it as their final cache operation.
type PermissionService struct {
	permissions repository.PermissionRepository
	cache       *cache.PolicyCache
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewPermissionService constructs the service.
func NewPermissionService(repo repository.PermissionRepository, policyCache *cache.PolicyCache, logger *zap.Logger, metrics *observability.Metrics) *PermissionService {
	return &PermissionService{
		permissions: repo,
		cache:       policyCache,
		logger:      logger,
		metrics:     metrics,
	}
}

// GetRolePermissions returns the permission document for a role, consulting
// the cache before the store. Absence is reported as a nil document, not an
// error, so callers can fail closed.
func (s *PermissionService) GetRolePermissions(ctx context.Context, role domain.Role) (*domain.PermissionDocument, error) {
	if doc, ok := s.cache.Get(role); ok {
		return &doc, nil
	}

	doc, err := s.permissions.Get(ctx, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("no permissions found for role", zap.String("role", string(role)))
			return nil, nil
		}
		return nil, err
	}

	s.cache.Put(role, *doc)
	return doc, nil
}

// CheckPermission reports whether role may perform action on resource.
// A missing document, missing resource entry or empty action list all deny.
// Store failures deny as well; the error is returned alongside so callers can
// distinguish infrastructure trouble from a clean denial.
func (s *PermissionService) CheckPermission(ctx context.Context, role domain.Role, resource, action string) (bool, error) {
	doc, err := s.GetRolePermissions(ctx, role)
	if err != nil {
		s.metrics.RecordPermissionCheck(string(role), false)
		return false, err
	}
	if doc == nil {
		s.metrics.RecordPermissionCheck(string(role), false)
		return false, nil
	}

	perm, ok := doc.Resources[resource]
	allowed := ok && perm.Allows(action)
	s.metrics.RecordPermissionCheck(string(role), allowed)

	if !allowed {
		s.logger.Debug("permission denied",
			zap.String("role", string(role)),
			zap.String("resource", resource),
			zap.String("action", action))
	}
	return allowed, nil
}

// GetAllPermissions reads the full policy store, bypassing the cache. Used by
// admin listing UIs, not the authorization hot path.
func (s *PermissionService) GetAllPermissions(ctx context.Context) ([]domain.PermissionDocument, error) {
	return s.permissions.List(ctx)
}

// UpsertRolePermissions creates or replaces a role's permission document and
// invalidates the whole cache. The invalidation runs after the store write so
// a concurrent stale population cannot outlive it.
func (s *PermissionService) UpsertRolePermissions(ctx context.Context, role domain.Role, description string, resources map[string]domain.ResourcePermission) (*domain.PermissionDocument, error) {
	if !domain.IsValidRole(role) {
		return nil, errInvalidRole(role)
	}

	doc := &domain.PermissionDocument{
		Role:        role,
		Description: description,
		Resources:   resources,
	}
	if err := s.permissions.Upsert(ctx, doc); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Info("role permissions updated", zap.String("role", string(role)))
	return doc, nil
}
