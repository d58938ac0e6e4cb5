package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/cache"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

type fakePermissionRepo struct {
	docs     map[domain.Role]*domain.PermissionDocument
	getCalls int
	getErr   error
}

func newFakePermissionRepo() *fakePermissionRepo {
	return &fakePermissionRepo{docs: make(map[domain.Role]*domain.PermissionDocument)}
}

func (f *fakePermissionRepo) Get(_ context.Context, role domain.Role) (*domain.PermissionDocument, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[role]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *doc
	return &copied, nil
}

func (f *fakePermissionRepo) List(_ context.Context) ([]domain.PermissionDocument, error) {
	out := make([]domain.PermissionDocument, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (f *fakePermissionRepo) Upsert(_ context.Context, doc *domain.PermissionDocument) error {
	copied := *doc
	f.docs[doc.Role] = &copied
	return nil
}

func newPermissionService(repo *fakePermissionRepo) *PermissionService {
	return NewPermissionService(repo, cache.NewPolicyCache(5*time.Minute), zap.NewNop(), nil)
}

func seedSupportDoc(repo *fakePermissionRepo) {
	repo.docs[domain.RoleSupport] = &domain.PermissionDocument{
		Role: domain.RoleSupport,
		Resources: map[string]domain.ResourcePermission{
			"audit_logs": {Actions: []string{"view"}, Scope: domain.ScopeOwn},
			"repairs":    {Actions: []string{"view", "edit", "update_status"}, Scope: domain.ScopeAll},
		},
	}
}

func TestCheckPermissionLiteralAction(t *testing.T) {
	repo := newFakePermissionRepo()
	seedSupportDoc(repo)
	svc := newPermissionService(repo)

	allowed, err := svc.CheckPermission(context.Background(), domain.RoleSupport, "repairs", "update_status")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.CheckPermission(context.Background(), domain.RoleSupport, "repairs", "delete")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestCheckPermissionWildcard(t *testing.T) {
	repo := newFakePermissionRepo()
	repo.docs[domain.RoleAdmin] = &domain.PermissionDocument{
		Role: domain.RoleAdmin,
		Resources: map[string]domain.ResourcePermission{
			"users": {Actions: []string{"*"}},
		},
	}
	svc := newPermissionService(repo)

	for _, action := range []string{"view", "delete", "change_role", "anything"} {
		allowed, err := svc.CheckPermission(context.Background(), domain.RoleAdmin, "users", action)
		require.NoError(t, err)
		require.True(t, allowed, "wildcard must allow %q", action)
	}
}

func TestCheckPermissionFailsClosed(t *testing.T) {
	repo := newFakePermissionRepo()
	svc := newPermissionService(repo)

	// No document at all for the role.
	allowed, err := svc.CheckPermission(context.Background(), domain.RoleCustomer, "users", "view")
	require.NoError(t, err)
	require.False(t, allowed)

	// Resource missing from an existing document.
	seedSupportDoc(repo)
	allowed, err = svc.CheckPermission(context.Background(), domain.RoleSupport, "billing", "view")
	require.NoError(t, err)
	require.False(t, allowed)

	// Empty action list.
	repo.docs[domain.RoleSupport].Resources["billing"] = domain.ResourcePermission{Actions: []string{}}
	svc = newPermissionService(repo)
	allowed, err = svc.CheckPermission(context.Background(), domain.RoleSupport, "billing", "view")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestCheckPermissionStoreErrorDenies(t *testing.T) {
	repo := newFakePermissionRepo()
	repo.getErr = errors.New("store unavailable")
	svc := newPermissionService(repo)

	allowed, err := svc.CheckPermission(context.Background(), domain.RoleAdmin, "users", "view")
	require.Error(t, err)
	require.False(t, allowed)
}

func TestGetRolePermissionsUsesCache(t *testing.T) {
	repo := newFakePermissionRepo()
	seedSupportDoc(repo)
	svc := newPermissionService(repo)

	_, err := svc.GetRolePermissions(context.Background(), domain.RoleSupport)
	require.NoError(t, err)
	_, err = svc.GetRolePermissions(context.Background(), domain.RoleSupport)
	require.NoError(t, err)

	require.Equal(t, 1, repo.getCalls, "second read must be served from cache")
}

func TestUpsertInvalidatesCacheImmediately(t *testing.T) {
	repo := newFakePermissionRepo()
	seedSupportDoc(repo)
	svc := newPermissionService(repo)

	allowed, err := svc.CheckPermission(context.Background(), domain.RoleSupport, "repairs", "delete")
	require.NoError(t, err)
	require.False(t, allowed)

	updated := map[string]domain.ResourcePermission{
		"repairs": {Actions: []string{"view", "delete"}, Scope: domain.ScopeAll},
	}
	_, err = svc.UpsertRolePermissions(context.Background(), domain.RoleSupport, "updated", updated)
	require.NoError(t, err)

	// The new grant takes effect on the next check, well inside the TTL.
	allowed, err = svc.CheckPermission(context.Background(), domain.RoleSupport, "repairs", "delete")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestUpsertRejectsUnknownRole(t *testing.T) {
	svc := newPermissionService(newFakePermissionRepo())
	_, err := svc.UpsertRolePermissions(context.Background(), domain.Role("superuser"), "", nil)
	require.Error(t, err)
}
