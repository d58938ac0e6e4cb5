package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/events"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		copied := *u
		repo.users[u.ID] = &copied
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ApplyUpdate(_ context.Context, id string, upd repository.UserUpdate) error {
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.Mobile != nil {
		user.Mobile = *upd.Mobile
	}
	if upd.PasswordHash != nil {
		user.PasswordHash = *upd.PasswordHash
	}
	if upd.Role != nil {
		user.Role = *upd.Role
		user.PreviousRole = upd.PreviousRole
		user.RoleChangedAt = &now
		user.RoleChangedBy = upd.RoleChangedBy
	}
	if upd.Status != nil {
		user.Status = *upd.Status
		user.StatusChangedAt = &now
		user.StatusChangedBy = upd.StatusChangedBy
	}
	user.UpdatedAt = now
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, _ repository.UserListFilter) ([]domain.User, int, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) Stats(_ context.Context) (*repository.UserStats, error) {
	stats := &repository.UserStats{
		ByRole:   map[domain.Role]int{},
		ByStatus: map[domain.UserStatus]int{},
	}
	for _, user := range f.users {
		stats.Total++
		stats.ByRole[user.Role]++
		stats.ByStatus[user.Status]++
	}
	return stats, nil
}

type fakeAudit struct {
	records []AuditInput
	err     error
}

func (f *fakeAudit) LogEvent(_ context.Context, input AuditInput) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.records = append(f.records, input)
	return fmt.Sprintf("audit-%d", len(f.records)), nil
}

func (f *fakeAudit) GetUserAuditHistory(_ context.Context, userID string, limit int, includeAsActor, includeAsTarget bool) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	for i, rec := range f.records {
		asActor := includeAsActor && rec.ActorID == userID
		asTarget := includeAsTarget && rec.TargetID != nil && *rec.TargetID == userID
		if !asActor && !asTarget {
			continue
		}
		out = append(out, domain.AuditEvent{
			ID:        fmt.Sprintf("audit-%d", i+1),
			EventType: rec.EventType,
			ActorID:   rec.ActorID,
			TargetID:  rec.TargetID,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type capturingDispatcher struct {
	published []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func adminFixture() (*AdminUserService, *fakeUserRepo, *fakeAudit, *capturingDispatcher) {
	partnerRole := domain.RolePartner
	repo := newFakeUserRepo(
		&domain.User{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin, Status: domain.UserStatusActive},
		&domain.User{ID: "admin-2", Email: "admin2@example.com", Role: domain.RoleAdmin, Status: domain.UserStatusActive},
		&domain.User{ID: "user-7", Email: "ravi@example.com", Name: "Ravi Kumar", FirstName: "Ravi", LastName: "Kumar", Role: domain.RoleCustomer, Status: domain.UserStatusActive},
		&domain.User{ID: "user-8", Email: "meera@example.com", Role: domain.RoleSupport, Status: domain.UserStatusInactive, PreviousRole: &partnerRole},
	)
	audit := &fakeAudit{}
	dispatcher := &capturingDispatcher{}
	svc := NewAdminUserService(AdminUserDependencies{
		UserRepo:   repo,
		Audit:      audit,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return svc, repo, audit, dispatcher
}

var testActor = Actor{ID: "admin-1", Email: "admin@example.com"}

func TestChangeRoleHappyPath(t *testing.T) {
	svc, repo, audit, dispatcher := adminFixture()

	user, err := svc.ChangeRole(context.Background(), "user-7", domain.RolePartner, testActor, "promoted to service partner after verification")
	require.NoError(t, err)

	require.Equal(t, domain.RolePartner, user.Role)
	require.NotNil(t, user.PreviousRole)
	require.Equal(t, domain.RoleCustomer, *user.PreviousRole)
	require.NotNil(t, user.RoleChangedBy)
	require.Equal(t, "admin-1", *user.RoleChangedBy)
	require.NotNil(t, user.RoleChangedAt)

	require.Len(t, audit.records, 1)
	rec := audit.records[0]
	require.Equal(t, domain.EventUserRoleChanged, rec.EventType)
	require.Equal(t, "admin-1", rec.ActorID)
	require.Equal(t, "user-7", *rec.TargetID)
	require.Equal(t, domain.FieldChange{Old: "customer", New: "partner"}, rec.Changes["role"])

	require.Len(t, dispatcher.published, 1)
	require.Equal(t, events.EventUserRoleChanged, dispatcher.published[0].Type)

	stored := repo.users["user-7"]
	require.Equal(t, domain.RolePartner, stored.Role)
}

func TestChangeRoleReasonBoundary(t *testing.T) {
	svc, _, audit, _ := adminFixture()

	// 9 trimmed characters rejects.
	_, err := svc.ChangeRole(context.Background(), "user-7", domain.RolePartner, testActor, "  123456789  ")
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))
	require.Empty(t, audit.records)

	// 10 trimmed characters proceeds.
	_, err = svc.ChangeRole(context.Background(), "user-7", domain.RolePartner, testActor, "  1234567890  ")
	require.NoError(t, err)
	require.Len(t, audit.records, 1)
	require.Equal(t, "1234567890", *audit.records[0].Reason, "stored reason is trimmed")
}

func TestChangeRoleGuards(t *testing.T) {
	svc, _, audit, _ := adminFixture()
	ctx := context.Background()
	reason := "a sufficiently long reason"

	_, err := svc.ChangeRole(ctx, "user-7", domain.Role("superuser"), testActor, reason)
	require.True(t, apperrors.IsValidation(err), "invalid role")

	_, err = svc.ChangeRole(ctx, "admin-1", domain.RoleSupport, testActor, reason)
	require.True(t, apperrors.IsValidation(err), "self role change")

	_, err = svc.ChangeRole(ctx, "ghost", domain.RoleSupport, testActor, reason)
	require.True(t, apperrors.IsNotFound(err), "missing target")

	_, err = svc.ChangeRole(ctx, "user-7", domain.RoleCustomer, testActor, reason)
	require.True(t, apperrors.IsValidation(err), "same-role no-op")

	require.Empty(t, audit.records, "rejected calls must not write audit records")
}

func TestDeactivateGuards(t *testing.T) {
	svc, _, audit, _ := adminFixture()
	ctx := context.Background()

	_, err := svc.Deactivate(ctx, "admin-2", testActor, nil)
	require.True(t, apperrors.IsValidation(err), "cannot deactivate another admin")

	_, err = svc.Deactivate(ctx, "admin-1", testActor, nil)
	require.True(t, apperrors.IsValidation(err), "cannot deactivate self, even as admin")

	_, err = svc.Deactivate(ctx, "user-8", testActor, nil)
	require.True(t, apperrors.IsValidation(err), "already inactive")

	require.Empty(t, audit.records)
}

func TestDeactivateHappyPath(t *testing.T) {
	svc, repo, audit, dispatcher := adminFixture()
	reason := "account compromised, locking pending review"

	user, err := svc.Deactivate(context.Background(), "user-7", testActor, &reason)
	require.NoError(t, err)
	require.Equal(t, domain.UserStatusInactive, user.Status)
	require.Equal(t, "admin-1", *user.StatusChangedBy)

	require.Len(t, audit.records, 1)
	require.Equal(t, domain.EventUserDeactivated, audit.records[0].EventType)
	require.Equal(t, domain.UserStatusInactive, repo.users["user-7"].Status)
	require.Len(t, dispatcher.published, 1)
	require.Equal(t, events.EventUserDeactivated, dispatcher.published[0].Type)
}

func TestReactivateIdempotence(t *testing.T) {
	svc, _, audit, dispatcher := adminFixture()
	ctx := context.Background()

	user, err := svc.Reactivate(ctx, "user-8", testActor, nil)
	require.NoError(t, err)
	require.Equal(t, domain.UserStatusActive, user.Status)

	_, err = svc.Reactivate(ctx, "user-8", testActor, nil)
	require.True(t, apperrors.IsValidation(err), "second reactivate is a rejected no-op")

	require.Len(t, audit.records, 1, "exactly one audit event for one effective transition")
	require.Len(t, dispatcher.published, 1)
}

func TestUpdateUserCombinedChangePriority(t *testing.T) {
	svc, _, audit, _ := adminFixture()
	role := domain.RoleSupport
	status := domain.UserStatusInactive
	reason := "role change and lockout in one sweep"

	_, err := svc.UpdateUser(context.Background(), "user-7", testActor, UpdateUserInput{
		Role:   &role,
		Status: &status,
		Reason: &reason,
	})
	require.NoError(t, err)

	require.Len(t, audit.records, 1, "combined update writes a single audit record")
	rec := audit.records[0]
	require.Equal(t, domain.EventUserUpdated, rec.EventType, "role+status together take the generic update type")
	require.Contains(t, rec.Changes, "role")
	require.Contains(t, rec.Changes, "status")
	require.True(t, strings.HasPrefix(*rec.Reason, "Role and status changed:"), "got %q", *rec.Reason)
}

func TestUpdateUserRoleOnlyEventType(t *testing.T) {
	svc, _, audit, _ := adminFixture()
	role := domain.RolePartner
	reason := "verified partner onboarding"

	_, err := svc.UpdateUser(context.Background(), "user-7", testActor, UpdateUserInput{Role: &role, Reason: &reason})
	require.NoError(t, err)

	require.Len(t, audit.records, 1)
	require.Equal(t, domain.EventUserRoleChanged, audit.records[0].EventType)
}

func TestUpdateUserStatusOnlyEventType(t *testing.T) {
	svc, _, audit, _ := adminFixture()
	status := domain.UserStatusInactive
	reason := "temporary suspension for review"

	_, err := svc.UpdateUser(context.Background(), "user-7", testActor, UpdateUserInput{Status: &status, Reason: &reason})
	require.NoError(t, err)

	require.Len(t, audit.records, 1)
	require.Equal(t, domain.EventUserDeactivated, audit.records[0].EventType)
}

func TestUpdateUserRequiresReasonForRoleOrStatus(t *testing.T) {
	svc, _, _, _ := adminFixture()
	role := domain.RolePartner

	_, err := svc.UpdateUser(context.Background(), "user-7", testActor, UpdateUserInput{Role: &role})
	require.True(t, apperrors.IsValidation(err))
}

func TestUpdateUserNoEffectiveChangeIsReadOnly(t *testing.T) {
	svc, _, audit, dispatcher := adminFixture()

	// Same values as stored: no write, no audit record, no event.
	name := "Ravi Kumar"
	role := domain.RoleCustomer
	reason := "routine resubmission of the same values"
	user, err := svc.UpdateUser(context.Background(), "user-7", testActor, UpdateUserInput{
		Name:   &name,
		Role:   &role,
		Reason: &reason,
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleCustomer, user.Role)
	require.Empty(t, audit.records)
	require.Empty(t, dispatcher.published)
}

func TestUpdateUserProfileFields(t *testing.T) {
	svc, repo, audit, _ := adminFixture()
	name := "Ravi K Sharma"
	mobile := "98765 43210"

	user, err := svc.UpdateUser(context.Background(), "user-7", testActor, UpdateUserInput{Name: &name, Mobile: &mobile})
	require.NoError(t, err)

	require.Equal(t, "Ravi K Sharma", user.Name)
	require.Equal(t, "Ravi", user.FirstName)
	require.Equal(t, "K Sharma", user.LastName)
	require.Equal(t, "+919876543210", user.Mobile)

	require.Len(t, audit.records, 1)
	require.Equal(t, domain.EventUserUpdated, audit.records[0].EventType)
	require.Equal(t, "+919876543210", repo.users["user-7"].Mobile)
}

func TestMutationPersistsWhenAuditWriteFails(t *testing.T) {
	svc, repo, audit, _ := adminFixture()
	audit.err = errors.New("audit store down")

	_, err := svc.ChangeRole(context.Background(), "user-7", domain.RolePartner, testActor, "promotion with a broken audit store")
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "AUDIT_WRITE_FAILED", domainErr.Code)

	// The mutation itself is not rolled back.
	require.Equal(t, domain.RolePartner, repo.users["user-7"].Role)
}

func TestGetUserIncludesHistory(t *testing.T) {
	svc, _, _, _ := adminFixture()

	_, err := svc.ChangeRole(context.Background(), "user-7", domain.RolePartner, testActor, "promoted to partner after checks")
	require.NoError(t, err)

	user, history, err := svc.GetUser(context.Background(), "user-7")
	require.NoError(t, err)
	require.Equal(t, "user-7", user.ID)
	require.Len(t, history, 1)
	require.Equal(t, domain.EventUserRoleChanged, history[0].EventType)
}
