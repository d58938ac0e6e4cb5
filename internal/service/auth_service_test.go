package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

type fakeLimiter struct {
	failures map[string]int
	max      int
}

func newFakeLimiter(max int) *fakeLimiter {
	return &fakeLimiter{failures: map[string]int{}, max: max}
}

func (f *fakeLimiter) RegisterFailure(_ context.Context, email string) error {
	f.failures[email]++
	return nil
}

func (f *fakeLimiter) TooManyFailures(_ context.Context, email string) (bool, error) {
	return f.failures[email] >= f.max, nil
}

func (f *fakeLimiter) Reset(_ context.Context, email string) error {
	delete(f.failures, email)
	return nil
}

type fakeIDSource struct{ next int }

func (f *fakeIDSource) NextUserID(context.Context) (string, error) {
	f.next++
	return fmt.Sprintf("uid-%d", f.next), nil
}

func authFixture(t *testing.T, users ...*domain.User) (*AuthService, *fakeUserRepo, *fakeAudit, *fakeLimiter) {
	t.Helper()
	repo := newFakeUserRepo(users...)
	audit := &fakeAudit{}
	limiter := newFakeLimiter(3)
	svc := NewAuthService(AuthDependencies{
		UserRepo:   repo,
		Audit:      audit,
		Tokens:     auth.NewTokenManager("test-secret", 60),
		Limiter:    limiter,
		IDs:        &fakeIDSource{},
		BcryptCost: bcrypt.MinCost,
		Logger:     zap.NewNop(),
	})
	return svc, repo, audit, limiter
}

func activeUser(t *testing.T, id, email, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		Status:       domain.UserStatusActive,
	}
}

func TestSignupCreatesCustomer(t *testing.T) {
	svc, repo, audit, _ := authFixture(t)

	result, err := svc.Signup(context.Background(), SignupInput{
		Email:    "  Ravi@Example.com ",
		Password: "s3cret-pass",
		Name:     "Ravi Kumar",
		Mobile:   "98765 43210",
	})
	require.NoError(t, err)

	require.Equal(t, "ravi@example.com", result.User.Email, "email is lowercased and trimmed")
	require.Equal(t, domain.RoleCustomer, result.User.Role, "signup never grants an elevated role")
	require.Equal(t, domain.UserStatusActive, result.User.Status)
	require.Equal(t, "Ravi", result.User.FirstName)
	require.Equal(t, "Kumar", result.User.LastName)
	require.Equal(t, "+919876543210", result.User.Mobile)
	require.NotEmpty(t, result.Token)

	require.Len(t, audit.records, 1)
	require.Equal(t, domain.EventUserCreated, audit.records[0].EventType)

	stored, err := repo.GetByEmail(context.Background(), "ravi@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", stored.PasswordHash)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc, _, _, _ := authFixture(t, activeUser(t, "u1", "ravi@example.com", "whatever-pass"))

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:    "ravi@example.com",
		Password: "s3cret-pass",
		Name:     "Ravi Kumar",
	})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "CONFLICT", domainErr.Code)
}

func TestSignupValidation(t *testing.T) {
	svc, _, _, _ := authFixture(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Email: "not-an-email", Password: "s3cret-pass", Name: "A B"})
	require.True(t, apperrors.IsValidation(err))

	_, err = svc.Signup(ctx, SignupInput{Email: "a@b.com", Password: "short", Name: "A B"})
	require.True(t, apperrors.IsValidation(err))

	_, err = svc.Signup(ctx, SignupInput{Email: "a@b.com", Password: "s3cret-pass", Name: "A B", Mobile: "12345"})
	require.True(t, apperrors.IsValidation(err))
}

func TestLoginSuccess(t *testing.T) {
	svc, _, audit, limiter := authFixture(t, activeUser(t, "u1", "ravi@example.com", "s3cret-pass"))
	limiter.failures["ravi@example.com"] = 2

	result, err := svc.Login(context.Background(), "Ravi@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, "u1", result.User.ID)
	require.NotEmpty(t, result.Token)

	require.Len(t, audit.records, 1)
	require.Equal(t, domain.EventLoginSuccess, audit.records[0].EventType)
	require.Zero(t, limiter.failures["ravi@example.com"], "success resets the failure counter")
}

func TestLoginWrongPasswordIsGeneric(t *testing.T) {
	svc, _, audit, limiter := authFixture(t, activeUser(t, "u1", "ravi@example.com", "s3cret-pass"))

	_, err := svc.Login(context.Background(), "ravi@example.com", "wrong-pass")
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "UNAUTHORIZED", domainErr.Code)

	// Unknown email yields the identical error so callers cannot probe for
	// registered addresses.
	_, err2 := svc.Login(context.Background(), "ghost@example.com", "wrong-pass")
	var domainErr2 *apperrors.DomainError
	require.ErrorAs(t, err2, &domainErr2)
	require.Equal(t, domainErr.Message, domainErr2.Message)

	require.Len(t, audit.records, 2)
	require.Equal(t, domain.EventLoginFailed, audit.records[0].EventType)
	require.Equal(t, 1, limiter.failures["ravi@example.com"])
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	user := activeUser(t, "u1", "ravi@example.com", "s3cret-pass")
	user.Status = domain.UserStatusInactive
	svc, _, audit, _ := authFixture(t, user)

	_, err := svc.Login(context.Background(), "ravi@example.com", "s3cret-pass")
	require.Error(t, err)
	require.Len(t, audit.records, 1)
	require.Equal(t, domain.EventLoginFailed, audit.records[0].EventType)
}

func TestLoginThrottledAfterRepeatedFailures(t *testing.T) {
	svc, _, _, _ := authFixture(t, activeUser(t, "u1", "ravi@example.com", "s3cret-pass"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, "ravi@example.com", "wrong-pass")
		require.Error(t, err)
	}

	// Even the correct password is refused while the window is exhausted.
	_, err := svc.Login(ctx, "ravi@example.com", "s3cret-pass")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "RATE_LIMITED", domainErr.Code)
}

func TestChangePassword(t *testing.T) {
	svc, repo, audit, _ := authFixture(t, activeUser(t, "u1", "ravi@example.com", "s3cret-pass"))
	ctx := context.Background()

	err := svc.ChangePassword(ctx, "u1", "wrong-pass", "new-s3cret-pass")
	require.True(t, apperrors.IsValidation(err))

	err = svc.ChangePassword(ctx, "u1", "s3cret-pass", "new-s3cret-pass")
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, auth.ComparePassword(stored.PasswordHash, "new-s3cret-pass"))

	require.Len(t, audit.records, 1)
	require.Equal(t, domain.EventUserPasswordChanged, audit.records[0].EventType)
}

func TestRecordPermissionDenied(t *testing.T) {
	svc, _, audit, _ := authFixture(t)

	svc.RecordPermissionDenied(context.Background(), &domain.User{ID: "u1", Email: "a@b.com", Role: domain.RoleSupport}, "users", "delete")

	require.Len(t, audit.records, 1)
	rec := audit.records[0]
	require.Equal(t, domain.EventPermissionDenied, rec.EventType)
	require.Equal(t, "users", rec.Metadata["resource"])
	require.Equal(t, "delete", rec.Metadata["action"])
}
