package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/events"
	"github.com/spec-kit/gadgetcloud-admin/internal/observability"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
	"github.com/spec-kit/gadgetcloud-admin/internal/validation"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

const minPasswordLength = 8

// UserIDSource issues identifiers for new accounts.
type UserIDSource interface {
	NextUserID(ctx context.Context) (string, error)
}

// LoginLimiter guards against brute-force login attempts. Implementations
// must not lock legitimate users out when the backing store is down.
type LoginLimiter interface {
	RegisterFailure(ctx context.Context, email string) error
	TooManyFailures(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
}

// AuthService handles signup, login and password changes. Every credential
// event lands in the audit trail.
type AuthService struct {
	users      repository.UserRepository
	audit      AuditRecorder
	tokens     *auth.TokenManager
	limiter    LoginLimiter
	ids        UserIDSource
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AuthDependencies bundles requirements for the service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Audit      AuditRecorder
	Tokens     *auth.TokenManager
	Limiter    LoginLimiter
	IDs        UserIDSource
	Dispatcher events.Dispatcher
	BcryptCost int
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		audit:      deps.Audit,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		ids:        deps.IDs,
		dispatcher: deps.Dispatcher,
		bcryptCost: deps.BcryptCost,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// SignupInput carries new account details.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Mobile   string
}

// AuthResult pairs an authenticated user with an issued token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Signup registers a new customer account. Emails are unique,
// case-insensitive. Signup never assigns an elevated role; promotions go
// through the admin lifecycle operations.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("a valid email is required", nil)
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	firstName, lastName, err := splitName(input.Name)
	if err != nil {
		return nil, err
	}
	mobile, err := validation.NormalizeMobile(input.Mobile)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("an account with this email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	id, err := s.ids.NextUserID(ctx)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		FirstName:    firstName,
		LastName:     lastName,
		Mobile:       mobile,
		Role:         domain.RoleCustomer,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.recordAudit(ctx, AuditInput{
		EventType:  domain.EventUserCreated,
		ActorID:    user.ID,
		ActorEmail: user.Email,
		TargetID:   &user.ID,
		Metadata:   map[string]any{"role": user.Role, "signup": true},
	}); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserCreated,
			UserID:    user.ID,
			Actor:     events.Actor{ID: user.ID, Email: user.Email},
			Timestamp: time.Now(),
			Payload:   events.UserCreatedPayload{Email: user.Email, Role: user.Role},
		})
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return s.issueToken(user)
}

// Login verifies credentials and issues a token. Failed attempts land in the
// audit trail and count toward the throttle window; a generic error hides
// whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	blocked, err := s.limiter.TooManyFailures(ctx, email)
	if err != nil {
		s.logger.Warn("login throttle check failed", zap.Error(err))
	}
	if blocked {
		return nil, apperrors.NewDomainError("RATE_LIMITED",
			"too many failed login attempts, try again later", http.StatusTooManyRequests, nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.failLogin(ctx, email, "unknown email")
		}
		return nil, err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.failLogin(ctx, email, "wrong password")
	}
	if user.Status != domain.UserStatusActive {
		return nil, s.failLogin(ctx, email, "account "+string(user.Status))
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.Warn("login throttle reset failed", zap.Error(err))
	}

	if _, err := s.audit.LogEvent(ctx, AuditInput{
		EventType:  domain.EventLoginSuccess,
		ActorID:    user.ID,
		ActorEmail: user.Email,
	}); err != nil {
		// Login succeeded; a missing success record is logged, not fatal.
		s.metrics.RecordAuditWriteFailure()
		s.logger.Error("login succeeded but audit write failed", zap.Error(err))
	}

	s.logger.Info("login succeeded", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return s.issueToken(user)
}

// failLogin records the failure and always returns the same generic error.
func (s *AuthService) failLogin(ctx context.Context, email, detail string) error {
	if err := s.limiter.RegisterFailure(ctx, email); err != nil {
		s.logger.Warn("login throttle update failed", zap.Error(err))
	}
	if _, err := s.audit.LogEvent(ctx, AuditInput{
		EventType:  domain.EventLoginFailed,
		ActorID:    "anonymous",
		ActorEmail: email,
		Metadata:   map[string]any{"detail": detail},
	}); err != nil {
		s.metrics.RecordAuditWriteFailure()
		s.logger.Error("failed login could not be audited", zap.Error(err))
	}
	s.logger.Warn("login failed", zap.String("email", email), zap.String("detail", detail))
	return apperrors.NewUnauthorized("invalid email or password")
}

// ChangePassword verifies the current password before writing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.ApplyUpdate(ctx, userID, repository.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}

	if err := s.recordAudit(ctx, AuditInput{
		EventType:  domain.EventUserPasswordChanged,
		ActorID:    user.ID,
		ActorEmail: user.Email,
		TargetID:   &user.ID,
	}); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

// Profile returns the authenticated user's account.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, err
	}
	return user, nil
}

// RecordPermissionDenied appends an auth.permission_denied event. Used by the
// route guard; failures are logged only, the denial response stands on its own.
func (s *AuthService) RecordPermissionDenied(ctx context.Context, actor *domain.User, resource, action string) {
	if actor == nil {
		return
	}
	if _, err := s.audit.LogEvent(ctx, AuditInput{
		EventType:  domain.EventPermissionDenied,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		Metadata: map[string]any{
			"resource": resource,
			"action":   action,
			"role":     actor.Role,
		},
	}); err != nil {
		s.metrics.RecordAuditWriteFailure()
		s.logger.Error("permission denial could not be audited", zap.Error(err))
	}
}

func (s *AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) recordAudit(ctx context.Context, input AuditInput) error {
	if _, err := s.audit.LogEvent(ctx, input); err != nil {
		s.metrics.RecordAuditWriteFailure()
		s.logger.Error("mutation persisted but audit write failed",
			zap.String("event_type", string(input.EventType)),
			zap.Error(err))
		return apperrors.NewAuditWriteFailure(err)
	}
	return nil
}
