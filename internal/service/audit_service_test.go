package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

type fakeAuditRepo struct {
	events []domain.AuditEvent
	clock  time.Time
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeAuditRepo) Insert(_ context.Context, event *domain.AuditEvent) error {
	f.clock = f.clock.Add(time.Second)
	event.Timestamp = f.clock
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeAuditRepo) GetByID(_ context.Context, id string) (*domain.AuditEvent, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			copied := f.events[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAuditRepo) List(_ context.Context, filter domain.AuditFilter, limit, offset int) ([]domain.AuditEvent, error) {
	var matched []domain.AuditEvent
	// Newest first, as the store query orders by timestamp descending.
	for i := len(f.events) - 1; i >= 0; i-- {
		event := f.events[i]
		if filter.EventType != nil && event.EventType != *filter.EventType {
			continue
		}
		if filter.ActorID != nil && event.ActorID != *filter.ActorID {
			continue
		}
		if filter.TargetID != nil && (event.TargetID == nil || *event.TargetID != *filter.TargetID) {
			continue
		}
		matched = append(matched, event)
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeAuditRepo) Count(ctx context.Context, filter domain.AuditFilter) (int, error) {
	matched, err := f.List(ctx, filter, len(f.events)+1, 0)
	return len(matched), err
}

func newAuditFixture() (*AuditService, *fakeAuditRepo) {
	repo := newFakeAuditRepo()
	return NewAuditService(repo, zap.NewNop(), nil), repo
}

func strPtr(s string) *string { return &s }

func TestLogEventRoundTrip(t *testing.T) {
	svc, _ := newAuditFixture()
	ctx := context.Background()

	id, err := svc.LogEvent(ctx, AuditInput{
		EventType:   domain.EventUserRoleChanged,
		ActorID:     "admin-1",
		ActorEmail:  "admin@example.com",
		TargetID:    strPtr("user-7"),
		TargetEmail: strPtr("ravi@example.com"),
		Changes:     map[string]domain.FieldChange{"role": {Old: "customer", New: "partner"}},
		Reason:      strPtr("promotion after verification"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := svc.GetAuditLogByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.EventUserRoleChanged, got.EventType)
	require.Equal(t, "admin-1", got.ActorID)
	require.Equal(t, "user-7", *got.TargetID)
	require.Equal(t, "promotion after verification", *got.Reason)
	require.Equal(t, domain.FieldChange{Old: "customer", New: "partner"}, got.Changes["role"])
	require.False(t, got.Timestamp.IsZero())
}

func TestAuditIDsAreUniqueULIDs(t *testing.T) {
	svc, _ := newAuditFixture()
	ctx := context.Background()

	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		id, err := svc.LogEvent(ctx, AuditInput{EventType: domain.EventLoginSuccess, ActorID: "u1"})
		require.NoError(t, err)
		require.Len(t, id, 26)
		_, dup := seen[id]
		require.False(t, dup, "duplicate audit id %s", id)
		seen[id] = struct{}{}
	}
}

func TestGetAuditLogByIDNotFound(t *testing.T) {
	svc, _ := newAuditFixture()
	_, err := svc.GetAuditLogByID(context.Background(), "missing")
	require.Error(t, err)
}

func TestUserHistoryDeduplicatesSelfTargetedEvents(t *testing.T) {
	svc, _ := newAuditFixture()
	ctx := context.Background()

	// One event where the user is both actor and target; it must appear once
	// even though both sub-queries return it.
	_, err := svc.LogEvent(ctx, AuditInput{
		EventType: domain.EventUserPasswordChanged,
		ActorID:   "user-7",
		TargetID:  strPtr("user-7"),
	})
	require.NoError(t, err)

	history, err := svc.GetUserAuditHistory(ctx, "user-7", 50, true, true)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestUserHistoryMergesActorAndTarget(t *testing.T) {
	svc, _ := newAuditFixture()
	ctx := context.Background()

	_, err := svc.LogEvent(ctx, AuditInput{EventType: domain.EventLoginSuccess, ActorID: "user-7"})
	require.NoError(t, err)
	_, err = svc.LogEvent(ctx, AuditInput{EventType: domain.EventUserRoleChanged, ActorID: "admin-1", TargetID: strPtr("user-7")})
	require.NoError(t, err)
	_, err = svc.LogEvent(ctx, AuditInput{EventType: domain.EventLoginSuccess, ActorID: "someone-else"})
	require.NoError(t, err)

	history, err := svc.GetUserAuditHistory(ctx, "user-7", 50, true, true)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Ordered newest first.
	require.Equal(t, domain.EventUserRoleChanged, history[0].EventType)
	require.Equal(t, domain.EventLoginSuccess, history[1].EventType)

	// Actor-only view excludes the role change performed on the user.
	actorOnly, err := svc.GetUserAuditHistory(ctx, "user-7", 50, true, false)
	require.NoError(t, err)
	require.Len(t, actorOnly, 1)
	require.Equal(t, domain.EventLoginSuccess, actorOnly[0].EventType)
}

func TestUserHistoryTruncatesToLimit(t *testing.T) {
	svc, _ := newAuditFixture()
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := svc.LogEvent(ctx, AuditInput{EventType: domain.EventLoginSuccess, ActorID: "user-7"})
		require.NoError(t, err)
	}

	history, err := svc.GetUserAuditHistory(ctx, "user-7", 4, true, true)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i := 1; i < len(history); i++ {
		require.True(t, !history[i-1].Timestamp.Before(history[i].Timestamp))
	}
}

func TestStatisticsCountsPerEventType(t *testing.T) {
	svc, _ := newAuditFixture()
	ctx := context.Background()

	inputs := []AuditInput{
		{EventType: domain.EventUserRoleChanged, ActorID: "a"},
		{EventType: domain.EventUserRoleChanged, ActorID: "a"},
		{EventType: domain.EventUserDeactivated, ActorID: "a"},
		{EventType: domain.EventUserReactivated, ActorID: "a"},
		{EventType: domain.EventPermissionDenied, ActorID: "b"},
		{EventType: domain.EventLoginSuccess, ActorID: "b"},
	}
	for _, input := range inputs {
		_, err := svc.LogEvent(ctx, input)
		require.NoError(t, err)
	}

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.RoleChanges)
	require.Equal(t, 1, stats.Deactivations)
	require.Equal(t, 1, stats.Reactivations)
	require.Equal(t, 1, stats.PermissionDenials)
	require.Equal(t, 6, stats.Total)
}
