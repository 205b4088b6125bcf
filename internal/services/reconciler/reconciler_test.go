package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/teamgate/internal/lib/clock"
	"github.com/magabrotheeeer/teamgate/internal/models"
	"github.com/magabrotheeeer/teamgate/internal/provider"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) FindExpiredActiveSubscriptions(ctx context.Context, now time.Time) ([]*models.ExpiredEntry, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExpiredEntry), args.Error(1)
}

func (m *MockRepo) MarkKicked(ctx context.Context, subscriptionID, userID int64) error {
	args := m.Called(ctx, subscriptionID, userID)
	return args.Error(0)
}

func (m *MockRepo) PutSetting(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUser(msg models.UserNotification) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockNotifier) NotifyOperator(event models.OperatorEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Probe(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProvider) ListMembers(ctx context.Context) ([]models.MemberView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MemberView), args.Error(1)
}

func (m *MockProvider) RemoveMember(ctx context.Context, email string) (provider.RemoveResult, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(provider.RemoveResult), args.Error(1)
}

func (m *MockProvider) InviteMember(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) Acquire(ctx context.Context) (provider.MembershipProvider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(provider.MembershipProvider), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func entry(userID, subID int64, email string, telegramID int64, endDate time.Time) *models.ExpiredEntry {
	return &models.ExpiredEntry{
		User: models.User{
			ID:         userID,
			TelegramID: telegramID,
			Email:      email,
			Status:     models.UserStatusActive,
		},
		Subscription: models.Subscription{
			ID:      subID,
			UserID:  userID,
			EndDate: endDate,
			Status:  models.SubscriptionStatusActive,
		},
	}
}

func TestRun_KicksExpiredMember(t *testing.T) {
	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)
	expired := entry(1, 10, "u1@example.com", 777, now.Add(-36*time.Hour))

	repo := new(MockRepo)
	notifier := new(MockNotifier)
	prov := new(MockProvider)
	factory := new(MockFactory)

	factory.On("Acquire", mock.Anything).Return(prov, nil)
	repo.On("FindExpiredActiveSubscriptions", mock.Anything, now).
		Return([]*models.ExpiredEntry{expired}, nil)
	prov.On("RemoveMember", mock.Anything, "u1@example.com").Return(provider.Removed, nil)
	repo.On("MarkKicked", mock.Anything, int64(10), int64(1)).Return(nil)
	repo.On("PutSetting", mock.Anything, models.SettingLastSyncAt, mock.Anything).Return(nil)
	notifier.On("NotifyUser", mock.MatchedBy(func(msg models.UserNotification) bool {
		return msg.TelegramID == 777 && msg.Text != ""
	})).Return(nil)
	notifier.On("NotifyOperator", mock.Anything).Return(nil)

	svc := NewReconcilerService(repo, factory, notifier, clock.Fixed{Moment: now}, time.UTC, newNoopLogger())
	summary, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Removed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Processed())
	repo.AssertExpectations(t)
	prov.AssertExpectations(t)
	notifier.AssertCalled(t, "NotifyOperator", mock.MatchedBy(func(ev models.OperatorEvent) bool {
		return ev.Severity == models.SeverityInfo && ev.Text == "Kicked: 1, failed: 0"
	}))
}

func TestRun_EmptyCandidateSet(t *testing.T) {
	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)

	repo := new(MockRepo)
	notifier := new(MockNotifier)
	prov := new(MockProvider)
	factory := new(MockFactory)

	factory.On("Acquire", mock.Anything).Return(prov, nil)
	repo.On("FindExpiredActiveSubscriptions", mock.Anything, now).
		Return([]*models.ExpiredEntry{}, nil)

	svc := NewReconcilerService(repo, factory, notifier, clock.Fixed{Moment: now}, time.UTC, newNoopLogger())
	summary, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed())
	repo.AssertNotCalled(t, "MarkKicked", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "NotifyUser", mock.Anything)
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)
	entries := []*models.ExpiredEntry{
		entry(1, 10, "a@example.com", 1, now.Add(-time.Hour)),
		entry(2, 20, "b@example.com", 2, now.Add(-time.Hour)),
		entry(3, 30, "c@example.com", 3, now.Add(-time.Hour)),
	}

	repo := new(MockRepo)
	notifier := new(MockNotifier)
	prov := new(MockProvider)
	factory := new(MockFactory)

	factory.On("Acquire", mock.Anything).Return(prov, nil)
	repo.On("FindExpiredActiveSubscriptions", mock.Anything, now).Return(entries, nil)
	prov.On("RemoveMember", mock.Anything, "a@example.com").Return(provider.Removed, nil)
	prov.On("RemoveMember", mock.Anything, "b@example.com").
		Return(provider.Removed, provider.ErrActionFailed)
	prov.On("RemoveMember", mock.Anything, "c@example.com").Return(provider.Removed, nil)
	repo.On("MarkKicked", mock.Anything, int64(10), int64(1)).Return(nil)
	repo.On("MarkKicked", mock.Anything, int64(30), int64(3)).Return(nil)
	repo.On("PutSetting", mock.Anything, models.SettingLastSyncAt, mock.Anything).Return(nil)
	notifier.On("NotifyUser", mock.Anything).Return(nil)
	notifier.On("NotifyOperator", mock.Anything).Return(nil)

	svc := NewReconcilerService(repo, factory, notifier, clock.Fixed{Moment: now}, time.UTC, newNoopLogger())
	summary, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Removed)
	assert.Equal(t, 1, summary.Failed)
	// упавшая строка не должна быть помечена локально
	repo.AssertNotCalled(t, "MarkKicked", mock.Anything, int64(20), int64(2))
}

func TestRun_NotFoundIsSuccess(t *testing.T) {
	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)
	expired := entry(1, 10, "gone@example.com", 5, now.Add(-time.Hour))

	repo := new(MockRepo)
	notifier := new(MockNotifier)
	prov := new(MockProvider)
	factory := new(MockFactory)

	factory.On("Acquire", mock.Anything).Return(prov, nil)
	repo.On("FindExpiredActiveSubscriptions", mock.Anything, now).
		Return([]*models.ExpiredEntry{expired}, nil)
	prov.On("RemoveMember", mock.Anything, "gone@example.com").Return(provider.NotFound, nil)
	repo.On("MarkKicked", mock.Anything, int64(10), int64(1)).Return(nil)
	repo.On("PutSetting", mock.Anything, models.SettingLastSyncAt, mock.Anything).Return(nil)
	notifier.On("NotifyOperator", mock.Anything).Return(nil)

	svc := NewReconcilerService(repo, factory, notifier, clock.Fixed{Moment: now}, time.UTC, newNoopLogger())
	summary, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Removed)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 1, summary.Processed())
	repo.AssertCalled(t, "MarkKicked", mock.Anything, int64(10), int64(1))
	// пользователь отсутствовал снаружи, уведомлять его не о чем
	notifier.AssertNotCalled(t, "NotifyUser", mock.Anything)
}

func TestRun_SessionExpiredOnAcquire(t *testing.T) {
	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)

	repo := new(MockRepo)
	notifier := new(MockNotifier)
	factory := new(MockFactory)

	factory.On("Acquire", mock.Anything).Return(nil, provider.ErrSessionExpired)
	notifier.On("NotifyOperator", mock.MatchedBy(func(ev models.OperatorEvent) bool {
		return ev.Severity == models.SeverityAlert
	})).Return(nil)

	svc := NewReconcilerService(repo, factory, notifier, clock.Fixed{Moment: now}, time.UTC, newNoopLogger())
	summary, err := svc.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrSessionExpired)
	assert.Equal(t, 0, summary.Processed())
	// короткое замыкание: ни одной мутации состояния
	repo.AssertNotCalled(t, "FindExpiredActiveSubscriptions", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkKicked", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertExpectations(t)
}

func TestRun_SessionExpiredMidPass(t *testing.T) {
	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)
	entries := []*models.ExpiredEntry{
		entry(1, 10, "a@example.com", 1, now.Add(-time.Hour)),
		entry(2, 20, "b@example.com", 2, now.Add(-time.Hour)),
	}

	repo := new(MockRepo)
	notifier := new(MockNotifier)
	prov := new(MockProvider)
	factory := new(MockFactory)

	factory.On("Acquire", mock.Anything).Return(prov, nil)
	repo.On("FindExpiredActiveSubscriptions", mock.Anything, now).Return(entries, nil)
	prov.On("RemoveMember", mock.Anything, "a@example.com").Return(provider.Removed, nil)
	prov.On("RemoveMember", mock.Anything, "b@example.com").
		Return(provider.Removed, provider.ErrSessionExpired)
	repo.On("MarkKicked", mock.Anything, int64(10), int64(1)).Return(nil)
	notifier.On("NotifyUser", mock.Anything).Return(nil)
	notifier.On("NotifyOperator", mock.Anything).Return(nil)

	svc := NewReconcilerService(repo, factory, notifier, clock.Fixed{Moment: now}, time.UTC, newNoopLogger())
	summary, err := svc.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrSessionExpired)
	// первая строка обработана и зафиксирована до обрыва
	assert.Equal(t, 1, summary.Removed)
	repo.AssertNotCalled(t, "MarkKicked", mock.Anything, int64(20), int64(2))
}

func TestRun_MarkKickedFailureAbortsPass(t *testing.T) {
	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)
	expired := entry(1, 10, "u1@example.com", 1, now.Add(-time.Hour))

	repo := new(MockRepo)
	notifier := new(MockNotifier)
	prov := new(MockProvider)
	factory := new(MockFactory)

	factory.On("Acquire", mock.Anything).Return(prov, nil)
	repo.On("FindExpiredActiveSubscriptions", mock.Anything, now).
		Return([]*models.ExpiredEntry{expired}, nil)
	prov.On("RemoveMember", mock.Anything, "u1@example.com").Return(provider.Removed, nil)
	repo.On("MarkKicked", mock.Anything, int64(10), int64(1)).
		Return(errors.New("connection refused"))

	svc := NewReconcilerService(repo, factory, notifier, clock.Fixed{Moment: now}, time.UTC, newNoopLogger())
	_, err := svc.Run(context.Background())

	require.Error(t, err)
	notifier.AssertNotCalled(t, "NotifyUser", mock.Anything)
}

func TestRun_SecondRunFindsNothing(t *testing.T) {
	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)
	expired := entry(1, 10, "u1@example.com", 1, now.Add(-time.Hour))

	repo := new(MockRepo)
	notifier := new(MockNotifier)
	prov := new(MockProvider)
	factory := new(MockFactory)

	factory.On("Acquire", mock.Anything).Return(prov, nil)
	repo.On("FindExpiredActiveSubscriptions", mock.Anything, now).
		Return([]*models.ExpiredEntry{expired}, nil).Once()
	repo.On("FindExpiredActiveSubscriptions", mock.Anything, now).
		Return([]*models.ExpiredEntry{}, nil).Once()
	prov.On("RemoveMember", mock.Anything, "u1@example.com").Return(provider.Removed, nil).Once()
	repo.On("MarkKicked", mock.Anything, int64(10), int64(1)).Return(nil).Once()
	repo.On("PutSetting", mock.Anything, models.SettingLastSyncAt, mock.Anything).Return(nil)
	notifier.On("NotifyUser", mock.Anything).Return(nil)
	notifier.On("NotifyOperator", mock.Anything).Return(nil)

	svc := NewReconcilerService(repo, factory, notifier, clock.Fixed{Moment: now}, time.UTC, newNoopLogger())

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Removed)

	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed())
	prov.AssertNumberOfCalls(t, "RemoveMember", 1)
}
