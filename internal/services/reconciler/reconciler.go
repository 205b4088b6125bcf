// Package services содержит джобу реконсиляции: находит просроченные
// активные подписки, отзывает внешний доступ и приводит локальное
// состояние в соответствие с наблюдаемым состоянием провайдера.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/teamgate/internal/lib/clock"
	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
	"github.com/magabrotheeeer/teamgate/internal/metrics"
	"github.com/magabrotheeeer/teamgate/internal/models"
	"github.com/magabrotheeeer/teamgate/internal/provider"
)

// SubscriptionRepository определяет методы хранилища, нужные джобе.
type SubscriptionRepository interface {
	FindExpiredActiveSubscriptions(ctx context.Context, now time.Time) ([]*models.ExpiredEntry, error)
	MarkKicked(ctx context.Context, subscriptionID, userID int64) error
	PutSetting(ctx context.Context, key, value string) error
}

// Notifier публикует уведомления; сбой публикации не валит проход.
type Notifier interface {
	NotifyUser(msg models.UserNotification) error
	NotifyOperator(event models.OperatorEvent) error
}

// Summary — итог одного прохода.
type Summary struct {
	RunID    string
	Removed  int
	NotFound int
	Failed   int
}

// Processed — количество строк, приведённых в терминальное состояние.
func (s Summary) Processed() int {
	return s.Removed + s.NotFound
}

// ReconcilerService выполняет один проход по просроченным подпискам.
type ReconcilerService struct {
	repo     SubscriptionRepository
	factory  provider.Factory
	notifier Notifier
	clk      clock.Clock
	loc      *time.Location
	log      *slog.Logger
}

// NewReconcilerService создает новый экземпляр ReconcilerService.
func NewReconcilerService(repo SubscriptionRepository, factory provider.Factory,
	notifier Notifier, clk clock.Clock, loc *time.Location, log *slog.Logger) *ReconcilerService {
	return &ReconcilerService{
		repo:     repo,
		factory:  factory,
		notifier: notifier,
		clk:      clk,
		loc:      loc,
		log:      log,
	}
}

// Run выполняет проход. Строки обрабатываются строго последовательно:
// у провайдера одна сессия, параллельные действия по ней небезопасны.
// Статус каждой строки фиксируется сразу после успешного действия,
// поэтому прерывание посреди прохода теряет только необработанный хвост.
func (s *ReconcilerService) Run(ctx context.Context) (Summary, error) {
	const op = "reconciler.Run"
	summary := Summary{RunID: uuid.New().String()}
	log := s.log.With(slog.String("run_id", summary.RunID))

	now := s.clk.Now()
	log.Info("starting reconciliation pass", slog.Time("now", now))

	prov, err := s.factory.Acquire(ctx)
	if err != nil {
		return summary, s.abort(log, fmt.Errorf("%s: %w", op, err))
	}

	entries, err := s.repo.FindExpiredActiveSubscriptions(ctx, now)
	if err != nil {
		metrics.PassesTotal.WithLabelValues("expired", "aborted").Inc()
		return summary, fmt.Errorf("%s: %w", op, err)
	}
	if len(entries) == 0 {
		log.Info("no expired subscriptions found")
		metrics.PassesTotal.WithLabelValues("expired", "ok").Inc()
		return summary, nil
	}
	log.Info("found expired subscriptions", slog.Int("count", len(entries)))

	for _, entry := range entries {
		result, err := prov.RemoveMember(ctx, entry.User.Email)
		if errors.Is(err, provider.ErrSessionExpired) {
			return summary, s.abort(log, fmt.Errorf("%s: %w", op, err))
		}
		if err != nil {
			summary.Failed++
			metrics.RowsFailedTotal.WithLabelValues("expired").Inc()
			log.Error("failed to remove member, row left for retry",
				slog.Int64("user_id", entry.User.ID), sl.Err(err))
			continue
		}

		if result == provider.NotFound {
			log.Warn("member already absent at provider, marking kicked locally",
				slog.Int64("user_id", entry.User.ID))
			summary.NotFound++
		} else {
			summary.Removed++
			metrics.MembersKickedTotal.Inc()
		}

		// фиксация до уведомления, иначе повторный проход продублирует сообщения
		if err := s.repo.MarkKicked(ctx, entry.Subscription.ID, entry.User.ID); err != nil {
			metrics.PassesTotal.WithLabelValues("expired", "aborted").Inc()
			return summary, fmt.Errorf("%s: %w", op, err)
		}

		if result == provider.Removed {
			s.notifyUser(log, entry)
			s.notifyOperator(log, models.SeverityInfo,
				fmt.Sprintf("Kicked: %s (subscription %d)", entry.User.Email, entry.Subscription.ID))
		}
	}

	if err := s.repo.PutSetting(ctx, models.SettingLastSyncAt, now.Format(time.RFC3339)); err != nil {
		log.Warn("failed to store last sync timestamp", sl.Err(err))
	}

	s.notifyOperator(log, models.SeverityInfo,
		fmt.Sprintf("Kicked: %d, failed: %d", summary.Removed, summary.Failed))

	metrics.PassesTotal.WithLabelValues("expired", "ok").Inc()
	log.Info("reconciliation pass finished",
		slog.Int("removed", summary.Removed),
		slog.Int("not_found", summary.NotFound),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

// abort завершает проход по фатальной причине: истёкшая сессия требует
// ручной переавторизации и алертится отдельно от прочих сбоев.
func (s *ReconcilerService) abort(log *slog.Logger, err error) error {
	metrics.PassesTotal.WithLabelValues("expired", "aborted").Inc()
	if errors.Is(err, provider.ErrSessionExpired) {
		metrics.SessionExpiredTotal.Inc()
		s.notifyOperator(log, models.SeverityAlert,
			"Provider session expired: manual re-authentication required, pass aborted")
	}
	log.Error("reconciliation pass aborted", sl.Err(err))
	return err
}

func (s *ReconcilerService) notifyUser(log *slog.Logger, entry *models.ExpiredEntry) {
	text := fmt.Sprintf(
		"Ваша подписка закончилась %s, доступ к команде отключён. Для продления оформите новую подписку.",
		clock.Display(entry.Subscription.EndDate, s.loc))
	err := s.notifier.NotifyUser(models.UserNotification{
		TelegramID: entry.User.TelegramID,
		Text:       text,
	})
	if err != nil {
		log.Warn("failed to publish user notification", slog.Int64("user_id", entry.User.ID), sl.Err(err))
	}
}

func (s *ReconcilerService) notifyOperator(log *slog.Logger, severity, text string) {
	if err := s.notifier.NotifyOperator(models.OperatorEvent{Severity: severity, Text: text}); err != nil {
		log.Warn("failed to publish operator event", sl.Err(err))
	}
}
