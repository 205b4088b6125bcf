// Package services содержит джобу отзыва протухших приглашений: участник,
// не принявший приглашение за грейс-период, убирается из внешней команды,
// чтобы не занимать оплачиваемое место.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/teamgate/internal/lib/clock"
	"github.com/magabrotheeeer/teamgate/internal/lib/match"
	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
	"github.com/magabrotheeeer/teamgate/internal/metrics"
	"github.com/magabrotheeeer/teamgate/internal/models"
	"github.com/magabrotheeeer/teamgate/internal/provider"
)

// TeamCountsCacheKey — ключ кэша со счётчиками состава команды.
const TeamCountsCacheKey = "teamgate:team_counts"

// TeamCounts — снимок состава команды по итогам последнего обхода списка.
type TeamCounts struct {
	Active  int `json:"active"`
	Pending int `json:"pending"`
}

// UserRepository определяет методы хранилища, нужные джобе.
type UserRepository interface {
	FindStalePendingInvites(ctx context.Context, now time.Time, grace time.Duration) ([]*models.User, error)
	MarkRevoked(ctx context.Context, userID int64) error
	PutSetting(ctx context.Context, key, value string) error
}

// Notifier публикует операторские события; сбой публикации не валит проход.
type Notifier interface {
	NotifyOperator(event models.OperatorEvent) error
}

// CountsCache кэширует снимок состава команды.
type CountsCache interface {
	Set(key string, value any, expiration time.Duration) error
}

// SweepSummary — итог одного прохода по протухшим приглашениям.
type SweepSummary struct {
	RunID    string
	Revoked  int
	NotFound int
	Skipped  int
	Failed   int
}

// Processed — количество приглашений, приведённых в терминальное состояние.
func (s SweepSummary) Processed() int {
	return s.Revoked + s.NotFound
}

// SweeperService отзывает приглашения, не принятые за грейс-период.
type SweeperService struct {
	repo     UserRepository
	factory  provider.Factory
	notifier Notifier
	cache    CountsCache
	clk      clock.Clock
	grace    time.Duration
	log      *slog.Logger
}

// NewSweeperService создает новый экземпляр SweeperService.
func NewSweeperService(repo UserRepository, factory provider.Factory, notifier Notifier,
	cache CountsCache, clk clock.Clock, grace time.Duration, log *slog.Logger) *SweeperService {
	return &SweeperService{
		repo:     repo,
		factory:  factory,
		notifier: notifier,
		cache:    cache,
		clk:      clk,
		grace:    grace,
		log:      log,
	}
}

// Run выполняет проход. Список участников запрашивается один раз на проход:
// до принятия приглашения провайдер показывает email в поле имени, поэтому
// кандидат сопоставляется с приглашённой строкой локально, а не поиском
// на каждую строку.
func (s *SweeperService) Run(ctx context.Context) (SweepSummary, error) {
	const op = "sweeper.Run"
	summary := SweepSummary{RunID: uuid.New().String()}
	log := s.log.With(slog.String("run_id", summary.RunID))

	now := s.clk.Now()
	log.Info("starting stale invite sweep", slog.Time("now", now), slog.Duration("grace", s.grace))

	prov, err := s.factory.Acquire(ctx)
	if err != nil {
		return summary, s.abort(log, fmt.Errorf("%s: %w", op, err))
	}

	members, err := prov.ListMembers(ctx)
	if err != nil {
		return summary, s.abort(log, fmt.Errorf("%s: %w", op, err))
	}
	s.refreshCounts(ctx, log, members)

	stale, err := s.repo.FindStalePendingInvites(ctx, now, s.grace)
	if err != nil {
		metrics.PassesTotal.WithLabelValues("stale_invites", "aborted").Inc()
		return summary, fmt.Errorf("%s: %w", op, err)
	}
	if len(stale) == 0 {
		log.Info("no stale pending invites found")
		metrics.PassesTotal.WithLabelValues("stale_invites", "ok").Inc()
		return summary, nil
	}
	log.Info("found stale pending invites", slog.Int("count", len(stale)))

	for _, user := range stale {
		state, found := findMemberState(members, user.Email)
		switch {
		case found && state == models.InviteStateActive:
			// приглашение принято, отзывать нельзя; локальный статус догонит
			// следующий платёж либо оператор
			summary.Skipped++
			log.Warn("pending user is already an active member, skipping",
				slog.Int64("user_id", user.ID))
			continue
		case !found:
			log.Warn("invite already absent at provider, marking revoked locally",
				slog.Int64("user_id", user.ID))
			summary.NotFound++
		default:
			result, err := prov.RemoveMember(ctx, user.Email)
			if errors.Is(err, provider.ErrSessionExpired) {
				return summary, s.abort(log, fmt.Errorf("%s: %w", op, err))
			}
			if err != nil {
				summary.Failed++
				metrics.RowsFailedTotal.WithLabelValues("stale_invites").Inc()
				log.Error("failed to revoke invite, row left for retry",
					slog.Int64("user_id", user.ID), sl.Err(err))
				continue
			}
			if result == provider.NotFound {
				summary.NotFound++
			} else {
				summary.Revoked++
				metrics.InvitesRevokedTotal.Inc()
			}
		}

		if err := s.repo.MarkRevoked(ctx, user.ID); err != nil {
			metrics.PassesTotal.WithLabelValues("stale_invites", "aborted").Inc()
			return summary, fmt.Errorf("%s: %w", op, err)
		}
	}

	s.notifyOperator(log, models.SeverityInfo,
		fmt.Sprintf("Revoked: %d, failed: %d", summary.Revoked, summary.Failed))

	metrics.PassesTotal.WithLabelValues("stale_invites", "ok").Inc()
	log.Info("stale invite sweep finished",
		slog.Int("revoked", summary.Revoked),
		slog.Int("not_found", summary.NotFound),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

func (s *SweeperService) abort(log *slog.Logger, err error) error {
	metrics.PassesTotal.WithLabelValues("stale_invites", "aborted").Inc()
	if errors.Is(err, provider.ErrSessionExpired) {
		metrics.SessionExpiredTotal.Inc()
		s.notifyOperator(log, models.SeverityAlert,
			"Provider session expired: manual re-authentication required, pass aborted")
	}
	log.Error("stale invite sweep aborted", sl.Err(err))
	return err
}

// refreshCounts обновляет снимок состава команды в кэше и настройках.
// Сбои здесь только логируются: счётчики — побочный продукт прохода.
func (s *SweeperService) refreshCounts(ctx context.Context, log *slog.Logger, members []models.MemberView) {
	counts := TeamCounts{}
	for _, m := range members {
		if m.InviteState == models.InviteStateInvited {
			counts.Pending++
		} else {
			counts.Active++
		}
	}
	if err := s.cache.Set(TeamCountsCacheKey, counts, 24*time.Hour); err != nil {
		log.Warn("failed to cache team counts", sl.Err(err))
	}
	if err := s.repo.PutSetting(ctx, models.SettingTeamMemberCount, strconv.Itoa(counts.Active)); err != nil {
		log.Warn("failed to store team member count", sl.Err(err))
	}
	if err := s.repo.PutSetting(ctx, models.SettingTeamPendingCount, strconv.Itoa(counts.Pending)); err != nil {
		log.Warn("failed to store team pending count", sl.Err(err))
	}
}

// findMemberState ищет участника по email среди наблюдаемых строк.
// Для приглашённых строк провайдер показывает email, для активных — имя,
// поэтому обе категории сопоставляются нестрогим правилом.
func findMemberState(members []models.MemberView, email string) (string, bool) {
	for _, m := range members {
		if match.Strict(email, m.DisplayNameOrEmail) {
			return m.InviteState, true
		}
	}
	for _, m := range members {
		if match.Loose(email, m.DisplayNameOrEmail) {
			return m.InviteState, true
		}
	}
	return "", false
}

func (s *SweeperService) notifyOperator(log *slog.Logger, severity, text string) {
	if err := s.notifier.NotifyOperator(models.OperatorEvent{Severity: severity, Text: text}); err != nil {
		log.Warn("failed to publish operator event", sl.Err(err))
	}
}
