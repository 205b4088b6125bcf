// Package metrics содержит счётчики Prometheus для наблюдаемости проходов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PassesTotal — количество запущенных проходов по типам (expired, stale_invites)
	// и результатам (ok, aborted).
	PassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamgate_passes_total",
		Help: "Reconciliation passes by job and outcome.",
	}, []string{"job", "outcome"})

	// MembersKickedTotal — успешно удалённые участники.
	MembersKickedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamgate_members_kicked_total",
		Help: "Members removed from the external team.",
	})

	// InvitesRevokedTotal — отозванные просроченные приглашения.
	InvitesRevokedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamgate_invites_revoked_total",
		Help: "Stale invites revoked.",
	})

	// RowsFailedTotal — строки, оставленные на повтор из-за сбоя действия.
	RowsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamgate_rows_failed_total",
		Help: "Rows left for retry after a provider action failure.",
	}, []string{"job"})

	// SessionExpiredTotal — фатальные прерывания из-за истёкшей сессии.
	SessionExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamgate_session_expired_total",
		Help: "Passes aborted because the provider session expired.",
	})
)
