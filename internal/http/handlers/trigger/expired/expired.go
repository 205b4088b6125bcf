// Package expired реализует HTTP-обработчик запуска прохода по просроченным
// подпискам. Параллельные запуски исключаются распределённой блокировкой:
// у провайдера одна сессия, два прохода по ней небезопасны.
package expired

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/teamgate/internal/cache"
	"github.com/magabrotheeeer/teamgate/internal/http/response"
	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
	reconciler "github.com/magabrotheeeer/teamgate/internal/services/reconciler"
)

// Service описывает интерфейс запуска прохода реконсиляции.
type Service interface {
	Run(ctx context.Context) (reconciler.Summary, error)
}

// Locker защищает проход от параллельного запуска.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// Handler управляет HTTP-запросами на запуск прохода.
type Handler struct {
	log     *slog.Logger
	service Service
	locker  Locker
	lockTTL time.Duration
}

// New создает новый Handler с переданными логгером, сервисом и блокировкой.
func New(log *slog.Logger, service Service, locker Locker, lockTTL time.Duration) *Handler {
	return &Handler{
		log:     log,
		service: service,
		locker:  locker,
		lockTTL: lockTTL,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trigger.expired"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	acquired, err := h.locker.AcquireLock(r.Context(), cache.PassLockKey, h.lockTTL)
	if err != nil {
		log.Error("failed to acquire pass lock", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not acquire pass lock"))
		return
	}
	if !acquired {
		log.Warn("pass already running, trigger rejected")
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("pass already running"))
		return
	}
	defer func() {
		if err := h.locker.ReleaseLock(r.Context(), cache.PassLockKey); err != nil {
			log.Error("failed to release pass lock", sl.Err(err))
		}
	}()

	summary, err := h.service.Run(r.Context())
	if err != nil {
		log.Error("reconciliation pass failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("reconciliation pass failed"))
		return
	}

	log.Info("reconciliation pass triggered successfully",
		slog.String("run_id", summary.RunID),
		slog.Int("processed", summary.Processed()))
	render.JSON(w, r, response.Trigger(summary.Processed()))
}
