// Package get реализует HTTP-обработчик чтения настройки по ключу.
package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/teamgate/internal/http/response"
	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
)

// Handler управляет HTTP-запросами на чтение настроек.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс хранилища настроек.
type Service interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	key := chi.URLParam(r, "key")
	if key == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("key is required"))
		return
	}

	value, found, err := h.service.GetSetting(r.Context(), key)
	if err != nil {
		log.Error("failed to get setting", slog.String("key", key), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get setting"))
		return
	}
	if !found {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("setting not found"))
		return
	}

	log.Info("setting read", slog.String("key", key))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"key":   key,
		"value": value,
	}))
}
