// Package put реализует HTTP-обработчик записи настройки. Через него
// оператор обновляет сессию провайдера (cookie, user-agent) после
// ручной переавторизации. Значения в логах маскируются.
package put

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/teamgate/internal/http/response"
	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
)

// Handler управляет HTTP-запросами на запись настроек.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс хранилища настроек.
type Service interface {
	PutSetting(ctx context.Context, key, value string) error
}

// Request — тело запроса записи настройки.
type Request struct {
	Value string `json:"value" validate:"required"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.put"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.PutSetting(r.Context(), key, req.Value); err != nil {
		log.Error("failed to put setting", slog.String("key", key), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not put setting"))
		return
	}

	log.Info("setting updated", slog.String("key", key), sl.Secret("value", req.Value))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"key": key,
	}))
}
