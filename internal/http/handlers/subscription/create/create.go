// Package create реализует HTTP-обработчик оформления оплаченного периода.
//
// Handler принимает JSON-запрос, валидирует его, вычисляет дату окончания
// по длительности тарифа и создает либо продлевает активную подписку.
// На пару пользователь/тариф существует не более одной активной подписки,
// поэтому повторное оформление продлевает существующую.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/teamgate/internal/http/response"
	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
	"github.com/magabrotheeeer/teamgate/internal/models"
)

// Handler управляет HTTP-запросами на оформление подписок.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс хранилища, нужный обработчику.
type Service interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) (int64, error)
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
	const op = "handlers.subscription.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySubscription
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

	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		log.Error("failed to parse start date", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("start_date must be RFC3339"))
		return
	}

	product, err := h.service.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		log.Error("failed to get product", slog.Int64("product_id", req.ProductID), sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("unknown product"))
		return
	}

	sub := models.Subscription{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		StartDate: startDate.UTC(),
		EndDate:   startDate.UTC().AddDate(0, 0, product.DurationDays),
		Status:    models.SubscriptionStatusActive,
	}

	id, err := h.service.CreateSubscription(r.Context(), sub)
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create subscription"))
		return
	}

	log.Info("subscription created", slog.Int64("id", id), slog.Time("end_date", sub.EndDate))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription_id": id,
		"end_date":        sub.EndDate.Format(time.RFC3339),
	}))
}
