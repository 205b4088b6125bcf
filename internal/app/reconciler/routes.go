// Package reconciler предоставляет маршруты HTTP-сервиса реконсиляции.
package reconciler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/teamgate/internal/cache"
	"github.com/magabrotheeeer/teamgate/internal/config"
	"github.com/magabrotheeeer/teamgate/internal/http/handlers/health"
	settingsget "github.com/magabrotheeeer/teamgate/internal/http/handlers/settings/get"
	settingsput "github.com/magabrotheeeer/teamgate/internal/http/handlers/settings/put"
	subscriptioncreate "github.com/magabrotheeeer/teamgate/internal/http/handlers/subscription/create"
	teamcounts "github.com/magabrotheeeer/teamgate/internal/http/handlers/team/counts"
	"github.com/magabrotheeeer/teamgate/internal/http/handlers/trigger/expired"
	"github.com/magabrotheeeer/teamgate/internal/http/handlers/trigger/staleinvites"
	"github.com/magabrotheeeer/teamgate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/teamgate/internal/lib/jwt"
	reconcilerservice "github.com/magabrotheeeer/teamgate/internal/services/reconciler"
	sweeperservice "github.com/magabrotheeeer/teamgate/internal/services/sweeper"
	"github.com/magabrotheeeer/teamgate/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	reconciler *reconcilerservice.ReconcilerService, sweeper *sweeperservice.SweeperService,
	cacheRedis *cache.Cache, db *repository.Storage, jwtMaker *jwt.MakerImpl) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(1, 3)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger).ServeHTTP)

		// триггерные эндпоинты: планировщик и оператор
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, jwt.ScopeTrigger, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Post("/reconcile/expired",
				expired.New(logger, reconciler, cacheRedis, cfg.PassLockTTL).ServeHTTP)
			r.Post("/reconcile/stale-invites",
				staleinvites.New(logger, sweeper, cacheRedis, cfg.PassLockTTL).ServeHTTP)
		})

		// административные эндпоинты: только оператор
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, jwt.ScopeAdmin, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Post("/subscriptions", subscriptioncreate.New(logger, db).ServeHTTP)
			r.Get("/settings/{key}", settingsget.New(logger, db).ServeHTTP)
			r.Put("/settings/{key}", settingsput.New(logger, db).ServeHTTP)
			r.Get("/team/counts", teamcounts.New(logger, cacheRedis, db).ServeHTTP)
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}
