// Package reconciler собирает HTTP-сервис реконсиляции: хранилище,
// миграции, кэш, очередь уведомлений, адаптер провайдера и джобы.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/teamgate/internal/cache"
	"github.com/magabrotheeeer/teamgate/internal/config"
	"github.com/magabrotheeeer/teamgate/internal/lib/clock"
	"github.com/magabrotheeeer/teamgate/internal/lib/jwt"
	"github.com/magabrotheeeer/teamgate/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/teamgate/internal/migrations"
	"github.com/magabrotheeeer/teamgate/internal/notifier"
	"github.com/magabrotheeeer/teamgate/internal/provider/canva"
	reconcilerservice "github.com/magabrotheeeer/teamgate/internal/services/reconciler"
	sweeperservice "github.com/magabrotheeeer/teamgate/internal/services/sweeper"
	"github.com/magabrotheeeer/teamgate/internal/storage/repository"
)

// App представляет HTTP-приложение реконсиляции.
type App struct {
	server *http.Server
	conn   *amqp.Connection
	ch     *amqp.Channel
	db     *repository.Storage
	logger *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения реконсиляции.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := waitForDB(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	loc, err := clock.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to load display timezone: %w", err)
	}

	factory := canva.NewFactory(db, canva.Config{
		BaseURL:      cfg.Provider.BaseURL,
		OpTimeout:    cfg.Provider.OpTimeout,
		OpsPerMinute: cfg.Provider.OpsPerMinute,
		MaxListPages: cfg.Provider.MaxListPages,
	}, cfg.Provider.DefaultTeamID, logger)

	amqpNotifier := notifier.New(ch)
	clk := clock.UTC{}

	reconciler := reconcilerservice.NewReconcilerService(db, factory, amqpNotifier, clk, loc, logger)
	sweeper := sweeperservice.NewSweeperService(db, factory, amqpNotifier, cacheRedis,
		clk, cfg.InviteGracePeriod, logger)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, reconciler, sweeper, cacheRedis, db, jwtMaker)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		conn:   conn,
		ch:     ch,
		db:     db,
		logger: logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает HTTP-сервер и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		closeResources(a.ch, a.conn, a.logger)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", "error", closeErr)
		}
		return err
	}
}
