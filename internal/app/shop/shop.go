// Package shop собирает HTTP-сервер магазина: хранилище, кеш, брокер и сервисы.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bluewave-shop/internal/bluewave"
	"github.com/magabrotheeeer/bluewave-shop/internal/cache"
	"github.com/magabrotheeeer/bluewave-shop/internal/config"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/jwt"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/migrations"
	"github.com/magabrotheeeer/bluewave-shop/internal/paymentprovider"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/auth"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/catalog"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/checkout"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/entitlement"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/metricsproxy"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/orders"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/reconcile"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/tokenbroker"
	"github.com/magabrotheeeer/bluewave-shop/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP-сервер магазина.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает зависимости и собирает маршруты. Без redis витрина читается
// из базы, без RabbitMQ письма об оплате не отправляются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB); err != nil {
		_ = db.DB.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	app := &App{logger: logger, db: db}

	var catalogCache catalog.Cache
	if c, err := cache.InitServer(ctx, cfg.RedisConnection); err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", sl.Err(err))
	} else {
		app.cache = c
		catalogCache = c
	}

	var publisher reconcile.Publisher
	if conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay); err != nil {
		logger.Warn("rabbitmq unavailable, order notifications disabled", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = conn.Close()
			logger.Warn("rabbitmq channel setup failed, order notifications disabled", sl.Err(err))
		} else {
			app.conn, app.ch = conn, ch
			publisher = rabbitmq.NewPublisher(ch)
		}
	}

	if cfg.Stripe.SecretKey == "" {
		logger.Warn("stripe secret key is not set, checkout is disabled")
	}
	if cfg.Stripe.WebhookSecret == "" {
		logger.Warn("stripe webhook secret is not set, all webhook events will be rejected")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	provider := paymentprovider.NewClient(cfg.Stripe)
	dataAPI := bluewave.NewClient(cfg.BlueWaveAPI)

	ent := entitlement.New(logger, db)
	reconciler := reconcile.New(logger, db, provider, ent, publisher)

	services := Services{
		Storage:     db,
		JWT:         jwtMaker,
		Auth:        auth.NewService(logger, db, jwtMaker, dataAPI, cfg.Site.Name),
		Catalog:     catalog.New(logger, db, catalogCache, cfg.RedisConnection.CatalogTTL),
		Checkout:    checkout.New(logger, db, provider, reconciler, cfg.Site.URL),
		Orders:      orders.New(logger, db),
		Entitlement: ent,
		Reconciler:  reconciler,
		Tokens:      tokenbroker.New(logger, ent, dataAPI, db),
		Metrics:     metricsproxy.New(logger, ent, db, dataAPI),
		Provider:    provider,
		DataAPI:     dataAPI,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services)

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.close()
	return err
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
