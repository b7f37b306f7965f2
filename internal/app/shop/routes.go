package shop

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/bluewave-shop/internal/bluewave"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/admin/approveorder"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/admin/pendingorders"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/admin/removesubscription"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/admin/usersubscriptions"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/apiaccess/info"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/apiaccess/token"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/auth/twofactor/confirm"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/auth/twofactor/setup"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/auth/twofactor/verify"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/checkout/cancel"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/checkout/start"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/checkout/success"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/health"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/metrics/observations"
	orderlist "github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/order/list"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/payment/webhook"
	productlist "github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/product/list"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/handlers/product/read"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/jwt"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
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

// Лимиты запросов: общий для защищённых маршрутов и отдельный для входа.
const (
	authLimit  = rate.Limit(5)
	authBurst  = 20
	loginLimit = rate.Limit(1)
	loginBurst = 5
)

// Services — всё, что нужно маршрутам магазина.
type Services struct {
	Storage     *repository.Storage
	JWT         *jwt.MakerImpl
	Auth        *auth.Service
	Catalog     *catalog.Service
	Checkout    *checkout.Service
	Orders      *orders.Service
	Entitlement *entitlement.Store
	Reconciler  *reconcile.Reconciler
	Tokens      *tokenbroker.Broker
	Metrics     *metricsproxy.Proxy
	Provider    *paymentprovider.Client
	DataAPI     *bluewave.Client
}

// RegisterRoutes регистрирует все маршруты магазина.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, loginLimit, loginBurst))
			r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		})
		r.Get("/products", productlist.New(logger, s.Catalog).ServeHTTP)
		r.Get("/products/{slug}", read.New(logger, s.Catalog).ServeHTTP)
		r.Post("/payments/webhook", webhook.New(logger, s.Provider, s.Reconciler).ServeHTTP)
		r.Get("/health", health.New(logger, s.Storage).ServeHTTP)

		// Второй шаг входа принимает только промежуточный токен
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.PendingMiddleware(s.JWT, logger))
			r.Post("/2fa/verify", verify.New(logger, s.Auth).ServeHTTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.JWT, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, authLimit, authBurst))

			r.Get("/2fa/setup", setup.New(logger, s.Auth).ServeHTTP)
			r.Post("/2fa/confirm", confirm.New(logger, s.Auth).ServeHTTP)

			r.Post("/checkout/{slug}", start.New(logger, s.Checkout).ServeHTTP)
			r.Get("/checkout/success", success.New(logger, s.Checkout).ServeHTTP)
			r.Get("/checkout/cancel", cancel.New(logger).ServeHTTP)
			r.Get("/orders", orderlist.New(logger, s.Orders).ServeHTTP)

			r.Get("/api-access", info.New(logger, s.Entitlement, s.Storage, s.DataAPI.BaseURL(), s.DataAPI.DocsURL()).ServeHTTP)
			r.Post("/api-token", token.New(logger, s.Tokens).ServeHTTP)
			r.Get("/metrics/observations", observations.New(logger, s.Metrics).ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
				r.Get("/orders/pending", pendingorders.New(logger, s.Orders).ServeHTTP)
				r.Post("/orders/{id}/approve", approveorder.New(logger, s.Orders).ServeHTTP)
				r.Get("/users/{uid}/subscriptions", usersubscriptions.New(logger, s.Entitlement).ServeHTTP)
				r.Delete("/subscriptions/{id}", removesubscription.New(logger, s.Reconciler).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
