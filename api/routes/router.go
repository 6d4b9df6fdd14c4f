package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/harvestlink-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/harvestlink-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/harvestlink-backend/api/controllers/orders"
	transactioncontrollers "github.com/angelmondragon/harvestlink-backend/api/controllers/transactions"
	"github.com/angelmondragon/harvestlink-backend/api/middleware"
	"github.com/angelmondragon/harvestlink-backend/internal/cart"
	"github.com/angelmondragon/harvestlink-backend/internal/notifications"
	"github.com/angelmondragon/harvestlink-backend/internal/orders"
	"github.com/angelmondragon/harvestlink-backend/internal/payments"
	"github.com/angelmondragon/harvestlink-backend/pkg/config"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	"github.com/angelmondragon/harvestlink-backend/pkg/logger"
	"github.com/angelmondragon/harvestlink-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/harvestlink-backend/pkg/redis"
)

// RedisClient is the slice of the redis wrapper the HTTP surface depends on.
type RedisClient interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
	pkgredis.Subscriber
}

// Dependencies bundles what NewRouter wires into handlers. A nil Redis
// disables idempotency replay, write throttling and the realtime stream.
type Dependencies struct {
	DB            controllers.Pinger
	Redis         RedisClient
	Cart          cart.Service
	Orders        orders.Service
	Payments      payments.Service
	Notifications notifications.Service
	HTTPMetrics   *metrics.HTTPMetrics
	// Metrics serves /metrics. Nil falls back to the default gatherer.
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	pingers := map[string]controllers.Pinger{}
	if deps.DB != nil {
		pingers["db"] = deps.DB
	}
	var (
		idempotencyStore pkgredis.IdempotencyStore
		rateLimiter      pkgredis.RateLimiter
		subscriber       pkgredis.Subscriber
	)
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
		idempotencyStore = deps.Redis
		rateLimiter = deps.Redis
		subscriber = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	adminOnly := middleware.RequireRole(logg, enums.ActorRoleAdmin, enums.ActorRoleSystem)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.WriteRateLimit(rateLimiter, cfg.HTTP.WriteRateLimit, cfg.HTTP.WriteRateWindow, logg))
		r.Use(middleware.Idempotency(idempotencyStore, middleware.IdempotencyTTLs{
			Standard: cfg.Idempotency.TTL,
			Critical: cfg.Idempotency.CriticalTTL,
		}, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			r.Post("/checkout", cartcontrollers.CartCheckout(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/buying", ordercontrollers.ListBuying(deps.Orders, logg))
			r.Get("/selling", ordercontrollers.ListSelling(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", transactioncontrollers.Initiate(deps.Payments, logg))
			r.Route("/{transactionId}", func(r chi.Router) {
				r.Get("/", transactioncontrollers.Detail(deps.Payments, logg))
				r.Post("/confirm", transactioncontrollers.Confirm(deps.Payments, logg))
				r.Post("/refund", transactioncontrollers.Refund(deps.Payments, logg))
				r.With(adminOnly).Post("/settle", transactioncontrollers.Settle(deps.Payments, logg))
				r.With(adminOnly).Post("/fail", transactioncontrollers.Fail(deps.Payments, logg))
				r.With(adminOnly).Get("/ledger", transactioncontrollers.Ledger(deps.Payments, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, cfg.Notifications.InboxLimit, logg))
			r.Get("/stream", controllers.NotificationStream(subscriber, cfg.Notifications, cfg.HTTP.CORSOrigins, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
		})
	})

	return r
}
