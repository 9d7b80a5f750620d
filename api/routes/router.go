package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	metricsHandler http.Handler,
	cartService cart.Service,
	checkoutService checkout.Service,
	ordersSvc orders.Service,
	notificationsService notifications.Service,
	profiles controllers.ProfileService,
	fees controllers.DeliveryFeeStore,
	ledger controllers.InventoryLedger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// a nil *redis.Client must not reach the middleware as a non-nil interface
	var idempotencyStore redis.IdempotencyStore
	var limiter middleware.RateLimiterStore
	if redisClient != nil {
		idempotencyStore = redisClient
		limiter = redisClient
	}

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.Storefront.CheckoutRateWindow,
		cfg.Storefront.CheckoutRateIPLimit,
		cfg.Storefront.CheckoutRateUserLimit,
	)

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items", controllers.CartRemoveItem(cartService, logg))
		})

		r.Get("/v1/checkout/preview", controllers.CheckoutPreview(checkoutService, logg))

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(ordersSvc, logg))
			r.With(middleware.RateLimit(checkoutPolicy, limiter, logg)).
				Post("/", controllers.Checkout(checkoutService, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersSvc, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersSvc, logg))
		})

		r.Route("/v1/profile", func(r chi.Router) {
			r.Get("/", controllers.GetProfile(profiles, logg))
			r.Patch("/", controllers.UpdateProfile(profiles, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(ordersSvc, logg))
			r.Get("/stats", controllers.AdminOrderStats(ordersSvc, logg))
			r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(ordersSvc, logg))
			r.Delete("/{orderId}", controllers.AdminDeleteOrder(ordersSvc, logg))
		})
		r.Route("/v1/settings", func(r chi.Router) {
			r.Get("/delivery-fee", controllers.AdminGetDeliveryFee(fees, logg))
			r.Put("/delivery-fee", controllers.AdminSetDeliveryFee(fees, logg))
		})
		r.Route("/v1/inventory", func(r chi.Router) {
			r.Get("/{productId}", controllers.AdminInventory(ledger, logg))
			r.Post("/{productId}/restock", controllers.AdminRestock(ledger, logg))
		})
	})

	return r
}
