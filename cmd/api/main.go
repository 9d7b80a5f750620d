package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/settings"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/env"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var sessions session.AccessSessionChecker
	if cfg.FeatureFlags.SessionCheck {
		manager, err := session.NewManager(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create session manager", err)
			os.Exit(1)
		}
		sessions = manager
	}

	m := metrics.NewStorefront(prometheus.DefaultRegisterer)
	gormDB := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(gormDB), logg)

	products, err := catalog.NewService(catalog.NewRepository(gormDB))
	if err != nil {
		fatal(logg, "failed to create catalog service", err)
	}
	cartService, err := cart.NewService(cart.NewRepository(gormDB), products, cfg.Storefront.CartMaxRetries, logg)
	if err != nil {
		fatal(logg, "failed to create cart service", err)
	}
	profiles, err := users.NewService(users.NewRepository(gormDB))
	if err != nil {
		fatal(logg, "failed to create users service", err)
	}
	fees, err := settings.NewService(gormDB, cfg.Storefront.DefaultDeliveryFeeCents, logg)
	if err != nil {
		fatal(logg, "failed to create settings service", err)
	}
	ledger := inventory.NewLedger(gormDB)

	dispatcher, err := notifications.NewDispatcher(dbClient, emitter, cfg.Storefront.NotificationQueueSize, logg, m)
	if err != nil {
		fatal(logg, "failed to create notification dispatcher", err)
	}
	var notifier orders.Notifier = dispatcher
	if !cfg.FeatureFlags.Notifications {
		notifier = mutedNotifier{}
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(ordersRepo, dbClient, emitter, ledger, notifier, logg, m)
	if err != nil {
		fatal(logg, "failed to create orders service", err)
	}
	checkoutService, err := checkout.NewService(dbClient, ordersRepo, cartService, profiles, fees, emitter, logg, m)
	if err != nil {
		fatal(logg, "failed to create checkout service", err)
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		fatal(logg, "failed to create notifications service", err)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessions,
			promhttp.Handler(),
			cartService,
			checkoutService,
			ordersService,
			notificationsService,
			profiles,
			fees,
			ledger,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logg.Info(ctx, "starting api server")
	if err := serve(ctx, server, dispatcher, shutdownTimeout, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

// mutedNotifier drops every request when notifications are switched off.
type mutedNotifier struct{}

func (mutedNotifier) Notify(context.Context, notifications.Request) bool { return false }

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
