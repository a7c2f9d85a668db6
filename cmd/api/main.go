package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/haventrip/haventrip-backend/api/routes"
	"github.com/haventrip/haventrip-backend/internal/availability"
	"github.com/haventrip/haventrip-backend/internal/bookings"
	"github.com/haventrip/haventrip-backend/internal/listings"
	"github.com/haventrip/haventrip-backend/internal/notifications"
	"github.com/haventrip/haventrip-backend/internal/offers"
	"github.com/haventrip/haventrip-backend/internal/payouts"
	"github.com/haventrip/haventrip-backend/internal/pricing"
	"github.com/haventrip/haventrip-backend/internal/wallets"
	"github.com/haventrip/haventrip-backend/pkg/config"
	"github.com/haventrip/haventrip-backend/pkg/db"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	"github.com/haventrip/haventrip-backend/pkg/gateway"
	"github.com/haventrip/haventrip-backend/pkg/logger"
	"github.com/haventrip/haventrip-backend/pkg/metrics"
	"github.com/haventrip/haventrip-backend/pkg/migrate"
	"github.com/haventrip/haventrip-backend/pkg/outbox"
	"github.com/haventrip/haventrip-backend/pkg/pubsub"
	"github.com/haventrip/haventrip-backend/pkg/redis"
)

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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	capturer, err := gateway.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payment gateway", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	settlementMetrics := metrics.NewSettlementMetrics(prometheus.DefaultRegisterer)

	offersRepo := offers.NewRepository(dbClient.DB())
	promoCache := offers.NewPromoCache(redisClient, offersRepo, cfg.Eventing.PromoCacheTTL, logg)

	offerSvc, err := offers.NewService(offersRepo, promoCache)
	requireService(logg, "offer service", err)

	listingRepo := listings.NewRepository(dbClient.DB())
	listingSvc, err := listings.NewService(listingRepo, dbClient, outboxSvc, promoCache)
	requireService(logg, "listing service", err)

	walletSvc, err := wallets.NewService(wallets.NewRepository(dbClient.DB()))
	requireService(logg, "wallet service", err)

	guard, err := availability.NewGuard(dbClient.DB())
	requireService(logg, "availability guard", err)

	notificationSvc, err := notifications.NewService(
		notifications.NewRepository(dbClient.DB()),
		dbClient,
		outboxSvc,
	)
	requireService(logg, "notification service", err)

	bookingRepo := bookings.NewRepository(dbClient.DB())
	bookingSvc, err := bookings.NewService(bookings.ServiceParams{
		Repo:       bookingRepo,
		Listings:   listingRepo,
		Offers:     offersRepo,
		Promos:     promoCache,
		Guard:      guard,
		Wallets:    walletSvc,
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Capturer:   capturer,
		Fees:       pricing.NewFeeSchedule(cfg.Fees),
		Loyalty:    cfg.Loyalty,
		PlatformID: cfg.Platform.OwnerID(),
		Currency:   enums.Currency(cfg.Platform.Currency),
		Metrics:    settlementMetrics,
		Notifier:   notificationSvc,
		Logger:     logg,
	})
	requireService(logg, "booking service", err)

	payoutSvc, err := payouts.NewService(
		bookingRepo,
		walletSvc,
		dbClient,
		outboxSvc,
		cfg.Loyalty,
		settlementMetrics,
		logg,
	)
	requireService(logg, "payout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			pubsubClient,
			bookingSvc,
			listingSvc,
			offerSvc,
			walletSvc,
			payoutSvc,
			notificationSvc,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+name, err)
		os.Exit(1)
	}
}
