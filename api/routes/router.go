package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haventrip/haventrip-backend/api/controllers"
	"github.com/haventrip/haventrip-backend/api/middleware"
	"github.com/haventrip/haventrip-backend/internal/bookings"
	"github.com/haventrip/haventrip-backend/internal/listings"
	"github.com/haventrip/haventrip-backend/internal/notifications"
	"github.com/haventrip/haventrip-backend/internal/offers"
	"github.com/haventrip/haventrip-backend/internal/payouts"
	"github.com/haventrip/haventrip-backend/internal/wallets"
	"github.com/haventrip/haventrip-backend/pkg/config"
	"github.com/haventrip/haventrip-backend/pkg/db"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	"github.com/haventrip/haventrip-backend/pkg/logger"
	"github.com/haventrip/haventrip-backend/pkg/redis"
)

type pubsubPinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pubsubClient pubsubPinger,
	bookingService bookings.Service,
	listingService listings.Service,
	offerService offers.Service,
	walletService wallets.Service,
	payoutService payouts.Service,
	notificationService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	bookingPolicy := middleware.NewRateLimitPolicy(
		"booking",
		cfg.RateLimit.BookingWindow,
		0,
		cfg.RateLimit.BookingGuestLimit,
	)
	quotePolicy := middleware.NewRateLimitPolicy(
		"quote",
		cfg.RateLimit.QuoteWindow,
		cfg.RateLimit.QuoteIPLimit,
		0,
	)

	platformCurrency := enums.Currency(cfg.Platform.Currency)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessChecks(dbP, redisClient, pubsubClient)))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.RequireIdentity(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/bookings", func(r chi.Router) {
			r.With(middleware.RateLimit(bookingPolicy, redisClient, logg)).
				Post("/", controllers.CreateBooking(bookingService, logg))
			r.With(middleware.RateLimit(quotePolicy, redisClient, logg)).
				Post("/quote", controllers.QuoteBooking(bookingService, logg))
			r.Get("/", controllers.ListBookings(bookingService, logg))
			r.Get("/{bookingId}", controllers.GetBooking(bookingService, logg))
		})

		r.Route("/listings", func(r chi.Router) {
			r.Get("/mine", controllers.HostListings(listingService, logg))
			r.Get("/{listingId}", controllers.GetListing(listingService, logg))
			r.Patch("/{listingId}/discount", controllers.UpdateListingDiscount(listingService, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.With(middleware.RateLimit(quotePolicy, redisClient, logg)).
				Post("/validate", controllers.ValidateCoupon(offerService, logg))
		})
		r.Get("/promos", controllers.HostPromos(offerService, logg))

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/balance", controllers.WalletBalance(walletService, platformCurrency, logg))
			r.Get("/entries", controllers.WalletEntries(walletService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.RequireIdentity(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.AdminPing())
		r.Route("/bookings", func(r chi.Router) {
			r.Post("/{bookingId}/confirm-payment", controllers.ConfirmBookingPayment(bookingService, logg))
			r.Post("/{bookingId}/reconcile-payout", controllers.ReconcileBookingPayout(payoutService, logg))
		})
	})

	return r
}
