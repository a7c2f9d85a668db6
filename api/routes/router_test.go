package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/internal/bookings"
	"github.com/haventrip/haventrip-backend/internal/listings"
	"github.com/haventrip/haventrip-backend/internal/notifications"
	"github.com/haventrip/haventrip-backend/internal/offers"
	"github.com/haventrip/haventrip-backend/internal/payouts"
	"github.com/haventrip/haventrip-backend/internal/pricing"
	"github.com/haventrip/haventrip-backend/internal/wallets"
	"github.com/haventrip/haventrip-backend/pkg/config"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	"github.com/haventrip/haventrip-backend/pkg/logger"
	"github.com/haventrip/haventrip-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubBookingService struct{}

func (stubBookingService) Quote(ctx context.Context, input bookings.SettleInput) (*pricing.Breakdown, error) {
	return &pricing.Breakdown{}, nil
}

func (stubBookingService) Settle(ctx context.Context, input bookings.SettleInput) (*bookings.SettlementResult, error) {
	return &bookings.SettlementResult{}, nil
}

func (stubBookingService) ConfirmPayment(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return &models.Booking{ID: id}, nil
}

func (stubBookingService) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return &models.Booking{ID: id}, nil
}

func (stubBookingService) ListByGuest(ctx context.Context, filter bookings.ListFilter) ([]models.Booking, error) {
	return nil, nil
}

type stubListingService struct{}

func (stubListingService) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return &models.Listing{ID: id}, nil
}

func (stubListingService) ListByHost(ctx context.Context, hostID uuid.UUID) ([]models.Listing, error) {
	return nil, nil
}

func (stubListingService) SetDiscountPolicy(ctx context.Context, input listings.SetDiscountPolicyInput) (*models.Listing, error) {
	return &models.Listing{ID: input.ListingID}, nil
}

type stubOfferService struct{}

func (stubOfferService) ValidateCoupon(ctx context.Context, input offers.ValidateCouponInput) (*offers.CouponValidation, error) {
	return &offers.CouponValidation{Offer: &models.Offer{}}, nil
}

func (stubOfferService) ActivePromos(ctx context.Context, hostID uuid.UUID) ([]models.Offer, error) {
	return nil, nil
}

func (stubOfferService) UsageFor(ctx context.Context, offerID, guestID uuid.UUID) (offers.UsageCounts, error) {
	return offers.UsageCounts{}, nil
}

type stubWalletService struct{}

func (stubWalletService) EnsureAccount(ctx context.Context, ref wallets.AccountRef, currency enums.Currency) (*models.WalletAccount, error) {
	return &models.WalletAccount{OwnerID: ref.OwnerID, Kind: ref.Kind, Namespace: ref.Namespace, Currency: currency}, nil
}

func (stubWalletService) Balance(ctx context.Context, ref wallets.AccountRef) (*models.WalletAccount, error) {
	return &models.WalletAccount{OwnerID: ref.OwnerID}, nil
}

func (stubWalletService) Entries(ctx context.Context, ref wallets.AccountRef, limit int) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (stubWalletService) Credit(ctx context.Context, tx *gorm.DB, input wallets.MovementInput) (*models.LedgerEntry, error) {
	return nil, nil
}

func (stubWalletService) Debit(ctx context.Context, tx *gorm.DB, input wallets.MovementInput) (*models.LedgerEntry, error) {
	return nil, nil
}

type stubPayoutService struct{}

func (stubPayoutService) Reconcile(ctx context.Context, bookingID uuid.UUID) (*payouts.Result, error) {
	return &payouts.Result{BookingID: bookingID}, nil
}

type stubNotificationService struct{}

func (stubNotificationService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationService) SendBookingConfirmation(ctx context.Context, booking *models.Booking) error {
	return nil
}

func (stubNotificationService) SendPayoutReleased(ctx context.Context, bookingID, hostID uuid.UUID, amountCents int64) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Env: "test", Port: "0"},
		Platform: config.PlatformConfig{Currency: "PHP"},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubPinger{},
		stubBookingService{},
		stubListingService{},
		stubOfferService{},
		stubWalletService{},
		stubPayoutService{},
		stubNotificationService{},
	)
}

func TestPublicPingNeedsNoIdentity(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Haventrip-Env"); env != "test" {
		t.Fatalf("unexpected env header %q", env)
	}
}

func TestHealthReadyChecksDependencies(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPrivateGroupRejectsMissingIdentity(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMalformedIdentity(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-User-Id", "not-a-uuid")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed identity got %d", resp.Code)
	}
}

func TestPrivateGroupAcceptsIdentity(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with identity got %d", resp.Code)
	}
}

func TestBookingRoutesReachable(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=5", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for booking list got %d: %s", resp.Code, resp.Body.String())
	}

	userID := uuid.New()
	get := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), nil)
	get.Header.Set("X-User-Id", userID.String())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, get)
	// Stub booking belongs to no one; ownership check hides it.
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign booking got %d", resp.Code)
	}
}

func TestWalletRoutesReachable(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/balance?kind=guest&namespace=points", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for wallet balance got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminGroupRequiresIdentity(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity got %d", resp.Code)
	}

	withID := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	withID.Header.Set("X-User-Id", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, withID)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with identity got %d", resp.Code)
	}
}
