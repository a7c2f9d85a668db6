package payouts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/internal/bookings"
	"github.com/haventrip/haventrip-backend/internal/wallets"
	"github.com/haventrip/haventrip-backend/pkg/config"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/outbox"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type captureOutbox struct {
	events []outbox.DomainEvent
}

func (c *captureOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

type payoutFixture struct {
	db         *gorm.DB
	svc        Service
	repo       bookings.Repository
	walletsSvc wallets.Service
	outbox     *captureOutbox
}

func newFixture(t *testing.T) *payoutFixture {
	t.Helper()

	dsn := "file:payouts_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Booking{}, &models.WalletAccount{}, &models.LedgerEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := bookings.NewRepository(db)
	walletsSvc, err := wallets.NewService(wallets.NewRepository(db))
	if err != nil {
		t.Fatalf("wallet service: %v", err)
	}
	publisher := &captureOutbox{}

	svc, err := NewService(repo, walletsSvc, testTxRunner{db: db}, publisher,
		config.LoyaltyConfig{GuestPointsPerBooking: 50, HostPointsPerBooking: 100}, nil, nil)
	if err != nil {
		t.Fatalf("payout service: %v", err)
	}

	return &payoutFixture{db: db, svc: svc, repo: repo, walletsSvc: walletsSvc, outbox: publisher}
}

func (f *payoutFixture) seedBooking(t *testing.T, status enums.BookingStatus, payment enums.PaymentStatus) *models.Booking {
	t.Helper()
	hostID := uuid.New()
	booking := &models.Booking{
		ID:            uuid.New(),
		GuestID:       uuid.New(),
		HostID:        hostID,
		ListingID:     uuid.New(),
		Status:        status,
		PaymentMethod: enums.PaymentMethodCardGateway,
		PaymentStatus: payment,
		Participants:  1,
		Currency:      enums.CurrencyPHP,

		RawSubtotalCents: 3000,
		SubtotalCents:    3000,
		ServiceFeeCents:  300,
		TotalCents:       3300,
		PayoutStatus:     enums.PayoutStatusNone,
	}
	if err := f.db.Create(booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	ctx := context.Background()
	for _, ns := range []enums.AccountNamespace{enums.AccountNamespaceWallet, enums.AccountNamespacePoints} {
		ref := wallets.AccountRef{OwnerID: hostID, Kind: enums.AccountKindHost, Namespace: ns}
		if _, err := f.walletsSvc.EnsureAccount(ctx, ref, enums.CurrencyPHP); err != nil {
			t.Fatalf("ensure host account: %v", err)
		}
	}
	guestPoints := wallets.AccountRef{OwnerID: booking.GuestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespacePoints}
	if _, err := f.walletsSvc.EnsureAccount(ctx, guestPoints, enums.CurrencyPHP); err != nil {
		t.Fatalf("ensure guest points account: %v", err)
	}
	return booking
}

func (f *payoutFixture) hostBalance(t *testing.T, hostID uuid.UUID, ns enums.AccountNamespace) int64 {
	t.Helper()
	account, err := f.walletsSvc.Balance(context.Background(), wallets.AccountRef{OwnerID: hostID, Kind: enums.AccountKindHost, Namespace: ns})
	if err != nil {
		t.Fatalf("host balance: %v", err)
	}
	return account.BalanceCents
}

func (f *payoutFixture) guestPoints(t *testing.T, guestID uuid.UUID) int64 {
	t.Helper()
	account, err := f.walletsSvc.Balance(context.Background(), wallets.AccountRef{OwnerID: guestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespacePoints})
	if err != nil {
		t.Fatalf("guest points balance: %v", err)
	}
	return account.BalanceCents
}

func TestReconcilePaysHostOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	booking := f.seedBooking(t, enums.BookingStatusConfirmed, enums.PaymentStatusPaid)

	result, err := f.svc.Reconcile(ctx, booking.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.AlreadyPaid {
		t.Fatal("first reconcile should not report already paid")
	}
	if result.PayoutCents != 3000 {
		t.Fatalf("payout = %d, want 3000 (total - fee)", result.PayoutCents)
	}
	if result.PointsAward != 100 {
		t.Fatalf("points award = %d, want 100", result.PointsAward)
	}
	if result.GuestPointsAward != 50 {
		t.Fatalf("guest points award = %d, want 50", result.GuestPointsAward)
	}

	if got := f.hostBalance(t, booking.HostID, enums.AccountNamespaceWallet); got != 3000 {
		t.Fatalf("host wallet = %d, want 3000", got)
	}
	if got := f.hostBalance(t, booking.HostID, enums.AccountNamespacePoints); got != 100 {
		t.Fatalf("host points = %d, want 100", got)
	}
	if got := f.guestPoints(t, booking.GuestID); got != 50 {
		t.Fatalf("guest points = %d, want 50", got)
	}

	stamped, err := f.repo.GetByID(ctx, booking.ID)
	if err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	if stamped.PayoutStatus != enums.PayoutStatusCompleted || stamped.PayoutAmountCents != 3000 || stamped.PayoutAt == nil {
		t.Fatalf("payout fields not stamped: %+v", stamped)
	}

	// Double fire: must be a no-op.
	again, err := f.svc.Reconcile(ctx, booking.ID)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if !again.AlreadyPaid {
		t.Fatal("second reconcile should report already paid")
	}
	if got := f.hostBalance(t, booking.HostID, enums.AccountNamespaceWallet); got != 3000 {
		t.Fatalf("double fire credited twice: %d", got)
	}
	if got := f.hostBalance(t, booking.HostID, enums.AccountNamespacePoints); got != 100 {
		t.Fatalf("double fire awarded points twice: %d", got)
	}
	if got := f.guestPoints(t, booking.GuestID); got != 50 {
		t.Fatalf("double fire awarded guest points twice: %d", got)
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventBookingPayoutCompleted {
		t.Fatalf("expected exactly one payout event, got %d", len(f.outbox.events))
	}
}

func TestReconcileAwardsGuestPointsAfterConfirmation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// Gateway booking that settled pending and was confirmed later: no loyalty
	// effects have happened yet, reconciliation owes the guest their award.
	booking := f.seedBooking(t, enums.BookingStatusPending, enums.PaymentStatusPending)
	if err := f.repo.UpdatePaymentState(ctx, booking.ID, enums.BookingStatusConfirmed, enums.PaymentStatusPaid); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	result, err := f.svc.Reconcile(ctx, booking.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.GuestPointsAward != 50 {
		t.Fatalf("guest points award = %d, want 50", result.GuestPointsAward)
	}
	if got := f.guestPoints(t, booking.GuestID); got != 50 {
		t.Fatalf("guest points = %d, want 50", got)
	}
	if got := f.hostBalance(t, booking.HostID, enums.AccountNamespaceWallet); got != 3000 {
		t.Fatalf("host wallet = %d, want 3000", got)
	}
}

func TestReconcileRejectsUnconfirmed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	booking := f.seedBooking(t, enums.BookingStatusPending, enums.PaymentStatusPending)

	_, err := f.svc.Reconcile(ctx, booking.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if got := f.hostBalance(t, booking.HostID, enums.AccountNamespaceWallet); got != 0 {
		t.Fatalf("unconfirmed booking must not pay out, got %d", got)
	}
}

func TestReconcileMissingBooking(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Reconcile(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReconcilePayoutNeverNegative(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	booking := f.seedBooking(t, enums.BookingStatusConfirmed, enums.PaymentStatusPaid)

	// Fully discounted booking: total 0, fee 0.
	err := f.db.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(map[string]any{
		"subtotal_cents":    0,
		"service_fee_cents": 0,
		"total_cents":       0,
	}).Error
	if err != nil {
		t.Fatalf("zero out booking: %v", err)
	}

	result, err := f.svc.Reconcile(ctx, booking.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.PayoutCents != 0 {
		t.Fatalf("payout = %d, want 0", result.PayoutCents)
	}
	if got := f.hostBalance(t, booking.HostID, enums.AccountNamespaceWallet); got != 0 {
		t.Fatalf("zero payout must not credit, got %d", got)
	}
	// Points still accrue for the confirmed booking.
	if got := f.hostBalance(t, booking.HostID, enums.AccountNamespacePoints); got != 100 {
		t.Fatalf("host points = %d, want 100", got)
	}

	var reconciledAt time.Time
	if result.ReconciledAt == reconciledAt {
		t.Fatal("reconciled timestamp must be set")
	}
}
