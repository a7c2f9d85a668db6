package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/internal/availability"
	"github.com/haventrip/haventrip-backend/internal/listings"
	"github.com/haventrip/haventrip-backend/internal/offers"
	"github.com/haventrip/haventrip-backend/internal/pricing"
	"github.com/haventrip/haventrip-backend/internal/wallets"
	"github.com/haventrip/haventrip-backend/pkg/config"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/gateway"
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

func (c *captureOutbox) typesSeen() []enums.OutboxEventType {
	var types []enums.OutboxEventType
	for _, e := range c.events {
		types = append(types, e.EventType)
	}
	return types
}

type directPromos struct {
	repo offers.Repository
}

func (d directPromos) ActivePromos(ctx context.Context, hostID uuid.UUID) ([]models.Offer, error) {
	return d.repo.ListActivePromosForHost(ctx, hostID)
}

type fakeCapturer struct {
	status   gateway.CaptureStatus
	err      error
	captured []gateway.CaptureParams
}

func (f *fakeCapturer) Capture(ctx context.Context, params gateway.CaptureParams) (*gateway.CaptureResult, error) {
	f.captured = append(f.captured, params)
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.CaptureResult{PaymentID: "pay_" + uuid.NewString()[:8], Status: f.status}, nil
}

type settleFixture struct {
	db         *gorm.DB
	svc        Service
	walletsSvc wallets.Service
	offersRepo offers.Repository
	outbox     *captureOutbox
	capturer   *fakeCapturer
	platformID uuid.UUID
}

func newFixture(t *testing.T) *settleFixture {
	t.Helper()

	dsn := "file:bookings_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Listing{}, &models.Offer{}, &models.OfferRedemption{},
		&models.Booking{}, &models.NightLock{}, &models.SlotLock{},
		&models.WalletAccount{}, &models.LedgerEntry{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	offersRepo := offers.NewRepository(db)
	walletsSvc, err := wallets.NewService(wallets.NewRepository(db))
	if err != nil {
		t.Fatalf("wallet service: %v", err)
	}
	guard, err := availability.NewGuard(db)
	if err != nil {
		t.Fatalf("guard: %v", err)
	}

	publisher := &captureOutbox{}
	capturer := &fakeCapturer{status: gateway.CaptureCompleted}
	platformID := uuid.New()

	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(db),
		Listings:   listings.NewRepository(db),
		Offers:     offersRepo,
		Promos:     directPromos{repo: offersRepo},
		Guard:      guard,
		Wallets:    walletsSvc,
		Tx:         testTxRunner{db: db},
		Outbox:     publisher,
		Capturer:   capturer,
		Fees:       pricing.NewFeeSchedule(config.FeesConfig{StayRateBps: 1000, ExperienceRateBps: 2000, ServiceRateBps: 1200}),
		Loyalty:    config.LoyaltyConfig{GuestPointsPerBooking: 50, HostPointsPerBooking: 100},
		PlatformID: platformID,
		Currency:   enums.CurrencyPHP,
	})
	if err != nil {
		t.Fatalf("booking service: %v", err)
	}

	return &settleFixture{
		db:         db,
		svc:        svc,
		walletsSvc: walletsSvc,
		offersRepo: offersRepo,
		outbox:     publisher,
		capturer:   capturer,
		platformID: platformID,
	}
}

func (f *settleFixture) seedListing(t *testing.T, priceCents int64) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		ID:           uuid.New(),
		HostID:       uuid.New(),
		Title:        "Seafront loft",
		Category:     enums.ListingCategoryStay,
		UnitType:     enums.UnitTypePerNight,
		PriceCents:   priceCents,
		Currency:     enums.CurrencyPHP,
		DiscountType: enums.DiscountTypeNone,
		IsActive:     true,
	}
	if err := f.db.Create(listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return listing
}

func (f *settleFixture) seedSlotListing(t *testing.T, priceCents int64, capacity int) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		ID:           uuid.New(),
		HostID:       uuid.New(),
		Title:        "Island hopping tour",
		Category:     enums.ListingCategoryExperience,
		UnitType:     enums.UnitTypePerParticipant,
		PriceCents:   priceCents,
		Currency:     enums.CurrencyPHP,
		DiscountType: enums.DiscountTypeNone,
		Capacity:     capacity,
		IsActive:     true,
	}
	if err := f.db.Create(listing).Error; err != nil {
		t.Fatalf("seed slot listing: %v", err)
	}
	return listing
}

func (f *settleFixture) fundGuest(t *testing.T, guestID uuid.UUID, amountCents int64) {
	t.Helper()
	ctx := context.Background()
	ref := wallets.AccountRef{OwnerID: guestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespaceWallet}
	if _, err := f.walletsSvc.EnsureAccount(ctx, ref, enums.CurrencyPHP); err != nil {
		t.Fatalf("ensure guest wallet: %v", err)
	}
	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, terr := f.walletsSvc.Credit(ctx, tx, wallets.MovementInput{Account: ref, AmountCents: amountCents, Type: enums.LedgerEntryTypeAdjustment})
		return terr
	})
	if err != nil {
		t.Fatalf("fund guest: %v", err)
	}
}

func (f *settleFixture) ensureAccounts(t *testing.T, listing *models.Listing, guestID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	refs := []wallets.AccountRef{
		{OwnerID: listing.HostID, Kind: enums.AccountKindHost, Namespace: enums.AccountNamespaceWallet},
		{OwnerID: f.platformID, Kind: enums.AccountKindPlatform, Namespace: enums.AccountNamespaceWallet},
		{OwnerID: guestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespacePoints},
		{OwnerID: listing.HostID, Kind: enums.AccountKindHost, Namespace: enums.AccountNamespacePoints},
	}
	for _, ref := range refs {
		if _, err := f.walletsSvc.EnsureAccount(ctx, ref, enums.CurrencyPHP); err != nil {
			t.Fatalf("ensure account %v: %v", ref, err)
		}
	}
}

func (f *settleFixture) balance(t *testing.T, ref wallets.AccountRef) int64 {
	t.Helper()
	account, err := f.walletsSvc.Balance(context.Background(), ref)
	if err != nil {
		t.Fatalf("balance %v: %v", ref, err)
	}
	return account.BalanceCents
}

func nightInput(listing *models.Listing, guestID uuid.UUID, nights int) SettleInput {
	checkIn := time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, nights)
	return SettleInput{
		GuestID:       guestID,
		ListingID:     listing.ID,
		CheckIn:       &checkIn,
		CheckOut:      &checkOut,
		Participants:  1,
		PaymentMethod: enums.PaymentMethodWallet,
	}
}

func TestSettleWalletPath(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, 1000)
	guestID := uuid.New()
	f.fundGuest(t, guestID, 10000)
	f.ensureAccounts(t, listing, guestID)

	result, err := f.svc.Settle(ctx, nightInput(listing, guestID, 3))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if result.Status != enums.BookingStatusConfirmed || result.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("unexpected result state: %+v", result)
	}
	if result.TotalCents != 3300 {
		t.Fatalf("total = %d, want 3300", result.TotalCents)
	}
	if result.HostPayoutCents != 3000 {
		t.Fatalf("host payout = %d, want 3000", result.HostPayoutCents)
	}
	if result.GuestPointsAwarded != 50 || result.HostPointsAwarded != 100 {
		t.Fatalf("points = %d/%d, want 50/100", result.GuestPointsAwarded, result.HostPointsAwarded)
	}

	guestWallet := f.balance(t, wallets.AccountRef{OwnerID: guestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespaceWallet})
	if guestWallet != 6700 {
		t.Fatalf("guest balance = %d, want 6700", guestWallet)
	}
	hostWallet := f.balance(t, wallets.AccountRef{OwnerID: listing.HostID, Kind: enums.AccountKindHost, Namespace: enums.AccountNamespaceWallet})
	if hostWallet != 3000 {
		t.Fatalf("host balance = %d, want 3000", hostWallet)
	}
	platformWallet := f.balance(t, wallets.AccountRef{OwnerID: f.platformID, Kind: enums.AccountKindPlatform, Namespace: enums.AccountNamespaceWallet})
	if platformWallet != 300 {
		t.Fatalf("platform balance = %d, want 300", platformWallet)
	}
	guestPoints := f.balance(t, wallets.AccountRef{OwnerID: guestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespacePoints})
	if guestPoints != 50 {
		t.Fatalf("guest points = %d, want 50", guestPoints)
	}
	hostPoints := f.balance(t, wallets.AccountRef{OwnerID: listing.HostID, Kind: enums.AccountKindHost, Namespace: enums.AccountNamespacePoints})
	if hostPoints != 100 {
		t.Fatalf("host points = %d, want 100", hostPoints)
	}

	booking, err := f.svc.Get(ctx, result.BookingID)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if booking.PayoutStatus != enums.PayoutStatusCompleted || booking.PayoutAmountCents != 3000 {
		t.Fatalf("wallet path should complete payout at settlement: %+v", booking)
	}
	if booking.TotalCents != booking.SubtotalCents+booking.ServiceFeeCents {
		t.Fatalf("total invariant broken on stored booking")
	}

	var lockCount int64
	if err := f.db.Model(&models.NightLock{}).Where("booking_id = ?", result.BookingID).Count(&lockCount).Error; err != nil {
		t.Fatalf("count locks: %v", err)
	}
	if lockCount != 3 {
		t.Fatalf("expected 3 night locks, got %d", lockCount)
	}

	types := f.outbox.typesSeen()
	if len(types) != 1 || types[0] != enums.EventBookingSettled {
		t.Fatalf("expected one booking_settled event, got %v", types)
	}
}

func TestSettleInsufficientFundsNoTransaction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, 500)
	guestID := uuid.New()
	f.fundGuest(t, guestID, 1000)
	f.ensureAccounts(t, listing, guestID)

	_, err := f.svc.Settle(ctx, nightInput(listing, guestID, 3))
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	var bookingCount int64
	if err := f.db.Model(&models.Booking{}).Count(&bookingCount).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if bookingCount != 0 {
		t.Fatalf("rejected settle must not create a booking, got %d", bookingCount)
	}
	if got := f.balance(t, wallets.AccountRef{OwnerID: guestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespaceWallet}); got != 1000 {
		t.Fatalf("guest balance must be untouched, got %d", got)
	}
	if len(f.outbox.events) != 0 {
		t.Fatalf("no events expected, got %v", f.outbox.typesSeen())
	}
}

func TestSettleCapacityConflictSecondGuest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, 1000)

	guestA := uuid.New()
	guestB := uuid.New()
	for _, guest := range []uuid.UUID{guestA, guestB} {
		f.fundGuest(t, guest, 10000)
		f.ensureAccounts(t, listing, guest)
	}

	if _, err := f.svc.Settle(ctx, nightInput(listing, guestA, 2)); err != nil {
		t.Fatalf("first settle: %v", err)
	}

	_, err := f.svc.Settle(ctx, nightInput(listing, guestB, 2))
	if !pkgerrors.IsCode(err, pkgerrors.CodeCapacityConflict) {
		t.Fatalf("expected capacity conflict, got %v", err)
	}
	if got := f.balance(t, wallets.AccountRef{OwnerID: guestB, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespaceWallet}); got != 10000 {
		t.Fatalf("losing guest must not be charged, got %d", got)
	}

	var bookingCount int64
	if err := f.db.Model(&models.Booking{}).Count(&bookingCount).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if bookingCount != 1 {
		t.Fatalf("exactly one booking should commit, got %d", bookingCount)
	}
}

func TestSettleSlotLastSeat(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedSlotListing(t, 2500, 1)

	slotDate := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	slotTime := "08:00"
	makeInput := func(guestID uuid.UUID) SettleInput {
		return SettleInput{
			GuestID:       guestID,
			ListingID:     listing.ID,
			SlotDate:      &slotDate,
			SlotTime:      &slotTime,
			Participants:  1,
			PaymentMethod: enums.PaymentMethodWallet,
		}
	}

	guestA := uuid.New()
	guestB := uuid.New()
	for _, guest := range []uuid.UUID{guestA, guestB} {
		f.fundGuest(t, guest, 10000)
		f.ensureAccounts(t, listing, guest)
	}

	committed, conflicts := 0, 0
	for _, guest := range []uuid.UUID{guestA, guestB} {
		_, err := f.svc.Settle(ctx, makeInput(guest))
		switch {
		case err == nil:
			committed++
		case pkgerrors.IsCode(err, pkgerrors.CodeCapacityConflict):
			conflicts++
		default:
			t.Fatalf("unexpected settle error: %v", err)
		}
	}
	if committed != 1 || conflicts != 1 {
		t.Fatalf("last seat: committed=%d conflicts=%d", committed, conflicts)
	}
}

func TestSettleGatewayPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, 1000)
	guestID := uuid.New()
	f.ensureAccounts(t, listing, guestID)
	f.capturer.status = gateway.CapturePending

	input := nightInput(listing, guestID, 2)
	input.PaymentMethod = enums.PaymentMethodCardGateway
	input.PaymentSourceID = "cnon:card-nonce"

	result, err := f.svc.Settle(ctx, input)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if result.Status != enums.BookingStatusPending || result.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("pending capture should record a pending booking: %+v", result)
	}

	var entryCount int64
	if err := f.db.Model(&models.LedgerEntry{}).Count(&entryCount).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entryCount != 0 {
		t.Fatalf("pending capture must not touch ledgers, got %d entries", entryCount)
	}

	var lockCount int64
	if err := f.db.Model(&models.NightLock{}).Count(&lockCount).Error; err != nil {
		t.Fatalf("count locks: %v", err)
	}
	if lockCount != 2 {
		t.Fatalf("pending booking still reserves capacity, got %d locks", lockCount)
	}

	booking, err := f.svc.Get(ctx, result.BookingID)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if booking.GatewayPaymentID == nil || *booking.GatewayPaymentID == "" {
		t.Fatal("gateway payment id must be recorded")
	}

	types := f.outbox.typesSeen()
	if len(types) != 1 || types[0] != enums.EventBookingPending {
		t.Fatalf("expected booking_pending event, got %v", types)
	}
}

func TestSettleGatewayCompletedDefersHostPayout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, 1000)
	guestID := uuid.New()
	f.ensureAccounts(t, listing, guestID)
	f.capturer.status = gateway.CaptureCompleted

	input := nightInput(listing, guestID, 2)
	input.PaymentMethod = enums.PaymentMethodCardGateway
	input.PaymentSourceID = "cnon:card-nonce"

	result, err := f.svc.Settle(ctx, input)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if result.Status != enums.BookingStatusConfirmed || result.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("completed capture should confirm: %+v", result)
	}

	// Money and loyalty come from payout reconciliation, not settlement.
	hostWallet := f.balance(t, wallets.AccountRef{OwnerID: listing.HostID, Kind: enums.AccountKindHost, Namespace: enums.AccountNamespaceWallet})
	if hostWallet != 0 {
		t.Fatalf("gateway path must defer host payout, host balance = %d", hostWallet)
	}
	hostPoints := f.balance(t, wallets.AccountRef{OwnerID: listing.HostID, Kind: enums.AccountKindHost, Namespace: enums.AccountNamespacePoints})
	if hostPoints != 0 {
		t.Fatalf("gateway path must defer host points, got %d", hostPoints)
	}
	guestPoints := f.balance(t, wallets.AccountRef{OwnerID: guestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespacePoints})
	if guestPoints != 0 {
		t.Fatalf("gateway path must defer guest points, got %d", guestPoints)
	}

	booking, err := f.svc.Get(ctx, result.BookingID)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if booking.PayoutStatus != enums.PayoutStatusNone {
		t.Fatalf("payout must remain open for reconciliation, got %s", booking.PayoutStatus)
	}
}

func TestSettleGatewayDeclined(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, 1000)
	guestID := uuid.New()
	f.ensureAccounts(t, listing, guestID)
	f.capturer.status = gateway.CaptureDeclined

	input := nightInput(listing, guestID, 2)
	input.PaymentMethod = enums.PaymentMethodCardGateway
	input.PaymentSourceID = "cnon:card-nonce"

	_, err := f.svc.Settle(ctx, input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeGatewayDeclined) {
		t.Fatalf("expected gateway declined, got %v", err)
	}

	var bookingCount int64
	if err := f.db.Model(&models.Booking{}).Count(&bookingCount).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if bookingCount != 0 {
		t.Fatalf("declined capture must not create a booking, got %d", bookingCount)
	}
}

func TestSettleCouponAuditAndCapRecount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, 1000)

	code := "ONceOnly"
	coupon := &models.Offer{
		ID:            uuid.New(),
		HostID:        listing.HostID,
		Kind:          enums.OfferKindCoupon,
		Code:          strToPtr("ONCEONLY"),
		Scope:         enums.OfferScopeAll,
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: 500,
		MaxUses:       1,
		IsActive:      true,
	}
	if err := f.db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}

	guestA := uuid.New()
	guestB := uuid.New()
	for _, guest := range []uuid.UUID{guestA, guestB} {
		f.fundGuest(t, guest, 10000)
		f.ensureAccounts(t, listing, guest)
	}

	inputA := nightInput(listing, guestA, 2)
	inputA.CouponCode = code
	result, err := f.svc.Settle(ctx, inputA)
	if err != nil {
		t.Fatalf("first coupon settle: %v", err)
	}
	if result.Breakdown.CouponDiscountCents != 500 {
		t.Fatalf("coupon discount = %d, want 500", result.Breakdown.CouponDiscountCents)
	}

	audit, err := f.offersRepo.RedemptionForBooking(ctx, result.BookingID)
	if err != nil {
		t.Fatalf("load redemption audit: %v", err)
	}
	if audit.OfferID != coupon.ID || audit.AmountCents != 500 {
		t.Fatalf("unexpected audit row: %+v", audit)
	}

	// The cap is exhausted; the second guest must be rejected even though
	// the coupon looked valid when loaded.
	inputB := nightInput(listing, guestB, 3)
	inputB.CheckIn = timePtr(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC))
	inputB.CheckOut = timePtr(time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC))
	inputB.CouponCode = code
	_, err = f.svc.Settle(ctx, inputB)
	if !pkgerrors.IsCode(err, pkgerrors.CodeIneligible) {
		t.Fatalf("expected ineligible on exhausted coupon, got %v", err)
	}
}

func TestSettleInactiveListing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, 1000)
	if err := f.db.Model(&models.Listing{}).Where("id = ?", listing.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate listing: %v", err)
	}

	guestID := uuid.New()
	f.fundGuest(t, guestID, 10000)

	_, err := f.svc.Settle(ctx, nightInput(listing, guestID, 2))
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for inactive listing, got %v", err)
	}
}

func strToPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
