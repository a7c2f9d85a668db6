package offers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:offers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Offer{}, &models.OfferRedemption{}); err != nil {
		t.Fatalf("migrate offers: %v", err)
	}
	return db
}

func seedCoupon(t *testing.T, db *gorm.DB, hostID uuid.UUID, code string) *models.Offer {
	t.Helper()
	offer := &models.Offer{
		ID:            uuid.New(),
		HostID:        hostID,
		Kind:          enums.OfferKindCoupon,
		Code:          &code,
		Scope:         enums.OfferScopeAll,
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: 500,
		IsActive:      true,
	}
	if err := db.Create(offer).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return offer
}

func TestFindCouponByCode(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedCoupon(t, db, uuid.New(), "SUMMER500")

	got, err := repo.FindCouponByCode(ctx, "  summer500 ")
	if err != nil {
		t.Fatalf("FindCouponByCode error: %v", err)
	}
	if got.ID != seeded.ID {
		t.Fatalf("expected coupon %s, got %s", seeded.ID, got.ID)
	}

	_, err = repo.FindCouponByCode(ctx, "NOPE")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = repo.FindCouponByCode(ctx, "   ")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListActivePromosForHost(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	hostID := uuid.New()

	promo := &models.Offer{ID: uuid.New(), HostID: hostID, Kind: enums.OfferKindPromo, Scope: enums.OfferScopeAll, DiscountType: enums.DiscountTypePercentage, DiscountValue: 10, IsActive: true}
	inactive := &models.Offer{ID: uuid.New(), HostID: hostID, Kind: enums.OfferKindPromo, Scope: enums.OfferScopeAll, DiscountType: enums.DiscountTypePercentage, DiscountValue: 20, IsActive: false}
	otherHost := &models.Offer{ID: uuid.New(), HostID: uuid.New(), Kind: enums.OfferKindPromo, Scope: enums.OfferScopeAll, DiscountType: enums.DiscountTypePercentage, DiscountValue: 30, IsActive: true}
	for _, o := range []*models.Offer{promo, inactive, otherHost} {
		if err := db.Create(o).Error; err != nil {
			t.Fatalf("seed promo: %v", err)
		}
	}

	rows, err := repo.ListActivePromosForHost(ctx, hostID)
	if err != nil {
		t.Fatalf("ListActivePromosForHost error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != promo.ID {
		t.Fatalf("expected only the active host promo, got %d rows", len(rows))
	}
}

func TestRedemptionCountsAndAudit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	offer := seedCoupon(t, db, uuid.New(), "AUDIT100")
	guestA := uuid.New()
	guestB := uuid.New()
	bookingID := uuid.New()

	rows := []*models.OfferRedemption{
		{ID: uuid.New(), OfferID: offer.ID, GuestID: guestA, BookingID: bookingID, AmountCents: 500},
		{ID: uuid.New(), OfferID: offer.ID, GuestID: guestB, BookingID: uuid.New(), AmountCents: 500},
	}
	for _, row := range rows {
		if err := repo.CreateRedemption(ctx, row); err != nil {
			t.Fatalf("create redemption: %v", err)
		}
	}

	total, err := repo.CountRedemptions(ctx, offer.ID)
	if err != nil {
		t.Fatalf("CountRedemptions error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 redemptions, got %d", total)
	}

	byGuest, err := repo.CountRedemptionsByGuest(ctx, offer.ID, guestA)
	if err != nil {
		t.Fatalf("CountRedemptionsByGuest error: %v", err)
	}
	if byGuest != 1 {
		t.Fatalf("expected 1 redemption for guest, got %d", byGuest)
	}

	audit, err := repo.RedemptionForBooking(ctx, bookingID)
	if err != nil {
		t.Fatalf("RedemptionForBooking error: %v", err)
	}
	if audit.OfferID != offer.ID || audit.AmountCents != 500 {
		t.Fatalf("unexpected audit row: %+v", audit)
	}
}

func TestRedemptionUniquePerBookingOffer(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	offer := seedCoupon(t, db, uuid.New(), "ONCE")
	bookingID := uuid.New()

	first := &models.OfferRedemption{ID: uuid.New(), OfferID: offer.ID, GuestID: uuid.New(), BookingID: bookingID, AmountCents: 500}
	if err := repo.CreateRedemption(ctx, first); err != nil {
		t.Fatalf("first redemption: %v", err)
	}

	dup := &models.OfferRedemption{ID: uuid.New(), OfferID: offer.ID, GuestID: uuid.New(), BookingID: bookingID, AmountCents: 500}
	if err := repo.CreateRedemption(ctx, dup); err == nil {
		t.Fatal("expected unique violation for duplicate booking+offer redemption")
	}
}
