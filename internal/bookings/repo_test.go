package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
)

func setupBookingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:bookings_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Booking{}))
	return db
}

func seedBooking(t *testing.T, db *gorm.DB, payment enums.PaymentStatus, payout enums.PayoutStatus, updatedAt time.Time) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		ID:               uuid.New(),
		GuestID:          uuid.New(),
		HostID:           uuid.New(),
		ListingID:        uuid.New(),
		Status:           enums.BookingStatusConfirmed,
		PaymentMethod:    enums.PaymentMethodWallet,
		PaymentStatus:    payment,
		Participants:     1,
		Currency:         enums.CurrencyPHP,
		RawSubtotalCents: 10000,
		SubtotalCents:    9000,
		ServiceFeeCents:  900,
		TotalCents:       9900,
		PayoutStatus:     payout,
	}
	require.NoError(t, db.Create(booking).Error)
	// autoUpdateTime stamps rows with now; pin updated_at for cutoff checks.
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", booking.ID).
		UpdateColumn("updated_at", updatedAt).Error)
	return booking
}

func TestListUnreconciledFiltersByStateAndCutoff(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	stale := cutoff.Add(-48 * time.Hour)
	fresh := cutoff.Add(time.Hour)

	eligible := seedBooking(t, db, enums.PaymentStatusPaid, enums.PayoutStatusNone, stale)
	seedBooking(t, db, enums.PaymentStatusPaid, enums.PayoutStatusCompleted, stale)
	seedBooking(t, db, enums.PaymentStatusPending, enums.PayoutStatusNone, stale)
	seedBooking(t, db, enums.PaymentStatusPaid, enums.PayoutStatusNone, fresh)

	ids, err := repo.ListUnreconciled(context.Background(), cutoff, 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, eligible.ID, ids[0])
}

func TestListUnreconciledOrdersOldestFirstAndHonorsLimit(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	oldest := seedBooking(t, db, enums.PaymentStatusPaid, enums.PayoutStatusNone, cutoff.Add(-72*time.Hour))
	middle := seedBooking(t, db, enums.PaymentStatusPaid, enums.PayoutStatusNone, cutoff.Add(-48*time.Hour))
	seedBooking(t, db, enums.PaymentStatusPaid, enums.PayoutStatusNone, cutoff.Add(-24*time.Hour))

	ids, err := repo.ListUnreconciled(context.Background(), cutoff, 2)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, oldest.ID, ids[0])
	assert.Equal(t, middle.ID, ids[1])
}

func TestStampPayoutFreezesPayoutFields(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	booking := seedBooking(t, db, enums.PaymentStatusPaid, enums.PayoutStatusNone, time.Now().UTC())
	paidAt := time.Date(2026, 2, 15, 9, 30, 0, 0, time.UTC)

	err := repo.StampPayout(context.Background(), booking.ID, PayoutStamp{
		Status:      enums.PayoutStatusCompleted,
		AmountCents: 8100,
		PaidAt:      paidAt,
	})
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusCompleted, stored.PayoutStatus)
	assert.Equal(t, int64(8100), stored.PayoutAmountCents)
	require.NotNil(t, stored.PayoutAt)
	assert.True(t, stored.PayoutAt.Equal(paidAt))
}

func TestStampPayoutUnknownBooking(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)

	err := repo.StampPayout(context.Background(), uuid.New(), PayoutStamp{
		Status:      enums.PayoutStatusCompleted,
		AmountCents: 100,
		PaidAt:      time.Now().UTC(),
	})
	require.Error(t, err)
}
