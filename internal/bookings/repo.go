package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/pkg/db"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
)

// ListFilter pages through a guest's bookings, newest first.
type ListFilter struct {
	GuestID uuid.UUID
	Cursor  *time.Time
	Limit   int
}

// PayoutStamp freezes the payout fields once the host has been paid.
type PayoutStamp struct {
	Status      enums.PayoutStatus
	AmountCents int64
	PaidAt      time.Time
}

// Repository manages booking persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByGuest(ctx context.Context, filter ListFilter) ([]models.Booking, error)
	ListUnreconciled(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	UpdatePaymentState(ctx context.Context, id uuid.UUID, status enums.BookingStatus, payment enums.PaymentStatus) error
	StampPayout(ctx context.Context, id uuid.UUID, stamp PayoutStamp) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a booking repository bound to the provided database.
func NewRepository(database *gorm.DB) Repository {
	return &repository{db: database}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate locks the booking row for the payout reconciliation
// read-check-write sequence.
func (r *repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return r.get(ctx, id, true)
}

func (r *repository) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Booking, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if forUpdate {
		query = db.LockForUpdate(query)
	}

	var booking models.Booking
	err := query.First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByGuest(ctx context.Context, filter ListFilter) ([]models.Booking, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := r.db.WithContext(ctx).
		Where("guest_id = ?", filter.GuestID).
		Order("created_at DESC").
		Limit(limit)
	if filter.Cursor != nil {
		query = query.Where("created_at < ?", *filter.Cursor)
	}

	var rows []models.Booking
	err := query.Find(&rows).Error
	return rows, err
}

// ListUnreconciled returns ids of paid bookings whose host payout has not
// been released yet. Used by the reconciliation sweep to catch bookings whose
// settled event was lost or never acked.
func (r *repository) ListUnreconciled(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("payment_status = ? AND payout_status = ? AND updated_at < ?",
			enums.PaymentStatusPaid, enums.PayoutStatusNone, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) UpdatePaymentState(ctx context.Context, id uuid.UUID, status enums.BookingStatus, payment enums.PaymentStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         status,
			"payment_status": payment,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return nil
}

func (r *repository) StampPayout(ctx context.Context, id uuid.UUID, stamp PayoutStamp) error {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payout_status":       stamp.Status,
			"payout_amount_cents": stamp.AmountCents,
			"payout_at":           stamp.PaidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return nil
}
