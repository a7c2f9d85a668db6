package offers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
)

// Repository manages offers and their redemption audit rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindCouponByCode(ctx context.Context, code string) (*models.Offer, error)
	ListActivePromosForHost(ctx context.Context, hostID uuid.UUID) ([]models.Offer, error)
	CountRedemptions(ctx context.Context, offerID uuid.UUID) (int64, error)
	CountRedemptionsByGuest(ctx context.Context, offerID, guestID uuid.UUID) (int64, error)
	CreateRedemption(ctx context.Context, redemption *models.OfferRedemption) error
	RedemptionForBooking(ctx context.Context, bookingID uuid.UUID) (*models.OfferRedemption, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an offer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).First(&offer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindCouponByCode(ctx context.Context, code string) (*models.Offer, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("kind = ? AND code = ?", enums.OfferKindCoupon, normalized).
		First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, err
	}
	return &offer, nil
}

func (r *repository) ListActivePromosForHost(ctx context.Context, hostID uuid.UUID) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Where("host_id = ? AND kind = ? AND is_active = ?", hostID, enums.OfferKindPromo, true).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CountRedemptions(ctx context.Context, offerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OfferRedemption{}).
		Where("offer_id = ?", offerID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountRedemptionsByGuest(ctx context.Context, offerID, guestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OfferRedemption{}).
		Where("offer_id = ? AND guest_id = ?", offerID, guestID).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *models.OfferRedemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *repository) RedemptionForBooking(ctx context.Context, bookingID uuid.UUID) (*models.OfferRedemption, error) {
	var row models.OfferRedemption
	err := r.db.WithContext(ctx).First(&row, "booking_id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "redemption not found")
		}
		return nil, err
	}
	return &row, nil
}
