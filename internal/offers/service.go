package offers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/pkg/db/models"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
)

// Service exposes offer lookups used by quoting and settlement.
type Service interface {
	ValidateCoupon(ctx context.Context, input ValidateCouponInput) (*CouponValidation, error)
	ActivePromos(ctx context.Context, hostID uuid.UUID) ([]models.Offer, error)
	UsageFor(ctx context.Context, offerID, guestID uuid.UUID) (UsageCounts, error)
}

// ValidateCouponInput identifies the coupon and the booking context it would
// discount.
type ValidateCouponInput struct {
	Code             string
	ListingID        uuid.UUID
	GuestID          uuid.UUID
	ReferenceDate    time.Time
	RawSubtotalCents int64
}

// CouponValidation reports the matched coupon and the discount it would take
// off the raw subtotal at validation time.
type CouponValidation struct {
	Offer         *models.Offer
	DiscountCents int64
}

type service struct {
	repo   Repository
	promos *PromoCache
}

// NewService wires the offer service.
func NewService(repo Repository, promos *PromoCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offer repository required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promo cache required")
	}
	return &service{repo: repo, promos: promos}, nil
}

func (s *service) ValidateCoupon(ctx context.Context, input ValidateCouponInput) (*CouponValidation, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	if input.RawSubtotalCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raw subtotal must be positive")
	}

	offer, err := s.repo.FindCouponByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}

	usage, err := s.UsageFor(ctx, offer.ID, input.GuestID)
	if err != nil {
		return nil, err
	}
	if err := Eligible(offer, input.ListingID, input.ReferenceDate, input.RawSubtotalCents, usage); err != nil {
		return nil, err
	}

	return &CouponValidation{
		Offer:         offer,
		DiscountCents: DiscountAmount(offer, input.RawSubtotalCents),
	}, nil
}

func (s *service) ActivePromos(ctx context.Context, hostID uuid.UUID) ([]models.Offer, error) {
	if hostID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "host id is required")
	}
	return s.promos.ActivePromos(ctx, hostID)
}

// UsageFor counts prior redemptions globally and for one guest. Counts read
// outside the settlement transaction are advisory.
func (s *service) UsageFor(ctx context.Context, offerID, guestID uuid.UUID) (UsageCounts, error) {
	total, err := s.repo.CountRedemptions(ctx, offerID)
	if err != nil {
		return UsageCounts{}, err
	}
	byGuest := int64(0)
	if guestID != uuid.Nil {
		byGuest, err = s.repo.CountRedemptionsByGuest(ctx, offerID, guestID)
		if err != nil {
			return UsageCounts{}, err
		}
	}
	return UsageCounts{Total: total, ByGuest: byGuest}, nil
}
