package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haventrip/haventrip-backend/internal/offers"
	"github.com/haventrip/haventrip-backend/pkg/config"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
)

// FeeSchedule carries the per-category service-fee rates in basis points.
type FeeSchedule struct {
	StayRateBps       int64
	ExperienceRateBps int64
	ServiceRateBps    int64
}

// NewFeeSchedule builds a schedule from the fee configuration.
func NewFeeSchedule(cfg config.FeesConfig) FeeSchedule {
	return FeeSchedule{
		StayRateBps:       int64(cfg.StayRateBps),
		ExperienceRateBps: int64(cfg.ExperienceRateBps),
		ServiceRateBps:    int64(cfg.ServiceRateBps),
	}
}

// RateBps returns the fee rate for a listing category.
func (f FeeSchedule) RateBps(category enums.ListingCategory) int64 {
	switch category {
	case enums.ListingCategoryExperience:
		return f.ExperienceRateBps
	case enums.ListingCategoryService:
		return f.ServiceRateBps
	default:
		return f.StayRateBps
	}
}

// RewardSelection is an optional loyalty-reward redemption applied as the
// final discount stage.
type RewardSelection struct {
	DiscountType  enums.DiscountType
	DiscountValue int64
}

// QuoteInput carries everything a price computation needs. Quote itself never
// touches external state; catalogs and usage counts are loaded by the caller.
type QuoteInput struct {
	Listing       *models.Listing
	Quantity      int64
	ReferenceDate time.Time
	Promos        []models.Offer
	Coupon        *models.Offer
	CouponUsage   offers.UsageCounts
	PromoUsageFor func(offerID uuid.UUID) offers.UsageCounts
	Reward        *RewardSelection
}

// Breakdown is the full per-stage price decomposition of one quote.
type Breakdown struct {
	Quantity             int64      `json:"quantity"`
	Currency             string     `json:"currency"`
	RawSubtotalCents     int64      `json:"raw_subtotal_cents"`
	ListingDiscountCents int64      `json:"listing_discount_cents"`
	PromoID              *uuid.UUID `json:"promo_id,omitempty"`
	PromoDiscountCents   int64      `json:"promo_discount_cents"`
	CouponID             *uuid.UUID `json:"coupon_id,omitempty"`
	CouponCode           *string    `json:"coupon_code,omitempty"`
	CouponDiscountCents  int64      `json:"coupon_discount_cents"`
	RewardDiscountCents  int64      `json:"reward_discount_cents"`
	SubtotalCents        int64      `json:"subtotal_cents"`
	ServiceFeeRateBps    int64      `json:"service_fee_rate_bps"`
	ServiceFeeCents      int64      `json:"service_fee_cents"`
	TotalCents           int64      `json:"total_cents"`
}

// Quote computes the price breakdown for a proposed booking. Stages run in a
// fixed order: listing discount, best promo, coupon, reward. Promos and
// coupons qualify against the raw subtotal but discount the remainder left by
// earlier stages.
func Quote(input QuoteInput, fees FeeSchedule) (*Breakdown, error) {
	if input.Listing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Listing.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing price cannot be negative")
	}

	listing := input.Listing
	rawSubtotal := listing.PriceCents * input.Quantity
	remainder := rawSubtotal

	breakdown := &Breakdown{
		Quantity:         input.Quantity,
		Currency:         string(listing.Currency),
		RawSubtotalCents: rawSubtotal,
	}

	breakdown.ListingDiscountCents = stageDiscount(listing.DiscountType, listing.DiscountValue, 0, remainder)
	remainder -= breakdown.ListingDiscountCents

	if promo, amount := offers.BestOf(input.Promos, listing.ID, input.ReferenceDate, rawSubtotal, remainder, input.PromoUsageFor); promo != nil && amount > 0 {
		promoID := promo.ID
		breakdown.PromoID = &promoID
		breakdown.PromoDiscountCents = amount
		remainder -= amount
	}

	if input.Coupon != nil {
		if err := offers.Eligible(input.Coupon, listing.ID, input.ReferenceDate, rawSubtotal, input.CouponUsage); err != nil {
			return nil, err
		}
		couponID := input.Coupon.ID
		breakdown.CouponID = &couponID
		breakdown.CouponCode = input.Coupon.Code
		breakdown.CouponDiscountCents = offers.DiscountAmount(input.Coupon, remainder)
		remainder -= breakdown.CouponDiscountCents
	}

	if input.Reward != nil {
		breakdown.RewardDiscountCents = stageDiscount(input.Reward.DiscountType, input.Reward.DiscountValue, 0, remainder)
		remainder -= breakdown.RewardDiscountCents
	}

	if remainder < 0 {
		remainder = 0
	}
	breakdown.SubtotalCents = remainder
	breakdown.ServiceFeeRateBps = fees.RateBps(listing.Category)
	breakdown.ServiceFeeCents = feeOn(remainder, breakdown.ServiceFeeRateBps)
	breakdown.TotalCents = breakdown.SubtotalCents + breakdown.ServiceFeeCents

	return breakdown, nil
}

// stageDiscount applies one discount stage: percentage clamped to [0,100],
// fixed capped at the remaining base, optional max cap, floored at zero.
func stageDiscount(discountType enums.DiscountType, value, maxCents, baseCents int64) int64 {
	if baseCents <= 0 {
		return 0
	}

	var amount int64
	switch discountType {
	case enums.DiscountTypePercentage:
		if value < 0 {
			value = 0
		}
		if value > 100 {
			value = 100
		}
		amount = decimal.NewFromInt(baseCents).
			Mul(decimal.NewFromInt(value)).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
	case enums.DiscountTypeFixed:
		amount = value
	default:
		return 0
	}

	if amount < 0 {
		amount = 0
	}
	if amount > baseCents {
		amount = baseCents
	}
	if maxCents > 0 && amount > maxCents {
		amount = maxCents
	}
	return amount
}

func feeOn(subtotalCents, rateBps int64) int64 {
	if subtotalCents <= 0 || rateBps <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotalCents).
		Mul(decimal.NewFromInt(rateBps)).
		Div(decimal.NewFromInt(10000)).
		Floor().
		IntPart()
}
