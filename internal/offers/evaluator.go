package offers

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
)

// UsageCounts is a snapshot of redemption tallies for one offer. Counts taken
// outside the settlement transaction are advisory only.
type UsageCounts struct {
	Total   int64
	ByGuest int64
}

// Eligible reports whether the offer can discount the given listing on the
// reference date. Qualification checks run against the raw, pre-discount
// subtotal.
func Eligible(offer *models.Offer, listingID uuid.UUID, refDate time.Time, rawSubtotalCents int64, usage UsageCounts) error {
	if offer == nil {
		return pkgerrors.New(pkgerrors.CodeIneligible, "offer not found")
	}
	if !offer.IsActive {
		return pkgerrors.New(pkgerrors.CodeIneligible, "offer is inactive")
	}

	day := truncateToDay(refDate)
	if offer.StartsAt != nil && day.Before(truncateToDay(*offer.StartsAt)) {
		return pkgerrors.New(pkgerrors.CodeIneligible, "offer has not started")
	}
	if offer.EndsAt != nil && day.After(truncateToDay(*offer.EndsAt)) {
		return pkgerrors.New(pkgerrors.CodeIneligible, "offer has expired")
	}

	if offer.Scope == enums.OfferScopeListings && !containsListing(offer.ListingIDs, listingID) {
		return pkgerrors.New(pkgerrors.CodeIneligible, "offer does not cover this listing")
	}

	if offer.MinSubtotalCents > 0 && rawSubtotalCents < offer.MinSubtotalCents {
		return pkgerrors.New(pkgerrors.CodeIneligible,
			fmt.Sprintf("subtotal below offer minimum of %d", offer.MinSubtotalCents))
	}

	if offer.MaxUses > 0 && usage.Total >= int64(offer.MaxUses) {
		return pkgerrors.New(pkgerrors.CodeIneligible, "offer redemption limit reached")
	}
	if offer.MaxUsesPerGuest > 0 && usage.ByGuest >= int64(offer.MaxUsesPerGuest) {
		return pkgerrors.New(pkgerrors.CodeIneligible, "guest redemption limit reached")
	}

	return nil
}

// DiscountAmount computes the discount the offer takes off the given base.
// The result is non-negative, never exceeds the base, and honors the offer's
// max-discount cap when set.
func DiscountAmount(offer *models.Offer, baseCents int64) int64 {
	if offer == nil || baseCents <= 0 {
		return 0
	}

	var amount int64
	switch offer.DiscountType {
	case enums.DiscountTypePercentage:
		pct := clampPercent(offer.DiscountValue)
		amount = decimal.NewFromInt(baseCents).
			Mul(decimal.NewFromInt(pct)).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
	case enums.DiscountTypeFixed:
		amount = offer.DiscountValue
	default:
		return 0
	}

	if amount < 0 {
		amount = 0
	}
	if amount > baseCents {
		amount = baseCents
	}
	if offer.MaxDiscountCents > 0 && amount > offer.MaxDiscountCents {
		amount = offer.MaxDiscountCents
	}
	return amount
}

// BestOf picks the eligible offer that maximizes the discount on baseCents.
// Ties go to the earliest candidate. The usage lookup may be nil when cap
// counts are unavailable.
func BestOf(candidates []models.Offer, listingID uuid.UUID, refDate time.Time, rawSubtotalCents, baseCents int64, usageFor func(offerID uuid.UUID) UsageCounts) (*models.Offer, int64) {
	var (
		best       *models.Offer
		bestAmount int64
	)
	for i := range candidates {
		offer := &candidates[i]
		var usage UsageCounts
		if usageFor != nil {
			usage = usageFor(offer.ID)
		}
		if err := Eligible(offer, listingID, refDate, rawSubtotalCents, usage); err != nil {
			continue
		}
		amount := DiscountAmount(offer, baseCents)
		if amount > bestAmount {
			best = offer
			bestAmount = amount
		}
	}
	return best, bestAmount
}

func clampPercent(value int64) int64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func containsListing(ids []uuid.UUID, listingID uuid.UUID) bool {
	for _, id := range ids {
		if id == listingID {
			return true
		}
	}
	return false
}
