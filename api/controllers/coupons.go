package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/api/middleware"
	"github.com/haventrip/haventrip-backend/api/responses"
	"github.com/haventrip/haventrip-backend/api/validators"
	"github.com/haventrip/haventrip-backend/internal/offers"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/logger"
)

const maxCouponCodeLen = 64

type validateCouponRequest struct {
	Code             string  `json:"code" validate:"required"`
	ListingID        string  `json:"listing_id" validate:"required"`
	RawSubtotalCents int64   `json:"raw_subtotal_cents" validate:"required,min=1"`
	ReferenceDate    *string `json:"reference_date"`
}

type validateCouponResponse struct {
	Code          string             `json:"code"`
	OfferID       uuid.UUID          `json:"offer_id"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue int64              `json:"discount_value"`
	DiscountCents int64              `json:"discount_cents"`
}

// ValidateCoupon checks a coupon against a booking context without redeeming
// it. The discount it reports is advisory until settlement recounts usage.
func ValidateCoupon(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		guestID := middleware.UserUUIDFromContext(r.Context())
		if guestID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required"))
			return
		}

		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := uuid.Parse(payload.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		referenceDate := time.Now().UTC()
		if payload.ReferenceDate != nil {
			referenceDate, err = time.Parse(dateLayout, *payload.ReferenceDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reference_date must be a YYYY-MM-DD date"))
				return
			}
		}

		validation, err := svc.ValidateCoupon(r.Context(), offers.ValidateCouponInput{
			Code:             validators.SanitizeString(payload.Code, maxCouponCodeLen),
			ListingID:        listingID,
			GuestID:          guestID,
			ReferenceDate:    referenceDate,
			RawSubtotalCents: payload.RawSubtotalCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := validateCouponResponse{
			OfferID:       validation.Offer.ID,
			DiscountType:  validation.Offer.DiscountType,
			DiscountValue: validation.Offer.DiscountValue,
			DiscountCents: validation.DiscountCents,
		}
		if validation.Offer.Code != nil {
			resp.Code = *validation.Offer.Code
		}
		responses.WriteSuccess(w, resp)
	}
}

// HostPromos lists the active automatic promos for one host.
func HostPromos(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		hostID, err := uuid.Parse(r.URL.Query().Get("hostId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid host id"))
			return
		}

		promos, err := svc.ActivePromos(r.Context(), hostID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promos)
	}
}
