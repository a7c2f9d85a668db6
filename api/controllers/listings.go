package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/api/middleware"
	"github.com/haventrip/haventrip-backend/api/responses"
	"github.com/haventrip/haventrip-backend/api/validators"
	"github.com/haventrip/haventrip-backend/internal/listings"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/logger"
)

// GetListing returns a single listing by id.
func GetListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		listingID, err := uuid.Parse(chi.URLParam(r, "listingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		listing, err := svc.Get(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newListingResponse(listing))
	}
}

// HostListings returns the caller's listings.
func HostListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		hostID := middleware.UserUUIDFromContext(r.Context())
		if hostID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required"))
			return
		}

		items, err := svc.ListByHost(r.Context(), hostID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]listingResponse, 0, len(items))
		for i := range items {
			resp = append(resp, newListingResponse(&items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

type discountPolicyRequest struct {
	DiscountType  string `json:"discount_type" validate:"required"`
	DiscountValue int64  `json:"discount_value" validate:"min=0"`
}

// UpdateListingDiscount sets the host's always-on discount for one listing.
func UpdateListingDiscount(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		hostID := middleware.UserUUIDFromContext(r.Context())
		if hostID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required"))
			return
		}

		listingID, err := uuid.Parse(chi.URLParam(r, "listingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		var payload discountPolicyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(payload.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		listing, err := svc.SetDiscountPolicy(r.Context(), listings.SetDiscountPolicyInput{
			ListingID:     listingID,
			HostID:        hostID,
			DiscountType:  discountType,
			DiscountValue: payload.DiscountValue,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newListingResponse(listing))
	}
}

type listingResponse struct {
	ListingID     uuid.UUID             `json:"listing_id"`
	HostID        uuid.UUID             `json:"host_id"`
	Title         string                `json:"title"`
	Subtitle      *string               `json:"subtitle,omitempty"`
	Category      enums.ListingCategory `json:"category"`
	UnitType      enums.UnitType        `json:"unit_type"`
	PriceCents    int64                 `json:"price_cents"`
	Currency      enums.Currency        `json:"currency"`
	Capacity      int                   `json:"capacity"`
	Amenities     []string              `json:"amenities,omitempty"`
	DiscountType  enums.DiscountType    `json:"discount_type"`
	DiscountValue int64                 `json:"discount_value"`
	IsActive      bool                  `json:"is_active"`
	CreatedAt     time.Time             `json:"created_at"`
}

func newListingResponse(listing *models.Listing) listingResponse {
	if listing == nil {
		return listingResponse{}
	}
	return listingResponse{
		ListingID:     listing.ID,
		HostID:        listing.HostID,
		Title:         listing.Title,
		Subtitle:      listing.Subtitle,
		Category:      listing.Category,
		UnitType:      listing.UnitType,
		PriceCents:    listing.PriceCents,
		Currency:      listing.Currency,
		Capacity:      listing.Capacity,
		Amenities:     listing.Amenities,
		DiscountType:  listing.DiscountType,
		DiscountValue: listing.DiscountValue,
		IsActive:      listing.IsActive,
		CreatedAt:     listing.CreatedAt,
	}
}
