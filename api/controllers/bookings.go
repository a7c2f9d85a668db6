package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/api/middleware"
	"github.com/haventrip/haventrip-backend/api/responses"
	"github.com/haventrip/haventrip-backend/api/validators"
	"github.com/haventrip/haventrip-backend/internal/bookings"
	"github.com/haventrip/haventrip-backend/internal/pricing"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

type bookingRequest struct {
	ListingID       string         `json:"listing_id" validate:"required"`
	CheckIn         *string        `json:"check_in,omitempty"`
	CheckOut        *string        `json:"check_out,omitempty"`
	SlotDate        *string        `json:"slot_date,omitempty"`
	SlotTime        *string        `json:"slot_time,omitempty"`
	Participants    int            `json:"participants" validate:"omitempty,min=1"`
	PaymentMethod   string         `json:"payment_method" validate:"required"`
	PaymentSourceID string         `json:"payment_source_id,omitempty"`
	CouponCode      string         `json:"coupon_code,omitempty"`
	Reward          *rewardRequest `json:"reward,omitempty"`
}

type rewardRequest struct {
	DiscountType  string `json:"discount_type" validate:"required"`
	DiscountValue int64  `json:"discount_value" validate:"min=0"`
}

// CreateBooking settles a booking on the wallet or gateway path.
func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		guestID := middleware.UserUUIDFromContext(r.Context())
		if guestID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required"))
			return
		}

		var payload bookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toSettleInput(guestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

		result, err := svc.Settle(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// QuoteBooking prices an attempt without side effects.
func QuoteBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		guestID := middleware.UserUUIDFromContext(r.Context())
		if guestID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required"))
			return
		}

		var payload bookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// Quote ignores the payment method; accept its absence.
		if payload.PaymentMethod == "" {
			payload.PaymentMethod = string(enums.PaymentMethodWallet)
		}

		input, err := payload.toSettleInput(guestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		breakdown, err := svc.Quote(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, breakdown)
	}
}

// GetBooking returns one booking visible to the caller.
func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		callerID := middleware.UserUUIDFromContext(r.Context())
		if callerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required"))
			return
		}

		bookingID, err := uuid.Parse(chi.URLParam(r, "bookingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id"))
			return
		}

		booking, err := svc.Get(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if booking.GuestID != callerID && booking.HostID != callerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found"))
			return
		}
		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// ListBookings returns the caller's bookings, newest first, cursor paginated.
func ListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		guestID := middleware.UserUUIDFromContext(r.Context())
		if guestID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required"))
			return
		}

		filter := bookings.ListFilter{GuestID: guestID}

		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			filter.Limit = value
		}
		if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
			ts, err := time.Parse(time.RFC3339Nano, cursor)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			filter.Cursor = &ts
		}

		items, err := svc.ListByGuest(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := bookingListResponse{Items: make([]bookingResponse, 0, len(items))}
		for i := range items {
			resp.Items = append(resp.Items, newBookingResponse(&items[i]))
		}
		if len(items) > 0 {
			resp.NextCursor = items[len(items)-1].CreatedAt.UTC().Format(time.RFC3339Nano)
		}
		responses.WriteSuccess(w, resp)
	}
}

func (b bookingRequest) toSettleInput(guestID uuid.UUID) (*bookings.SettleInput, error) {
	listingID, err := uuid.Parse(b.ListingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id")
	}

	method, err := enums.ParsePaymentMethod(b.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	input := &bookings.SettleInput{
		GuestID:         guestID,
		ListingID:       listingID,
		Participants:    b.Participants,
		PaymentMethod:   method,
		PaymentSourceID: strings.TrimSpace(b.PaymentSourceID),
		CouponCode:      strings.TrimSpace(b.CouponCode),
		SlotTime:        b.SlotTime,
	}

	if input.CheckIn, err = parseDate(b.CheckIn, "check_in"); err != nil {
		return nil, err
	}
	if input.CheckOut, err = parseDate(b.CheckOut, "check_out"); err != nil {
		return nil, err
	}
	if input.SlotDate, err = parseDate(b.SlotDate, "slot_date"); err != nil {
		return nil, err
	}

	if b.Reward != nil {
		discountType, err := enums.ParseDiscountType(b.Reward.DiscountType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reward discount type")
		}
		input.Reward = &pricing.RewardSelection{
			DiscountType:  discountType,
			DiscountValue: b.Reward.DiscountValue,
		}
	}

	return input, nil
}

func parseDate(value *string, field string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	ts, err := time.Parse(dateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a YYYY-MM-DD date")
	}
	return &ts, nil
}

type bookingResponse struct {
	BookingID            uuid.UUID           `json:"booking_id"`
	ListingID            uuid.UUID           `json:"listing_id"`
	GuestID              uuid.UUID           `json:"guest_id"`
	HostID               uuid.UUID           `json:"host_id"`
	Status               enums.BookingStatus `json:"status"`
	PaymentMethod        enums.PaymentMethod `json:"payment_method"`
	PaymentStatus        enums.PaymentStatus `json:"payment_status"`
	CheckIn              *string             `json:"check_in,omitempty"`
	CheckOut             *string             `json:"check_out,omitempty"`
	SlotDate             *string             `json:"slot_date,omitempty"`
	SlotTime             *string             `json:"slot_time,omitempty"`
	Participants         int                 `json:"participants"`
	Currency             enums.Currency      `json:"currency"`
	RawSubtotalCents     int64               `json:"raw_subtotal_cents"`
	ListingDiscountCents int64               `json:"listing_discount_cents"`
	PromoDiscountCents   int64               `json:"promo_discount_cents"`
	CouponDiscountCents  int64               `json:"coupon_discount_cents"`
	RewardDiscountCents  int64               `json:"reward_discount_cents"`
	SubtotalCents        int64               `json:"subtotal_cents"`
	ServiceFeeCents      int64               `json:"service_fee_cents"`
	TotalCents           int64               `json:"total_cents"`
	PayoutStatus         enums.PayoutStatus  `json:"payout_status"`
	PayoutAmountCents    int64               `json:"payout_amount_cents"`
	CreatedAt            time.Time           `json:"created_at"`
}

type bookingListResponse struct {
	Items      []bookingResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func newBookingResponse(booking *models.Booking) bookingResponse {
	if booking == nil {
		return bookingResponse{}
	}
	return bookingResponse{
		BookingID:            booking.ID,
		ListingID:            booking.ListingID,
		GuestID:              booking.GuestID,
		HostID:               booking.HostID,
		Status:               booking.Status,
		PaymentMethod:        booking.PaymentMethod,
		PaymentStatus:        booking.PaymentStatus,
		CheckIn:              formatDate(booking.CheckIn),
		CheckOut:             formatDate(booking.CheckOut),
		SlotDate:             formatDate(booking.SlotDate),
		SlotTime:             booking.SlotTime,
		Participants:         booking.Participants,
		Currency:             booking.Currency,
		RawSubtotalCents:     booking.RawSubtotalCents,
		ListingDiscountCents: booking.ListingDiscountCents,
		PromoDiscountCents:   booking.PromoDiscountCents,
		CouponDiscountCents:  booking.CouponDiscountCents,
		RewardDiscountCents:  booking.RewardDiscountCents,
		SubtotalCents:        booking.SubtotalCents,
		ServiceFeeCents:      booking.ServiceFeeCents,
		TotalCents:           booking.TotalCents,
		PayoutStatus:         booking.PayoutStatus,
		PayoutAmountCents:    booking.PayoutAmountCents,
		CreatedAt:            booking.CreatedAt,
	}
}

func formatDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.Format(dateLayout)
	return &formatted
}
